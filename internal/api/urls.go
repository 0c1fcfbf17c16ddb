package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Byte-stream URLs carry the access token as a query parameter because they
// are fetched by media elements and plain browser navigations that cannot set
// an Authorization header. This is a deliberate, narrowly-scoped exception to
// header-only auth: it applies to the read-only preview/download/thumbnail
// endpoints and never to state-changing calls. Treat these URLs as secrets
// when printing or logging them.

// PreviewURL builds the byte-stream URL for an asset preview. For converted
// artifacts conversionID selects the job output; the artifact query parameter
// only exists on the video endpoints.
func (c *Client) PreviewURL(kind Kind, mediaID int64, artifact Artifact, conversionID int64, token string) string {
	params := url.Values{}
	if kind == KindVideo {
		if artifact == "" {
			artifact = ArtifactOriginal
		}
		params.Set("kind", string(artifact))
	}
	if conversionID > 0 {
		params.Set("conversion_id", fmt.Sprintf("%d", conversionID))
	}
	if token != "" {
		params.Set("token", token)
	}
	return c.streamURL(fmt.Sprintf("/%s/preview/%d", kind, mediaID), params)
}

// DownloadURL builds the byte-stream URL for an original file or, when
// conversionID is set, a specific conversion output.
func (c *Client) DownloadURL(kind Kind, mediaID int64, conversionID int64, token string) string {
	params := url.Values{}
	if conversionID > 0 {
		params.Set("conversion_id", fmt.Sprintf("%d", conversionID))
	}
	if token != "" {
		params.Set("token", token)
	}
	return c.streamURL(fmt.Sprintf("/%s/download/%d", kind, mediaID), params)
}

// ThumbnailURL builds the byte-stream URL for a video thumbnail.
func (c *Client) ThumbnailURL(videoID int64, token string) string {
	params := url.Values{}
	if token != "" {
		params.Set("token", token)
	}
	return c.streamURL(fmt.Sprintf("/video/thumbnail/%d", videoID), params)
}

func (c *Client) streamURL(path string, params url.Values) string {
	if len(params) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + params.Encode()
}

// Download fetches a byte-stream into w using header auth (the client can set
// headers, unlike a media element) and returns the number of bytes written.
// An empty body is treated as a failure: a ready artifact always has bytes.
func (c *Client) Download(ctx context.Context, kind Kind, mediaID, conversionID int64, w io.Writer, progress ProgressFunc) (int64, error) {
	path := fmt.Sprintf("/%s/download/%d", kind, mediaID)
	if conversionID > 0 {
		path += fmt.Sprintf("?conversion_id=%d", conversionID)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return 0, newError(resp.StatusCode, body)
	}

	reader := io.Reader(resp.Body)
	if progress != nil && resp.ContentLength > 0 {
		reader = &progressReader{r: resp.Body, total: resp.ContentLength, progress: progress}
	}
	written, err := io.Copy(w, reader)
	if err != nil {
		return written, fmt.Errorf("stream download: %w", err)
	}
	if written == 0 {
		return 0, fmt.Errorf("download %s/%d: empty byte-stream", kind, mediaID)
	}
	return written, nil
}
