package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// ProgressFunc receives transport-level upload progress. It is invoked with
// the bytes sent so far and the total payload size. When the total is
// unknown no calls are made; callers treat that as indeterminate, not zero.
type ProgressFunc func(sent, total int64)

// progressReader counts bytes as they leave for the wire.
type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	mu       sync.Mutex
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.progress != nil && p.total > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.progress(sent, p.total)
	}
	return n, err
}

// Upload sends one file through the kind's multipart upload endpoint. size is
// the file length in bytes; pass a non-positive size when it is unknown to
// suppress progress reporting.
func (c *Client) Upload(ctx context.Context, kind Kind, filename string, r io.Reader, size int64, progress ProgressFunc) (*MediaAsset, error) {
	body := &progressReader{r: r, total: size, progress: progress}

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)
	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, body); err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("stream file: %w", err))
			return
		}
		pipeWriter.CloseWithError(form.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/%s/upload", kind), pipeReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var asset MediaAsset
	if err := c.do(req, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UploadChunk sends one chunk of a chunked video upload. The uploadID ties
// chunks together until CompleteChunkedUpload assembles them.
func (c *Client) UploadChunk(ctx context.Context, uploadID string, index int, chunk io.Reader) error {
	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)
	go func() {
		if err := form.WriteField("upload_id", uploadID); err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("write upload id: %w", err))
			return
		}
		if err := form.WriteField("chunk_index", strconv.Itoa(index)); err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("write chunk index: %w", err))
			return
		}
		part, err := form.CreateFormFile("chunk", fmt.Sprintf("chunk-%d", index))
		if err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("create chunk part: %w", err))
			return
		}
		if _, err := io.Copy(part, chunk); err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("stream chunk: %w", err))
			return
		}
		pipeWriter.CloseWithError(form.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/video/upload/chunk", pipeReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(req, nil)
}

// CompleteChunkedUpload assembles previously sent chunks into a media asset.
func (c *Client) CompleteChunkedUpload(ctx context.Context, uploadID, originalFilename string) (*MediaAsset, error) {
	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("original_filename", originalFilename)
	var asset MediaAsset
	if err := c.postForm(ctx, "/video/upload/complete", form, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}
