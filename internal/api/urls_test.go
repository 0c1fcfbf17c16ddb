package api_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"mediamorph/internal/api"
)

func TestPreviewAndDownloadURLBuilders(t *testing.T) {
	client, err := api.New("https://media.example.com/api/")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	preview := client.PreviewURL(api.KindVideo, 9, api.ArtifactConverted, 12, "tok")
	parsed, err := url.Parse(preview)
	if err != nil {
		t.Fatalf("parse preview url: %v", err)
	}
	if parsed.Path != "/api/video/preview/9" {
		t.Fatalf("unexpected path: %q", parsed.Path)
	}
	query := parsed.Query()
	if query.Get("kind") != "converted" || query.Get("conversion_id") != "12" || query.Get("token") != "tok" {
		t.Fatalf("unexpected query: %v", query)
	}

	original := client.PreviewURL(api.KindVideo, 9, api.ArtifactOriginal, 0, "")
	if !strings.Contains(original, "kind=original") {
		t.Fatalf("video preview should default to original artifact: %q", original)
	}
	if strings.Contains(original, "token=") || strings.Contains(original, "conversion_id=") {
		t.Fatalf("absent options must not appear: %q", original)
	}

	imagePreview := client.PreviewURL(api.KindImage, 3, api.ArtifactConverted, 4, "tok")
	if strings.Contains(imagePreview, "kind=") {
		t.Fatalf("image preview has no artifact query on the service: %q", imagePreview)
	}

	download := client.DownloadURL(api.KindVideo, 9, 12, "tok")
	if !strings.HasPrefix(download, "https://media.example.com/api/video/download/9?") {
		t.Fatalf("unexpected download url: %q", download)
	}
	if !strings.Contains(download, "conversion_id=12") || !strings.Contains(download, "token=tok") {
		t.Fatalf("unexpected download query: %q", download)
	}

	thumb := client.ThumbnailURL(9, "tok")
	if !strings.Contains(thumb, "/video/thumbnail/9") {
		t.Fatalf("unexpected thumbnail url: %q", thumb)
	}
}

func TestDownloadStreamsSpecificConversion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video/download/9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("conversion_id") != "12" {
			t.Errorf("expected conversion_id=12, got %q", r.URL.RawQuery)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("download should use header auth, got %q", r.Header.Get("Authorization"))
		}
		io.WriteString(w, "converted-bytes")
	}), api.WithTokenSource(api.StaticToken("tok")))

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), api.KindVideo, 9, 12, &buf, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if n == 0 || buf.String() != "converted-bytes" {
		t.Fatalf("unexpected download: n=%d body=%q", n, buf.String())
	}
}

func TestDownloadRejectsEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var buf bytes.Buffer
	if _, err := client.Download(context.Background(), api.KindImage, 3, 0, &buf, nil); err == nil {
		t.Fatal("expected error for empty byte-stream")
	}
}
