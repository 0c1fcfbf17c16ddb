package uploader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"mediamorph/internal/api"
)

type fakeGateway struct {
	uploads     []string
	chunkCalls  map[string][]int
	chunkSizes  map[string][]int
	completes   []string
	failOn      string
	progressFor map[string][]int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		chunkCalls:  make(map[string][]int),
		chunkSizes:  make(map[string][]int),
		progressFor: make(map[string][]int64),
	}
}

func (f *fakeGateway) Upload(ctx context.Context, kind api.Kind, filename string, r io.Reader, size int64, progress api.ProgressFunc) (*api.MediaAsset, error) {
	f.uploads = append(f.uploads, filename)
	if filename == f.failOn {
		return nil, errors.New("server rejected file")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	for _, sent := range f.progressFor[filename] {
		progress(sent, size)
	}
	progress(size, size)
	return &api.MediaAsset{ID: int64(len(f.uploads)), OriginalFilename: filename}, nil
}

func (f *fakeGateway) UploadChunk(ctx context.Context, uploadID string, index int, chunk io.Reader) error {
	data, err := io.ReadAll(chunk)
	if err != nil {
		return err
	}
	f.chunkCalls[uploadID] = append(f.chunkCalls[uploadID], index)
	f.chunkSizes[uploadID] = append(f.chunkSizes[uploadID], len(data))
	return nil
}

func (f *fakeGateway) CompleteChunkedUpload(ctx context.Context, uploadID, originalFilename string) (*api.MediaAsset, error) {
	f.completes = append(f.completes, originalFilename)
	return &api.MediaAsset{ID: 99, OriginalFilename: originalFilename}, nil
}

func writeTempFile(t *testing.T, dir, name string, size int) Task {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	task, err := NewTask(path)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	return task
}

func TestTaskClassificationByMIME(t *testing.T) {
	dir := t.TempDir()
	video := writeTempFile(t, dir, "clip.mp4", 10)
	image := writeTempFile(t, dir, "photo.png", 10)
	unknown := writeTempFile(t, dir, "raw.bin", 10)

	if video.Kind != api.KindVideo {
		t.Fatalf("mp4 classified as %s", video.Kind)
	}
	if image.Kind != api.KindImage {
		t.Fatalf("png classified as %s", image.Kind)
	}
	if unknown.Kind != api.KindVideo {
		t.Fatalf("unknown type classified as %s, want video", unknown.Kind)
	}
}

func TestBulkStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	tasks := []Task{
		writeTempFile(t, dir, "a.mp4", 10),
		writeTempFile(t, dir, "b.mp4", 10),
		writeTempFile(t, dir, "c.mp4", 10),
	}

	gateway := newFakeGateway()
	gateway.failOn = "b.mp4"
	orch := New(gateway)

	outcome, err := orch.Submit(context.Background(), tasks, ModeBulk)
	if err == nil {
		t.Fatal("expected batch error")
	}
	if outcome.Completed != 1 {
		t.Fatalf("completed = %d, want 1", outcome.Completed)
	}
	if len(gateway.uploads) != 2 {
		t.Fatalf("requests issued = %d, want 2 (c.mp4 never attempted)", len(gateway.uploads))
	}
	if outcome.State != StateError || orch.State() != StateError {
		t.Fatalf("state = %s, want error", outcome.State)
	}
}

func TestSingleModeUploadsOnlyFirstFile(t *testing.T) {
	dir := t.TempDir()
	tasks := []Task{
		writeTempFile(t, dir, "first.mp4", 10),
		writeTempFile(t, dir, "second.mp4", 10),
	}

	gateway := newFakeGateway()
	orch := New(gateway)
	outcome, err := orch.Submit(context.Background(), tasks, ModeSingle)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Completed != 1 || len(gateway.uploads) != 1 {
		t.Fatalf("completed = %d, uploads = %d, want 1 and 1", outcome.Completed, len(gateway.uploads))
	}
	if outcome.State != StateDone {
		t.Fatalf("state = %s, want done", outcome.State)
	}
}

func TestOverallProgressAggregation(t *testing.T) {
	dir := t.TempDir()
	tasks := []Task{
		writeTempFile(t, dir, "a.mp4", 100),
		writeTempFile(t, dir, "b.mp4", 100),
	}

	gateway := newFakeGateway()
	gateway.progressFor["a.mp4"] = []int64{50}
	gateway.progressFor["b.mp4"] = []int64{50}

	var seen []int
	orch := New(gateway, WithProgress(func(overall int, index int, task Task) {
		seen = append(seen, overall)
	}))
	if _, err := orch.Submit(context.Background(), tasks, ModeBulk); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// First file at 50% of a 2-file batch is 25 overall; fully sent is 50;
	// second at 50% is 75; batch end is 100.
	for _, want := range []int{25, 50, 75, 100} {
		found := false
		for _, got := range seen {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected overall value %d in %v", want, seen)
		}
	}
	last := -1
	for _, got := range seen {
		if got < last {
			t.Fatalf("overall progress regressed: %v", seen)
		}
		last = got
	}
}

func TestMixedBatchCompletionCallbacksPerKind(t *testing.T) {
	dir := t.TempDir()
	tasks := []Task{
		writeTempFile(t, dir, "clip.mp4", 10),
		writeTempFile(t, dir, "photo.png", 10),
	}

	gateway := newFakeGateway()
	kinds := make(map[api.Kind]int)
	orch := New(gateway, WithCompletion(func(kind api.Kind, asset api.MediaAsset) {
		kinds[kind]++
	}))
	if _, err := orch.Submit(context.Background(), tasks, ModeBulk); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if kinds[api.KindVideo] != 1 || kinds[api.KindImage] != 1 {
		t.Fatalf("completion callbacks = %v, want one per kind", kinds)
	}
}

func TestLargeVideoUsesChunkedPath(t *testing.T) {
	dir := t.TempDir()
	task := writeTempFile(t, dir, "big.mp4", 250)

	gateway := newFakeGateway()
	orch := New(gateway, WithChunkThreshold(100))
	outcome, err := orch.Submit(context.Background(), []Task{task}, ModeSingle)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Completed != 1 {
		t.Fatalf("completed = %d, want 1", outcome.Completed)
	}
	if len(gateway.uploads) != 0 {
		t.Fatal("plain upload used instead of chunked path")
	}
	if len(gateway.completes) != 1 || gateway.completes[0] != "big.mp4" {
		t.Fatalf("completes = %v", gateway.completes)
	}
	for _, indexes := range gateway.chunkCalls {
		for i, got := range indexes {
			if got != i {
				t.Fatalf("chunk indexes not sequential: %v", indexes)
			}
		}
		if len(indexes) != 3 {
			t.Fatalf("chunk count = %d, want 3 for 250 bytes at 100-byte chunks", len(indexes))
		}
	}
	for _, sizes := range gateway.chunkSizes {
		if sizes[len(sizes)-1] != 50 {
			t.Fatalf("final chunk size = %d, want 50", sizes[len(sizes)-1])
		}
	}
}

func TestSmallImageNeverChunks(t *testing.T) {
	dir := t.TempDir()
	task := writeTempFile(t, dir, "photo.png", 500)

	gateway := newFakeGateway()
	orch := New(gateway, WithChunkThreshold(100))
	if _, err := orch.Submit(context.Background(), []Task{task}, ModeSingle); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	// Images always take the plain multipart path regardless of size.
	if len(gateway.uploads) != 1 {
		t.Fatalf("uploads = %v", gateway.uploads)
	}
	if len(gateway.chunkCalls) != 0 {
		t.Fatal("image went through chunked path")
	}
}

func TestEmptyBatchRejected(t *testing.T) {
	orch := New(newFakeGateway())
	if _, err := orch.Submit(context.Background(), nil, ModeBulk); err == nil {
		t.Fatal("expected error for empty batch")
	}
}
