package readiness

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediamorph/internal/api"
)

type fakeSource struct {
	mu     sync.Mutex
	jobs   []api.ConversionJob
	lists  [][]api.MediaAsset
	listed int
}

func (f *fakeSource) JobStatus(ctx context.Context, kind api.Kind, jobID int64) (*api.ConversionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[0]
	if len(f.jobs) > 1 {
		f.jobs = f.jobs[1:]
	}
	return &job, nil
}

func (f *fakeSource) ListMedia(ctx context.Context, kind api.Kind) ([]api.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	assets := f.lists[0]
	if len(f.lists) > 1 {
		f.lists = f.lists[1:]
	}
	return assets, nil
}

func TestConvertedReadyWhenCompleted(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobCompleted}}}
	r := New(source)
	result, err := r.Check(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !result.Ready {
		t.Fatal("completed conversion not ready")
	}
}

func TestConvertedFailedSurfacesJobError(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobFailed, ErrorMessage: "codec unsupported"}}}
	r := New(source)
	result, err := r.Check(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Ready {
		t.Fatal("failed conversion reported ready")
	}
	if result.Message != "codec unsupported" {
		t.Fatalf("message = %q", result.Message)
	}
	if !result.Failed {
		t.Fatal("failed conversion not marked failed")
	}
}

func TestConvertedFailedFallbackMessage(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobFailed}}}
	r := New(source)
	result, err := r.Check(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Message != "conversion failed" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestConvertedStillProcessing(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobProcessing, Progress: 40}}}
	r := New(source)
	result, err := r.Check(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Ready || result.Message != "still processing" {
		t.Fatalf("result = %+v", result)
	}
}

func TestConvertedRequiresConversionID(t *testing.T) {
	r := New(&fakeSource{})
	if _, err := r.Check(context.Background(), api.KindVideo, 10, 0, api.ArtifactConverted); err == nil {
		t.Fatal("expected error for missing conversion id")
	}
}

func TestImageOriginalAlwaysReady(t *testing.T) {
	source := &fakeSource{}
	r := New(source)
	result, err := r.Check(context.Background(), api.KindImage, 5, 0, api.ArtifactOriginal)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !result.Ready {
		t.Fatal("image original not ready")
	}
	if source.listed != 0 {
		t.Fatal("image readiness should not re-list")
	}
}

func TestVideoOriginalGatedOnPreviewPath(t *testing.T) {
	source := &fakeSource{lists: [][]api.MediaAsset{
		{{ID: 5, OriginalFilename: "clip.mp4"}},
		{{ID: 5, OriginalFilename: "clip.mp4", PreviewPath: "/previews/5.mp4"}},
	}}
	r := New(source)

	result, err := r.Check(context.Background(), api.KindVideo, 5, 0, api.ArtifactOriginal)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Ready {
		t.Fatal("ready before preview generated")
	}
	if result.Message != "preview still rendering" {
		t.Fatalf("message = %q", result.Message)
	}

	result, err = r.Check(context.Background(), api.KindVideo, 5, 0, api.ArtifactOriginal)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !result.Ready {
		t.Fatal("not ready after preview generated")
	}
}

func TestVideoOriginalUnknownID(t *testing.T) {
	source := &fakeSource{lists: [][]api.MediaAsset{{{ID: 1}}}}
	r := New(source)
	if _, err := r.Check(context.Background(), api.KindVideo, 99, 0, api.ArtifactOriginal); err == nil {
		t.Fatal("expected error for unknown media id")
	}
}

func TestWaitPollsUntilReady(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{
		{ID: 1, Status: api.JobQueued},
		{ID: 1, Status: api.JobProcessing, Progress: 50},
		{ID: 1, Status: api.JobCompleted, Progress: 100},
	}}
	r := New(source, WithInterval(time.Millisecond))

	result, err := r.Wait(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !result.Ready {
		t.Fatal("Wait returned before ready")
	}
}

func TestWaitStopsOnFailedConversion(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobFailed, ErrorMessage: "out of disk"}}}
	r := New(source, WithInterval(time.Millisecond))

	_, err := r.Wait(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !IsFailed(err) {
		t.Fatalf("err = %v, want failed-conversion error", err)
	}
}

func TestWaitStopsOnFailedConversionWithProcessingMessage(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{
		{ID: 1, Status: api.JobFailed, ErrorMessage: "still processing"},
	}}
	r := New(source, WithInterval(time.Millisecond))

	result, err := r.Wait(context.Background(), api.KindVideo, 10, 1, api.ArtifactConverted)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !IsFailed(err) {
		t.Fatalf("err = %v, want failed-conversion error", err)
	}
	if result.Message != "still processing" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestWaitCancellation(t *testing.T) {
	source := &fakeSource{jobs: []api.ConversionJob{{ID: 1, Status: api.JobQueued}}}
	r := New(source, WithInterval(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	if _, err := r.Wait(ctx, api.KindVideo, 10, 1, api.ArtifactConverted); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
