package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mediamorph/internal/api"
	"mediamorph/internal/logging"
)

// Mode selects how many files of a batch are processed.
type Mode string

const (
	// ModeSingle uploads only the first file of the batch.
	ModeSingle Mode = "single"
	// ModeBulk uploads every file of the batch sequentially.
	ModeBulk Mode = "bulk"
)

// State is the batch lifecycle. Error is terminal for the batch; Done
// reports the count actually completed.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateDone      State = "done"
	StateError     State = "error"
)

// Task is one file queued for upload. The queue is fixed once Submit
// starts; reselecting files means building a new batch.
type Task struct {
	Path string
	Name string
	Kind api.Kind
	Size int64
}

// NewTask stats path and classifies it by MIME prefix. Anything that is not
// image/* counts as video, matching the server's two upload families.
func NewTask(path string) (Task, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Task{}, fmt.Errorf("stat upload file: %w", err)
	}
	if info.IsDir() {
		return Task{}, fmt.Errorf("upload file %s is a directory", path)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return Task{
		Path: path,
		Name: filepath.Base(path),
		Kind: api.KindForMIME(mimeType),
		Size: info.Size(),
	}, nil
}

// ProgressFunc receives the aggregate batch percentage on every transport
// progress tick, together with the file currently in flight.
type ProgressFunc func(overall int, index int, task Task)

// CompletionFunc fires once per successfully uploaded file so the caller can
// refresh the matching listing independently for images and videos within
// one mixed batch.
type CompletionFunc func(kind api.Kind, asset api.MediaAsset)

// Gateway is the slice of the API client the orchestrator drives.
type Gateway interface {
	Upload(ctx context.Context, kind api.Kind, filename string, r io.Reader, size int64, progress api.ProgressFunc) (*api.MediaAsset, error)
	UploadChunk(ctx context.Context, uploadID string, index int, chunk io.Reader) error
	CompleteChunkedUpload(ctx context.Context, uploadID, originalFilename string) (*api.MediaAsset, error)
}

// Orchestrator uploads batches of files strictly in order, one request in
// flight at a time.
type Orchestrator struct {
	gateway    Gateway
	chunkBytes int64
	logger     *slog.Logger

	onProgress  ProgressFunc
	onCompleted CompletionFunc

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChunkThreshold enables the chunked upload path for video files larger
// than bytes. Zero disables chunking.
func WithChunkThreshold(bytes int64) Option {
	return func(o *Orchestrator) { o.chunkBytes = bytes }
}

// WithProgress installs the aggregate progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithCompletion installs the per-file completion callback.
func WithCompletion(fn CompletionFunc) Option {
	return func(o *Orchestrator) { o.onCompleted = fn }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an upload orchestrator backed by gateway.
func New(gateway Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway,
		logger:  logging.NewNop(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current batch state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Outcome is the result of one batch submission. Completed counts files
// fully sent before any failure, so partial bulk success stays visible.
type Outcome struct {
	State     State
	Completed int
	Assets    []api.MediaAsset
}

// Submit uploads tasks according to mode. Files are strictly ordered: file
// i+1 never starts before file i's request completes. The first failure
// stops the batch; remaining files are not attempted.
func (o *Orchestrator) Submit(ctx context.Context, tasks []Task, mode Mode) (Outcome, error) {
	if len(tasks) == 0 {
		return Outcome{State: StateError}, errors.New("no files selected")
	}
	if mode == ModeSingle {
		tasks = tasks[:1]
	}

	o.setState(StateUploading)
	outcome := Outcome{Assets: make([]api.MediaAsset, 0, len(tasks))}
	total := len(tasks)

	for i, task := range tasks {
		o.reportProgress(outcome.Completed, 0, total, i, task)
		asset, err := o.uploadOne(ctx, task, outcome.Completed, total, i)
		if err != nil {
			o.setState(StateError)
			outcome.State = StateError
			o.logger.Error("upload failed",
				logging.String("file", task.Name),
				logging.Int("completed", outcome.Completed),
				logging.Error(err))
			return outcome, fmt.Errorf("upload %s: %w", task.Name, err)
		}
		outcome.Completed++
		outcome.Assets = append(outcome.Assets, *asset)
		o.reportProgress(outcome.Completed, 0, total, i, task)
		o.logger.Info("upload complete",
			logging.String("file", task.Name),
			logging.String("kind", string(task.Kind)),
			logging.Int64("asset_id", asset.ID))
		if o.onCompleted != nil {
			o.onCompleted(task.Kind, *asset)
		}
	}

	o.setState(StateDone)
	outcome.State = StateDone
	return outcome, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, task Task, completed, total, index int) (*api.MediaAsset, error) {
	file, err := os.Open(task.Path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	progress := func(sent, totalBytes int64) {
		if totalBytes <= 0 {
			return
		}
		filePct := float64(sent) / float64(totalBytes) * 100
		o.reportProgress(completed, filePct, total, index, task)
	}

	if o.chunkBytes > 0 && task.Kind == api.KindVideo && task.Size > o.chunkBytes {
		return o.uploadChunked(ctx, task, file, progress)
	}
	return o.gateway.Upload(ctx, task.Kind, task.Name, file, task.Size, progress)
}

// uploadChunked splits large videos into fixed-size pieces. Chunk indexes
// are sequential from zero; the server reassembles on complete.
func (o *Orchestrator) uploadChunked(ctx context.Context, task Task, file *os.File, progress api.ProgressFunc) (*api.MediaAsset, error) {
	uploadID := uuid.NewString()
	buf := make([]byte, o.chunkBytes)
	var sent int64
	for index := 0; ; index++ {
		n, err := io.ReadFull(file, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read chunk %d: %w", index, err)
		}
		if n == 0 {
			break
		}
		if err := o.gateway.UploadChunk(ctx, uploadID, index, bytes.NewReader(buf[:n])); err != nil {
			return nil, fmt.Errorf("send chunk %d: %w", index, err)
		}
		sent += int64(n)
		progress(sent, task.Size)
		if int64(n) < o.chunkBytes {
			break
		}
	}
	return o.gateway.CompleteChunkedUpload(ctx, uploadID, task.Name)
}

// reportProgress recomputes the aggregate percentage on every tick. With k
// of n files fully sent and the current file at p percent, the overall value
// is round(((k + p/100) / n) * 100).
func (o *Orchestrator) reportProgress(completed int, filePct float64, total, index int, task Task) {
	if o.onProgress == nil || total == 0 {
		return
	}
	overall := int(math.Round((float64(completed) + filePct/100) / float64(total) * 100))
	o.onProgress(overall, index, task)
}
