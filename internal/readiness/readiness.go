package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediamorph/internal/api"
	"mediamorph/internal/logging"
)

// Source is the slice of the API client the resolver reads from.
type Source interface {
	JobStatus(ctx context.Context, kind api.Kind, jobID int64) (*api.ConversionJob, error)
	ListMedia(ctx context.Context, kind api.Kind) ([]api.MediaAsset, error)
}

// Result reports whether an artifact has a byte-stream available and, when
// it does not, the blocking reason. Failed marks a conversion that reached
// Failed: the artifact will never become ready and Message holds the server's
// error text.
type Result struct {
	Ready   bool
	Failed  bool
	Message string
}

// Resolver decides when a previewable artifact is ready to render. Converted
// artifacts are gated on their job's status; video originals are gated on
// server-side preview generation, which has no job handle and can only be
// observed by re-listing.
type Resolver struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithInterval overrides the polling period used by Wait.
func WithInterval(interval time.Duration) Option {
	return func(r *Resolver) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

const defaultInterval = 3 * time.Second

// New creates a readiness resolver backed by source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source:   source,
		interval: defaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errFailed marks a conversion that reached Failed; Wait stops on it
// because the artifact will never become ready.
var errFailed = errors.New("conversion failed")

// IsFailed reports whether err came from a Failed conversion rather than a
// transport or cancellation problem.
func IsFailed(err error) bool {
	return errors.Is(err, errFailed)
}

// Check performs a single readiness probe.
func (r *Resolver) Check(ctx context.Context, kind api.Kind, mediaID, conversionID int64, artifact api.Artifact) (Result, error) {
	switch artifact {
	case api.ArtifactConverted:
		return r.checkConverted(ctx, kind, conversionID)
	case api.ArtifactOriginal:
		return r.checkOriginal(ctx, kind, mediaID)
	default:
		return Result{}, fmt.Errorf("unknown artifact kind %q", artifact)
	}
}

func (r *Resolver) checkConverted(ctx context.Context, kind api.Kind, conversionID int64) (Result, error) {
	if conversionID <= 0 {
		return Result{}, errors.New("conversion id required for converted artifacts")
	}
	job, err := r.source.JobStatus(ctx, kind, conversionID)
	if err != nil {
		return Result{}, err
	}
	switch job.Status {
	case api.JobCompleted:
		return Result{Ready: true}, nil
	case api.JobFailed:
		message := job.ErrorMessage
		if message == "" {
			message = "conversion failed"
		}
		return Result{Failed: true, Message: message}, nil
	default:
		return Result{Message: "still processing"}, nil
	}
}

// checkOriginal gates video originals on the presence of a preview path.
// Image originals have no derived preview and are always ready.
func (r *Resolver) checkOriginal(ctx context.Context, kind api.Kind, mediaID int64) (Result, error) {
	if mediaID <= 0 {
		return Result{}, errors.New("media id required for original artifacts")
	}
	if kind == api.KindImage {
		return Result{Ready: true}, nil
	}
	assets, err := r.source.ListMedia(ctx, kind)
	if err != nil {
		return Result{}, err
	}
	for _, asset := range assets {
		if asset.ID != mediaID {
			continue
		}
		if asset.PreviewPath != "" {
			return Result{Ready: true}, nil
		}
		return Result{Message: "preview still rendering"}, nil
	}
	return Result{}, fmt.Errorf("media %d not found", mediaID)
}

// Wait re-checks at the configured interval until the artifact becomes
// ready, the conversion fails, or ctx is cancelled. The next wait starts
// only after the current probe settles.
func (r *Resolver) Wait(ctx context.Context, kind api.Kind, mediaID, conversionID int64, artifact api.Artifact) (Result, error) {
	for {
		result, err := r.Check(ctx, kind, mediaID, conversionID, artifact)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			r.logger.Warn("readiness probe failed",
				logging.Int64("media_id", mediaID),
				logging.Error(err))
		} else {
			if result.Ready {
				return result, nil
			}
			if result.Failed {
				return result, fmt.Errorf("%w: %s", errFailed, result.Message)
			}
		}

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
}
