package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediamorph/internal/api"
	"mediamorph/internal/logging"
)

// StatusFetcher is the slice of the API client the poller needs.
type StatusFetcher interface {
	JobStatus(ctx context.Context, kind api.Kind, jobID int64) (*api.ConversionJob, error)
}

// Snapshot is one observation of a job. Err marks a transient fetch failure;
// the watch continues after delivering it because the server may recover.
type Snapshot struct {
	Job *api.ConversionJob
	Err error
}

// TerminalFunc fires once when a watch delivers a terminal snapshot, so the
// owner can refresh its history view. The read model may lag the job's
// terminal transition by up to one fetch round-trip.
type TerminalFunc func(kind api.Kind, job api.ConversionJob)

// Poller watches conversion jobs with a self-rescheduling timer: the next
// interval wait starts only after the current fetch settles, so overlapping
// fetches cannot occur even when request latency exceeds the interval.
type Poller struct {
	fetcher    StatusFetcher
	interval   time.Duration
	logger     *slog.Logger
	onTerminal TerminalFunc
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the default 3-second polling period.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithTerminalHook installs the terminal-snapshot callback.
func WithTerminalHook(fn TerminalFunc) Option {
	return func(p *Poller) { p.onTerminal = fn }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

const defaultInterval = 3 * time.Second

// New creates a job poller backed by fetcher.
func New(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: defaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch polls jobID until a terminal status is delivered or ctx is
// cancelled. The first fetch happens immediately. The returned channel is
// closed when the watch ends; no snapshot is ever delivered after that.
func (p *Poller) Watch(ctx context.Context, kind api.Kind, jobID int64) (<-chan Snapshot, error) {
	if jobID <= 0 {
		return nil, errors.New("job id required")
	}

	out := make(chan Snapshot)
	go p.run(ctx, kind, jobID, out)
	return out, nil
}

func (p *Poller) run(ctx context.Context, kind api.Kind, jobID int64, out chan<- Snapshot) {
	defer close(out)

	for {
		job, err := p.fetcher.JobStatus(ctx, kind, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("status fetch failed",
				logging.Int64("job_id", jobID),
				logging.Error(err))
			if !p.deliver(ctx, out, Snapshot{Err: err}) {
				return
			}
		} else {
			if !p.deliver(ctx, out, Snapshot{Job: job}) {
				return
			}
			if job.Status.Terminal() {
				if p.onTerminal != nil {
					p.onTerminal(kind, *job)
				}
				return
			}
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Poller) deliver(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- snap:
		return true
	}
}

// WaitTerminal watches jobID and blocks until the job reaches a terminal
// status, returning the final snapshot. Transient fetch errors are logged
// and skipped.
func (p *Poller) WaitTerminal(ctx context.Context, kind api.Kind, jobID int64) (*api.ConversionJob, error) {
	snapshots, err := p.Watch(ctx, kind, jobID)
	if err != nil {
		return nil, err
	}
	var last *api.ConversionJob
	for snap := range snapshots {
		if snap.Err != nil {
			continue
		}
		last = snap.Job
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if last == nil {
		return nil, fmt.Errorf("watch ended without a status for job %d", jobID)
	}
	return last, nil
}
