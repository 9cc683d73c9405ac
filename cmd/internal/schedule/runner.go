package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives the jobs on a ticker: a decay sweep every interval, and the
// monthly reset when a tick crosses a calendar-month boundary. The reset
// itself does no date gating; that decision lives here.
type Runner struct {
	log      *slog.Logger
	jobs     *Jobs
	interval time.Duration
	nowFn    func() time.Time
}

// RunnerOption configures Runner.
type RunnerOption func(*Runner) error

// WithInterval sets the tick interval (default: 24h).
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		if d <= 0 {
			return ErrInvalidInput
		}
		r.interval = d
		return nil
	}
}

// WithNow overrides the runner clock (tests).
func WithNow(fn func() time.Time) RunnerOption {
	return func(r *Runner) error {
		if fn == nil {
			return ErrInvalidInput
		}
		r.nowFn = fn
		return nil
	}
}

// NewRunner constructs a Runner.
func NewRunner(log *slog.Logger, jobs *Jobs, opts ...RunnerOption) (*Runner, error) {
	if log == nil || jobs == nil {
		return nil, ErrInvalidInput
	}
	r := &Runner{
		log:      log,
		jobs:     jobs,
		interval: 24 * time.Hour,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run blocks until the context is cancelled. Job failures are logged and do
// not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := r.nowFn()
	r.log.Info("scheduler.start", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduler.stop")
			return nil
		case <-ticker.C:
			now := r.nowFn()
			r.Tick(ctx, last, now)
			last = now
		}
	}
}

// Tick runs one scheduler step for the window (last, now]. Exported so tests
// can drive the schedule without a real clock.
func (r *Runner) Tick(ctx context.Context, last, now time.Time) {
	if _, err := r.jobs.RunInactivityDecay(ctx, now); err != nil {
		r.log.Error("job.inactivity_decay.fail", "err", err)
	}

	if now.Month() != last.Month() || now.Year() != last.Year() {
		if _, err := r.jobs.RunMonthlyReset(ctx, now); err != nil {
			r.log.Error("job.monthly_reset.fail", "err", err)
		}
	}
}
