package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedule runs a job on a standard five-field cron expression.
type Schedule struct {
	spec string
	cron *cron.Cron
	log  *slog.Logger
}

// ValidateCron reports whether spec is a valid five-field cron expression
// or descriptor such as "@daily".
func ValidateCron(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	return nil
}

// NewSchedule creates a schedule calling job with ctx on every tick.
// Overlapping ticks are skipped while a job is still running.
func NewSchedule(ctx context.Context, spec string, job func(ctx context.Context), log *slog.Logger) (*Schedule, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := ValidateCron(spec); err != nil {
		return nil, err
	}
	log = log.With("component", "schedule")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		log.Info("scheduled run starting", "cron", spec)
		job(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return &Schedule{spec: spec, cron: c, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Schedule) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info("schedule started", "cron", s.spec, "next", s.cron.Entries()[0].Next)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("schedule stopped")
	return nil
}
