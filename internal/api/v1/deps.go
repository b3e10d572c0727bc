package v1

import (
	"context"
	"errors"
	"time"

	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
)

//go:generate mockgen -destination=mocks/mock_deps.go -package=mocks . Runner,RunLister,Publisher,PendingReporter

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Runner executes localization runs.
type Runner interface {
	Run(ctx context.Context, opts localize.RunOptions) (*localize.RunResult, error)
	Status() localize.Status
}

// RunLister lists recorded runs.
type RunLister interface {
	List(ctx context.Context, f history.Filter) ([]*localize.RunResult, error)
}

// Publisher publishes events to the bus.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// PendingReporter reports an armed post-import run.
type PendingReporter interface {
	Pending() (time.Time, bool)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Runner Runner
	Bus    Publisher

	// Optional dependencies (nil if not configured)
	History RunLister
	Pending PendingReporter
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Runner == nil {
		return errors.Join(ErrMissingDependency, errors.New("runner is required"))
	}
	if d.Bus == nil {
		return errors.Join(ErrMissingDependency, errors.New("event bus is required"))
	}
	return nil
}
