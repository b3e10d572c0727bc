package events

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// EventFactory creates a new zero-value event of a specific type.
type EventFactory func() Event

// Registry maps persisted event types back to their Go types.
type Registry struct {
	factories map[string]EventFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]EventFactory),
	}
}

// Register adds an event type to the registry.
func (r *Registry) Register(eventType string, factory EventFactory) {
	r.factories[eventType] = factory
}

// Known reports whether eventType is registered.
func (r *Registry) Known(eventType string) bool {
	_, ok := r.factories[eventType]
	return ok
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Unmarshal decodes a persisted event into its concrete type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}

	event := factory()
	if err := json.Unmarshal([]byte(raw.Payload), event); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return event, nil
}

// DefaultRegistry returns a registry with the import and run events.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventImportCompleted, func() Event { return &ImportCompleted{} })
	r.Register(EventRunStarted, func() Event { return &RunStarted{} })
	r.Register(EventRunCompleted, func() Event { return &RunCompleted{} })
	return r
}

// Describe renders e as a one-line summary for listings and logs.
func Describe(e Event) string {
	switch e := e.(type) {
	case *ImportCompleted:
		return "imported " + e.Description()
	case *RunStarted:
		if e.Since == nil {
			return e.Trigger + " run started"
		}
		return e.Trigger + " run started, items since " + e.Since.Local().Format(time.DateTime)
	case *RunCompleted:
		s := fmt.Sprintf("%s run finished in %s: %d items, %d batches ok",
			e.Trigger, time.Duration(e.ElapsedMs)*time.Millisecond, e.ItemsQueued, e.BatchesSucceeded)
		if e.BatchesFailed > 0 {
			s += ", " + strconv.Itoa(e.BatchesFailed) + " failed"
		}
		if e.ServersSkipped > 0 {
			s += ", " + strconv.Itoa(e.ServersSkipped) + " servers skipped"
		}
		return s
	default:
		return e.EventType() + " " + e.Subject()
	}
}
