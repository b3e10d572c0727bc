package events

import "time"

// RunStarted is emitted when a localization run acquires the run guard.
type RunStarted struct {
	BaseEvent
	RunID   string     `json:"run_id"`
	Trigger string     `json:"trigger"`
	Since   *time.Time `json:"since,omitempty"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID, trigger string, since *time.Time) *RunStarted {
	return &RunStarted{
		BaseEvent: NewBaseEvent(EventRunStarted, runID),
		RunID:     runID,
		Trigger:   trigger,
		Since:     since,
	}
}

// RunCompleted is emitted when a localization run finishes.
type RunCompleted struct {
	BaseEvent
	RunID            string `json:"run_id"`
	Trigger          string `json:"trigger"`
	ServersProcessed int    `json:"servers_processed"`
	ServersSkipped   int    `json:"servers_skipped"`
	ItemsQueued      int    `json:"items_queued"`
	BatchesSucceeded int    `json:"batches_succeeded"`
	BatchesFailed    int    `json:"batches_failed"`
	ElapsedMs        int64  `json:"elapsed_ms"`
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(runID, trigger string, processed, skipped, items, succeeded, failed int, elapsed time.Duration) *RunCompleted {
	return &RunCompleted{
		BaseEvent:        NewBaseEvent(EventRunCompleted, runID),
		RunID:            runID,
		Trigger:          trigger,
		ServersProcessed: processed,
		ServersSkipped:   skipped,
		ItemsQueued:      items,
		BatchesSucceeded: succeeded,
		BatchesFailed:    failed,
		ElapsedMs:        elapsed.Milliseconds(),
	}
}
