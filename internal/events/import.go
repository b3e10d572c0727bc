package events

import "time"

// Event types.
const (
	EventImportCompleted = "import.completed"
	EventRunStarted      = "run.started"
	EventRunCompleted    = "run.completed"
)

// ImportCompleted is emitted when a media import finishes upstream. It arms
// the post-import debounce timer.
type ImportCompleted struct {
	BaseEvent
	Title         string    `json:"title,omitempty"`
	SeasonEpisode string    `json:"season_episode,omitempty"`
	ImportedAt    time.Time `json:"imported_at"`
}

// NewImportCompleted creates an ImportCompleted stamped with the current time.
func NewImportCompleted(title, seasonEpisode string) *ImportCompleted {
	base := NewBaseEvent(EventImportCompleted, title)
	return &ImportCompleted{
		BaseEvent:     base,
		Title:         title,
		SeasonEpisode: seasonEpisode,
		ImportedAt:    base.Timestamp,
	}
}

// Description renders the media for log lines, e.g. "Show (2024) S01E02".
func (e *ImportCompleted) Description() string {
	if e.SeasonEpisode == "" {
		return e.Title
	}
	return e.Title + " " + e.SeasonEpisode
}
