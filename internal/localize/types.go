package localize

import (
	"time"

	"github.com/vmunix/plexlocalize/internal/plex"
)

// ItemID is a Plex rating key. It is the dedup key within a run.
type ItemID string

// Kind is the localization category of a library.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindShow   Kind = "show"
	KindArtist Kind = "artist"
	KindOther  Kind = "other"
)

var kindTypes = map[Kind][]int{
	KindMovie:  {plex.TypeMovie},
	KindShow:   {plex.TypeShow},
	KindArtist: {plex.TypeArtist, plex.TypeAlbum, plex.TypeTrack},
}

// KindOf maps a Plex section type to a Kind.
func KindOf(sectionType string) Kind {
	switch k := Kind(sectionType); k {
	case KindMovie, KindShow, KindArtist:
		return k
	default:
		return KindOther
	}
}

// TypeIDs returns the item type codes enumerated for the kind.
// Other libraries enumerate nothing.
func (k Kind) TypeIDs() []int {
	return kindTypes[k]
}

// Library is a library section selected for localization.
type Library struct {
	ID    int
	Title string
	Kind  Kind
}

// Item is the localization-relevant view of one Plex item. It is rebuilt
// from every fetch and never cached across batches.
type Item struct {
	ID        ItemID
	LibraryID int
	Type      string
	Title     string
	SortTitle string
	Locked    map[string]bool
	Genres    []string
	Styles    []string
	Moods     []string
}

// IsLocked reports whether field is locked on the server.
func (it Item) IsLocked(field string) bool {
	return it.Locked[field]
}

// IsCollection reports whether the item is a collection.
func (it Item) IsCollection() bool {
	return it.Type == "collection"
}

// Batch is a slice of item ids processed by one worker.
type Batch struct {
	Index int
	IDs   []ItemID
}

// BatchTally counts batch outcomes.
type BatchTally struct {
	Succeeded int
	Failed    int
}

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerImport   Trigger = "import"
	TriggerStartup  Trigger = "startup"
)

// RunOptions parameterize a single run.
type RunOptions struct {
	Trigger Trigger
	// Since restricts enumeration to items added at or after it and skips
	// collections. Nil means a full run.
	Since *time.Time
}

// RunResult summarizes a finished run.
type RunResult struct {
	RunID            string
	Trigger          Trigger
	Since            *time.Time
	ServersProcessed int
	ServersSkipped   int
	ItemsQueued      int
	BatchesSucceeded int
	BatchesFailed    int
	Started          time.Time
	Elapsed          time.Duration
}

// Changes lists the writes Apply issued for one item.
type Changes struct {
	SortTitle string
	Tags      map[string]string
}

// Empty reports whether nothing was written.
func (c Changes) Empty() bool {
	return c.SortTitle == "" && len(c.Tags) == 0
}
