package localize

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/vmunix/plexlocalize/internal/metrics"
	"github.com/vmunix/plexlocalize/internal/plex"
	"github.com/vmunix/plexlocalize/internal/romanize"
	"github.com/vmunix/plexlocalize/internal/tags"
)

// Lockable metadata fields touched by the transformer.
const (
	FieldSortTitle = "titleSort"
	FieldGenre     = "genre"
	FieldStyle     = "style"
	FieldMood      = "mood"
)

// Transformer computes and writes the localized form of single items.
type Transformer struct {
	log *slog.Logger
}

// NewTransformer creates a transformer.
func NewTransformer(log *slog.Logger) *Transformer {
	if log == nil {
		log = slog.Default()
	}
	return &Transformer{log: log.With("component", "transformer")}
}

// Apply localizes item on srv. Locked fields are never written and a value
// equal to the current one is never rewritten, so applying twice is a no-op.
// The first failed write stops the item and is returned as an *UpdateError.
func (t *Transformer) Apply(ctx context.Context, srv Server, item Item, dict tags.Dictionary, lock bool) (Changes, error) {
	var changes Changes

	typeID, ok := plex.SearchType(item.Type)
	if !ok {
		t.log.Debug("skipping item of unknown type", "title", item.Title, "type", item.Type)
		return changes, nil
	}

	sortTitle, err := t.applySortTitle(ctx, srv, item, typeID, lock)
	if err != nil {
		return changes, err
	}
	changes.SortTitle = sortTitle

	categories := []struct {
		field string
		tags  []string
	}{
		{FieldGenre, item.Genres},
		{FieldStyle, item.Styles},
		{FieldMood, item.Moods},
	}
	for _, cat := range categories {
		if len(cat.tags) == 0 {
			continue
		}
		if item.IsLocked(cat.field) {
			t.log.Debug("field locked, skipping", "title", item.Title, "field", cat.field)
			continue
		}
		for _, tag := range cat.tags {
			localized, ok := dict.Lookup(tag)
			if !ok || localized == tag {
				continue
			}
			if err := putTag(ctx, srv, item, typeID, cat.field, tag, localized, lock); err != nil {
				return changes, err
			}
			if changes.Tags == nil {
				changes.Tags = make(map[string]string)
			}
			changes.Tags[tag] = localized
			metrics.Writes.WithLabelValues(cat.field).Inc()
			t.log.Info("tag localized", "title", item.Title, "field", cat.field, "tag", tag, "localized", localized)
		}
	}
	return changes, nil
}

func (t *Transformer) applySortTitle(ctx context.Context, srv Server, item Item, typeID int, lock bool) (string, error) {
	if item.IsLocked(FieldSortTitle) {
		t.log.Debug("field locked, skipping", "title", item.Title, "field", FieldSortTitle)
		return "", nil
	}
	if !romanize.NeedsSortKey(item.SortTitle) {
		return "", nil
	}
	key := romanize.ToSortKey(item.Title)
	if key == item.SortTitle {
		return "", nil
	}

	endpoint := fmt.Sprintf("/library/sections/%d/all", item.LibraryID)
	if item.IsCollection() {
		endpoint = "/library/metadata/" + string(item.ID)
	}
	params := url.Values{}
	params.Set("type", strconv.Itoa(typeID))
	params.Set("id", string(item.ID))
	params.Set("includeExternalMedia", "1")
	params.Set("titleSort.value", key)
	params.Set("titleSort.locked", lockValue(lock))

	if err := srv.Put(ctx, endpoint, params); err != nil {
		return "", &UpdateError{Field: FieldSortTitle, ItemID: item.ID, Err: err}
	}
	metrics.Writes.WithLabelValues(FieldSortTitle).Inc()
	t.log.Info("sort title set", "title", item.Title, "sort_title", key)
	return key, nil
}

func putTag(ctx context.Context, srv Server, item Item, typeID int, field, tag, localized string, lock bool) error {
	params := url.Values{}
	params.Set("type", strconv.Itoa(typeID))
	params.Set("id", string(item.ID))
	params.Set(field+".locked", lockValue(lock))
	params.Set(field+"[0].tag.tag", localized)
	params.Set(field+"[].tag.tag-", tag)

	endpoint := fmt.Sprintf("/library/sections/%d/all", item.LibraryID)
	if err := srv.Put(ctx, endpoint, params); err != nil {
		return &UpdateError{Field: field, ItemID: item.ID, Err: err}
	}
	return nil
}

func lockValue(lock bool) string {
	if lock {
		return "1"
	}
	return "0"
}
