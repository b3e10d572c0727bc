package localize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/plexlocalize/internal/plex"
)

// Fetcher reads item ids and item records from one server.
// It never retries; callers decide what a failure means.
type Fetcher struct {
	srv Server
	log *slog.Logger
}

// NewFetcher creates a fetcher for srv.
func NewFetcher(srv Server, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{srv: srv, log: log.With("component", "fetcher", "server", srv.Name())}
}

// ListIDs enumerates the ids of one library. With isCollection set it lists
// the library's collections and ignores typeID and since. Otherwise it lists
// items of typeID, restricted to those added at or after since when given.
// The result is never nil.
func (f *Fetcher) ListIDs(ctx context.Context, lib Library, typeID int, isCollection bool, since *time.Time) ([]ItemID, error) {
	var endpoint string
	if isCollection {
		endpoint = fmt.Sprintf("/library/sections/%d/collections", lib.ID)
	} else {
		endpoint = fmt.Sprintf("/library/sections/%d/all?type=%d", lib.ID, typeID)
		if since != nil {
			endpoint += fmt.Sprintf("&addedAt>=%d", since.Unix())
		}
	}

	mc, err := f.srv.Get(ctx, endpoint)
	if err != nil {
		return []ItemID{}, &FetchError{Endpoint: endpoint, Err: err}
	}

	ids := make([]ItemID, 0, len(mc.Metadata))
	for _, m := range mc.Metadata {
		if m.RatingKey == "" {
			continue
		}
		ids = append(ids, ItemID(m.RatingKey))
	}

	if len(ids) > 0 {
		f.log.Info("listed items",
			"library", lib.Title,
			"type", plex.TypeName(typeID),
			"collections", isCollection,
			"count", len(ids))
	}
	return ids, nil
}

// FetchOne returns the item with id, or nil when the server does not have it.
func (f *Fetcher) FetchOne(ctx context.Context, id ItemID) (*Item, error) {
	endpoint := "/library/metadata/" + string(id)
	mc, err := f.srv.Get(ctx, endpoint)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	for _, m := range mc.Metadata {
		if it, ok := toItem(m); ok {
			return &it, nil
		}
	}
	return nil, nil
}

// FetchMany reads all ids in one request. Ids the server does not return
// are dropped, as are entries missing a rating key, section or type.
func (f *Fetcher) FetchMany(ctx context.Context, ids []ItemID) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	endpoint := "/library/metadata/" + strings.Join(keys, ",")

	mc, err := f.srv.Get(ctx, endpoint)
	if errors.Is(err, plex.ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}

	items := make([]Item, 0, len(mc.Metadata))
	for _, m := range mc.Metadata {
		it, ok := toItem(m)
		if !ok {
			f.log.Debug("skipping incomplete item", "rating_key", m.RatingKey, "title", m.Title)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func toItem(m plex.Metadata) (Item, bool) {
	if m.RatingKey == "" || m.LibrarySectionID == 0 || m.Type == "" {
		return Item{}, false
	}
	locked := make(map[string]bool, len(m.Field))
	for _, fld := range m.Field {
		if fld.Locked {
			locked[fld.Name] = true
		}
	}
	return Item{
		ID:        ItemID(m.RatingKey),
		LibraryID: int(m.LibrarySectionID),
		Type:      m.Type,
		Title:     m.Title,
		SortTitle: m.TitleSort,
		Locked:    locked,
		Genres:    tagNames(m.Genre),
		Styles:    tagNames(m.Style),
		Moods:     tagNames(m.Mood),
	}, true
}

func tagNames(tags []plex.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Tag != "" {
			names = append(names, t.Tag)
		}
	}
	return names
}
