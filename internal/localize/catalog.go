package localize

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// CatalogEntry is one selectable library on a configured server.
type CatalogEntry struct {
	Server   string
	Key      int
	Title    string
	Type     string
	Selected bool
}

// Value returns the selection string for the entry.
func (e CatalogEntry) Value() string {
	return e.Server + "." + strconv.Itoa(e.Key)
}

// Catalog lists the non-photo libraries of the named servers, marking those
// matched by the current selection. Unreachable servers are reported in the
// returned error map and left out of the listing.
func (o *Orchestrator) Catalog(ctx context.Context, names []string) ([]CatalogEntry, map[string]error) {
	selected := make(map[string][]string)
	for _, sel := range o.selection() {
		selected[sel.server] = append(selected[sel.server], sel.libraries...)
	}

	var entries []CatalogEntry
	failed := make(map[string]error)
	for _, name := range names {
		srv, ok := o.servers.Resolve(name)
		if !ok {
			failed[name] = fmt.Errorf("%w: %s not configured", ErrServerUnavailable, name)
			continue
		}
		sections, err := srv.Sections(ctx)
		if err != nil {
			failed[name] = fmt.Errorf("%w: %s: %w", ErrServerUnavailable, name, err)
			continue
		}
		sort.Slice(sections, func(i, j int) bool { return sections[i].Key < sections[j].Key })
		for _, s := range sections {
			if s.Type == "photo" {
				continue
			}
			e := CatalogEntry{Server: name, Key: s.Key, Title: s.Title, Type: s.Type}
			for _, lib := range selected[name] {
				if matchesSection(lib, s) {
					e.Selected = true
					break
				}
			}
			entries = append(entries, e)
		}
	}
	return entries, failed
}
