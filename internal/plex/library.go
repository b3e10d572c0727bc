package plex

import (
	"context"
	"fmt"
	"strconv"
)

// Sections returns the library sections of the server.
// Directories whose key is not numeric are skipped.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	mc, err := c.Get(ctx, "/library/sections")
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	sections := make([]Section, 0, len(mc.Directory))
	for _, d := range mc.Directory {
		key, err := strconv.Atoi(d.Key)
		if err != nil {
			c.log.Debug("skipping section with non-numeric key", "key", d.Key, "title", d.Title)
			continue
		}
		sections = append(sections, Section{Key: key, Title: d.Title, Type: d.Type})
	}
	return sections, nil
}

// Ping reports whether the server answers authenticated requests.
// /identity is served without a token, so the section list is used.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Get(ctx, "/library/sections"); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
