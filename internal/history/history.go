// Package history stores a record of finished localization runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/plexlocalize/internal/localize"
)

// ErrNotFound is returned when a run id has no record.
var ErrNotFound = errors.New("run not found")

// DefaultLimit caps List when the filter sets no limit.
const DefaultLimit = 20

// Filter selects runs to list.
type Filter struct {
	Trigger localize.Trigger
	Limit   int
}

// Store persists run results in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a run history store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts r. Recording the same run id twice replaces the first record.
func (s *Store) Record(ctx context.Context, r localize.RunResult) error {
	var since sql.NullTime
	if r.Since != nil {
		since = sql.NullTime{Time: *r.Since, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, trigger, since, servers_processed, servers_skipped,
			items_queued, batches_succeeded, batches_failed, started_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Trigger), since, r.ServersProcessed, r.ServersSkipped,
		r.ItemsQueued, r.BatchesSucceeded, r.BatchesFailed, r.Started, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (*localize.RunResult, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns runs matching f, most recent first.
func (s *Store) List(ctx context.Context, f Filter) ([]*localize.RunResult, error) {
	var conditions []string
	var args []any
	if f.Trigger != "" {
		conditions = append(conditions, "trigger = ?")
		args = append(args, string(f.Trigger))
	}

	query := selectRuns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*localize.RunResult
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune deletes runs started before now minus olderThan and reports how many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return result.RowsAffected()
}

const selectRuns = `
	SELECT id, trigger, since, servers_processed, servers_skipped,
		items_queued, batches_succeeded, batches_failed, started_at, elapsed_ms
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*localize.RunResult, error) {
	var (
		r         localize.RunResult
		trigger   string
		since     sql.NullTime
		elapsedMs int64
	)
	err := row.Scan(&r.RunID, &trigger, &since, &r.ServersProcessed, &r.ServersSkipped,
		&r.ItemsQueued, &r.BatchesSucceeded, &r.BatchesFailed, &r.Started, &elapsedMs)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Trigger = localize.Trigger(trigger)
	if since.Valid {
		t := since.Time
		r.Since = &t
	}
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &r, nil
}
