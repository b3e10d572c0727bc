package localize

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Defaults for Scheduler.
const (
	DefaultWorkers   = 5
	DefaultBatchSize = 100
)

// BatchFunc processes one batch. A returned error marks the batch failed.
type BatchFunc func(ctx context.Context, b Batch) error

// Dedup returns the union of the given id lists in first-seen order.
// Empty ids are dropped.
func Dedup(lists ...[]ItemID) []ItemID {
	seen := make(map[ItemID]struct{})
	out := make([]ItemID, 0)
	for _, ids := range lists {
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Partition splits ids into consecutive batches of at most size ids.
// A non-positive size uses DefaultBatchSize.
func Partition(ids []ItemID, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([]Batch, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, Batch{Index: len(batches), IDs: ids[start:end]})
	}
	return batches
}

// Scheduler runs batches on a bounded pool of workers.
type Scheduler struct {
	Workers   int
	BatchSize int
	// Retries is the number of extra attempts for a failed batch.
	Retries int

	log *slog.Logger
}

// NewScheduler creates a scheduler. Non-positive workers or batch size
// fall back to the defaults.
func NewScheduler(workers, batchSize, retries int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		Workers:   workers,
		BatchSize: batchSize,
		Retries:   max(retries, 0),
		log:       log.With("component", "scheduler"),
	}
}

type batchResult struct {
	batch Batch
	err   error
}

// Run dedups ids, partitions them and processes every batch with fn.
// A failed batch never affects the others. Cancelling ctx stops dispatch
// of batches not yet handed to a worker; batches already running finish
// with a context detached from ctx's cancellation.
func (s *Scheduler) Run(ctx context.Context, ids []ItemID, fn BatchFunc) BatchTally {
	var tally BatchTally

	unique := Dedup(ids)
	batches := Partition(unique, s.BatchSize)
	if len(batches) == 0 {
		return tally
	}

	workers := min(s.Workers, len(batches))
	s.log.Info("processing items",
		"items", len(unique),
		"batch_size", s.BatchSize,
		"batches", len(batches),
		"workers", workers)

	jobs := make(chan Batch)
	results := make(chan batchResult, len(batches))
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for b := range jobs {
				results <- batchResult{batch: b, err: s.attempt(ctx, detached, b, fn)}
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, b := range batches {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- b:
			}
		}
	}()

	go func() {
		_ = g.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			tally.Failed++
			s.log.Error("batch failed", "batch", r.batch.Index+1, "items", len(r.batch.IDs), "error", r.err)
			continue
		}
		tally.Succeeded++
		s.log.Debug("batch done", "batch", r.batch.Index+1, "items", len(r.batch.IDs))
	}

	if dropped := len(batches) - tally.Succeeded - tally.Failed; dropped > 0 {
		s.log.Warn("run cancelled, batches not dispatched", "dropped", dropped)
	}
	s.log.Info("batches finished", "succeeded", tally.Succeeded, "failed", tally.Failed)
	return tally
}

// attempt runs fn for b up to 1+Retries times. Retrying stops once the
// caller's ctx is cancelled.
func (s *Scheduler) attempt(ctx, work context.Context, b Batch, fn BatchFunc) error {
	var err error
	for try := 0; try <= s.Retries; try++ {
		if try > 0 {
			if ctx.Err() != nil {
				return err
			}
			s.log.Warn("retrying batch", "batch", b.Index+1, "attempt", try+1, "error", err)
		}
		if err = safeCall(work, b, fn); err == nil {
			return nil
		}
	}
	return err
}

func safeCall(ctx context.Context, b Batch, fn BatchFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch %d panicked: %v", b.Index+1, r)
		}
	}()
	return fn(ctx, b)
}
