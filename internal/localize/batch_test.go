package localize_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/plexlocalize/internal/localize"
)

func ids(n int) []localize.ItemID {
	out := make([]localize.ItemID, n)
	for i := range out {
		out[i] = localize.ItemID(fmt.Sprint(i + 1))
	}
	return out
}

func TestDedup(t *testing.T) {
	got := localize.Dedup(
		[]localize.ItemID{"1", "2", "3"},
		[]localize.ItemID{"2", "3", "4", ""},
	)
	assert.Equal(t, []localize.ItemID{"1", "2", "3", "4"}, got)
	assert.NotNil(t, localize.Dedup())
}

func TestPartition(t *testing.T) {
	batches := localize.Partition(ids(250), 100)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].IDs, 100)
	assert.Len(t, batches[1].IDs, 100)
	assert.Len(t, batches[2].IDs, 50)
	assert.Equal(t, 2, batches[2].Index)
	assert.Equal(t, localize.ItemID("201"), batches[2].IDs[0])

	assert.Empty(t, localize.Partition(nil, 100))
	assert.Len(t, localize.Partition(ids(5), 0), 1, "non-positive size uses default")
}

func TestScheduler_EachIDInOneBatch(t *testing.T) {
	s := localize.NewScheduler(4, 10, 0, testLogger())

	var mu sync.Mutex
	seen := make(map[localize.ItemID]int)
	input := append(ids(95), ids(20)...) // 20 duplicates

	tally := s.Run(context.Background(), input, func(_ context.Context, b localize.Batch) error {
		mu.Lock()
		defer mu.Unlock()
		for _, id := range b.IDs {
			seen[id]++
		}
		return nil
	})

	assert.Equal(t, localize.BatchTally{Succeeded: 10}, tally)
	assert.Len(t, seen, 95)
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s processed once", id)
	}
}

func TestScheduler_PartialFailureIsolation(t *testing.T) {
	s := localize.NewScheduler(5, 100, 0, testLogger())

	var calls atomic.Int32
	tally := s.Run(context.Background(), ids(250), func(_ context.Context, b localize.Batch) error {
		calls.Add(1)
		if b.Index == 1 {
			return errors.New("server error")
		}
		return nil
	})

	assert.Equal(t, localize.BatchTally{Succeeded: 2, Failed: 1}, tally)
	assert.Equal(t, int32(3), calls.Load(), "failure does not cancel other batches")
}

func TestScheduler_PanicCountsAsFailure(t *testing.T) {
	s := localize.NewScheduler(2, 1, 0, testLogger())
	tally := s.Run(context.Background(), ids(3), func(_ context.Context, b localize.Batch) error {
		if b.Index == 0 {
			panic("bad item")
		}
		return nil
	})
	assert.Equal(t, localize.BatchTally{Succeeded: 2, Failed: 1}, tally)
}

func TestScheduler_BoundedConcurrency(t *testing.T) {
	s := localize.NewScheduler(3, 1, 0, testLogger())

	var cur, peak atomic.Int32
	s.Run(context.Background(), ids(20), func(_ context.Context, _ localize.Batch) error {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		cur.Add(-1)
		return nil
	})
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestScheduler_CancelStopsDispatch(t *testing.T) {
	s := localize.NewScheduler(1, 1, 0, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	var inFlightCtxErr error
	tally := s.Run(ctx, ids(10), func(bctx context.Context, b localize.Batch) error {
		processed.Add(1)
		if b.Index == 0 {
			cancel()
			inFlightCtxErr = bctx.Err()
		}
		return nil
	})

	assert.NoError(t, inFlightCtxErr, "in-flight batch keeps a live context")
	assert.Less(t, processed.Load(), int32(10))
	assert.Equal(t, int(processed.Load()), tally.Succeeded)
	assert.Zero(t, tally.Failed)
}

func TestScheduler_Retries(t *testing.T) {
	s := localize.NewScheduler(1, 10, 2, testLogger())

	var attempts atomic.Int32
	tally := s.Run(context.Background(), ids(5), func(_ context.Context, _ localize.Batch) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, localize.BatchTally{Succeeded: 1}, tally)
}

func TestScheduler_Empty(t *testing.T) {
	s := localize.NewScheduler(0, 0, -1, testLogger())
	assert.Equal(t, localize.DefaultWorkers, s.Workers)
	assert.Equal(t, localize.DefaultBatchSize, s.BatchSize)
	assert.Zero(t, s.Retries)

	tally := s.Run(context.Background(), nil, func(context.Context, localize.Batch) error {
		t.Fatal("no batches expected")
		return nil
	})
	assert.Equal(t, localize.BatchTally{}, tally)
}
