package downloader

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since25/douyin-downloader/pkg/douyin"
)

func makeItems(ids ...string) []douyin.Aweme {
	items := make([]douyin.Aweme, len(ids))
	for i, id := range ids {
		items[i] = douyin.Aweme{AwemeID: id}
	}
	return items
}

func TestPoolRunsEveryItem(t *testing.T) {
	pool := NewPool(3, nil)
	items := makeItems("1", "2", "3", "4", "5")

	var processed int32
	results := pool.Run(context.Background(), items, func(ctx context.Context, item douyin.Aweme) Result {
		atomic.AddInt32(&processed, 1)
		return Result{AwemeID: item.AwemeID, Outcome: OutcomeSuccess}
	})

	require.Len(t, results, len(items))
	assert.Equal(t, int32(len(items)), atomic.LoadInt32(&processed))

	// results keep input order
	for i, item := range items {
		assert.Equal(t, item.AwemeID, results[i].AwemeID)
		assert.Equal(t, OutcomeSuccess, results[i].Outcome)
	}
}

func TestPoolFailureDoesNotAbortBatch(t *testing.T) {
	pool := NewPool(2, nil)
	items := makeItems("ok1", "bad", "ok2")

	results := pool.Run(context.Background(), items, func(ctx context.Context, item douyin.Aweme) Result {
		if item.AwemeID == "bad" {
			return Result{AwemeID: item.AwemeID, Outcome: OutcomeFailed, Err: assert.AnError}
		}
		return Result{AwemeID: item.AwemeID, Outcome: OutcomeSuccess}
	})

	require.Len(t, results, 3)
	assert.Equal(t, OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	assert.Error(t, results[1].Err)
	assert.Equal(t, OutcomeSuccess, results[2].Outcome)
}

func TestPoolRecoversFromPanic(t *testing.T) {
	pool := NewPool(2, nil)
	items := makeItems("a", "boom", "b")

	results := pool.Run(context.Background(), items, func(ctx context.Context, item douyin.Aweme) Result {
		if item.AwemeID == "boom" {
			panic("unexpected state")
		}
		return Result{AwemeID: item.AwemeID, Outcome: OutcomeSuccess}
	})

	require.Len(t, results, 3)
	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "job panicked")
	assert.Equal(t, OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, OutcomeSuccess, results[2].Outcome)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := NewPool(workers, nil)
	items := makeItems("1", "2", "3", "4", "5", "6")

	var mu sync.Mutex
	var active, peak int

	results := pool.Run(context.Background(), items, func(ctx context.Context, item douyin.Aweme) Result {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return Result{AwemeID: item.AwemeID, Outcome: OutcomeSuccess}
	})

	require.Len(t, results, len(items))
	assert.LessOrEqual(t, peak, workers)
}

func TestPoolEmptyBatch(t *testing.T) {
	pool := NewPool(4, nil)

	results := pool.Run(context.Background(), nil, func(ctx context.Context, item douyin.Aweme) Result {
		t.Fatal("process should not run for an empty batch")
		return Result{}
	})

	assert.Empty(t, results)
}

func TestPoolFillsMissingResultFields(t *testing.T) {
	pool := NewPool(1, nil)
	items := makeItems("filled")

	results := pool.Run(context.Background(), items, func(ctx context.Context, item douyin.Aweme) Result {
		return Result{Outcome: OutcomeSkipped}
	})

	require.Len(t, results, 1)
	assert.Equal(t, "filled", results[0].AwemeID)
	assert.NotZero(t, results[0].Duration)
}
