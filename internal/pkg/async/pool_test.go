package async_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/pkg/async"
)

func TestPoolExecutesAllTasks(t *testing.T) {
	pool := async.NewPool[int](3)

	var tasks []async.Task[int]
	for i := range 10 {
		tasks = append(tasks, async.Task[int]{
			Name:    fmt.Sprintf("task-%d", i),
			Execute: func(context.Context) (int, error) { return i * i, nil },
		})
	}

	results := pool.Execute(context.Background(), tasks)
	require.Len(t, results, 10)
	for i := range 10 {
		r := results[fmt.Sprintf("task-%d", i)]
		assert.NoError(t, r.Err)
		assert.Equal(t, i*i, r.Data)
	}
}

func TestPoolContainsFailures(t *testing.T) {
	pool := async.NewPool[string](2)
	boom := errors.New("boom")

	results := pool.Execute(context.Background(), []async.Task[string]{
		{Name: "ok", Execute: func(context.Context) (string, error) { return "fine", nil }},
		{Name: "err", Execute: func(context.Context) (string, error) { return "", boom }},
		{Name: "panic", Execute: func(context.Context) (string, error) { panic("unexpected nil map") }},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "fine", results["ok"].Data)
	assert.ErrorIs(t, results["err"].Err, boom)
	assert.ErrorContains(t, results["panic"].Err, "unexpected nil map")
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := async.NewPool[int](2)

	var running, peak atomic.Int32
	var tasks []async.Task[int]
	for i := range 8 {
		tasks = append(tasks, async.Task[int]{
			Name: fmt.Sprintf("t%d", i),
			Execute: func(context.Context) (int, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return 0, nil
			},
		})
	}

	pool.Execute(context.Background(), tasks)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolStopsOnCancel(t *testing.T) {
	pool := async.NewPool[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Execute(ctx, []async.Task[int]{
		{Name: "a", Execute: func(context.Context) (int, error) { return 1, nil }},
		{Name: "b", Execute: func(context.Context) (int, error) { return 2, nil }},
	})
	assert.LessOrEqual(t, len(results), 2)
}
