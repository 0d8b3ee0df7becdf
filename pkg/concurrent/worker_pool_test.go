package concurrent

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	wp := NewWorkerPool[int, int](4, 8)
	wp.Start(func(job int) int { return job * job })

	go func() {
		for i := 1; i <= 100; i++ {
			wp.AddJob(i)
		}
		wp.Close()
	}()
	go wp.Wait()

	sum := 0
	count := 0
	for r := range wp.CollectResults() {
		sum += r
		count++
	}
	assert.Equal(t, 100, count)
	assert.Equal(t, 338350, sum)
}

func TestMapKeepsJobOrder(t *testing.T) {
	jobs := make([]string, 50)
	for i := range jobs {
		jobs[i] = string(rune('a' + i%26))
	}
	results, err := Map(context.Background(), 3, jobs, func(s string) int { return int(s[0]) })
	require.NoError(t, err)
	require.Len(t, results, len(jobs))
	for i, r := range results {
		assert.Equal(t, int(jobs[i][0]), r)
	}
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results, err := Map(ctx, 2, []int{1, 2, 3}, func(i int) int {
		calls.Add(1)
		return i
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 3)
	assert.Zero(t, calls.Load())
}
