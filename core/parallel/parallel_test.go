package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, n := range []int{1, 7, 1000, 4097} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.EqualValues(t, 1, h, "n=%d index=%d", n, i)
		}
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)

	ParallelizeWithThreshold(0, 100, func(start, end int) {
		t.Fatal("fn must not be called for zero items")
	})

	var total int64
	ParallelizeWithThreshold(5000, 100, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	assert.EqualValues(t, 5000, total)
}
