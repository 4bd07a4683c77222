package parallel

import (
	"sync/atomic"
	"testing"
)

// TestPool verifies that every submitted task runs exactly once across
// synchronous and parallel pool sizes.
func TestPool(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		pool := Start(workers)

		var ran atomic.Uint64
		const tasks = 100
		for i := 0; i < tasks; i++ {
			pool.Do(func() {
				ran.Add(1)
			})
		}
		pool.Wait()

		if got := ran.Load(); got != tasks {
			t.Errorf("workers=%d: %d tasks ran, want %d", workers, got, tasks)
		}
	}
}

// TestPoolWaitIdempotent verifies that Wait can be called more than once.
func TestPoolWaitIdempotent(t *testing.T) {
	pool := Start(4)
	pool.Do(func() {})
	pool.Wait()
	pool.Wait()
}
