// Package pool runs a function over a slice of items with a bounded number
// of workers.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result holds the outcome of processing a single item.
type Result[T, R any] struct {
	Index int
	Item  T
	Value R
	Err   error
}

// Func processes a single item.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Guard provides thread-safe key deduplication. Multiple goroutines can
// safely call TryClaim; only the first caller for a given key succeeds.
type Guard[K comparable] struct {
	mu   sync.Mutex
	keys map[K]bool
}

// NewGuard creates a new Guard.
func NewGuard[K comparable]() *Guard[K] {
	return &Guard[K]{keys: make(map[K]bool)}
}

// TryClaim attempts to claim a key. Returns true if the key was
// successfully claimed (first caller wins), false if already taken.
func (g *Guard[K]) TryClaim(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys[key] {
		return false
	}
	g.keys[key] = true
	return true
}

// Run fans item processing out across N workers.
// The processedCount pointer, when not nil, is atomically incremented after
// each item completes (success or failure), enabling external progress
// reporting. Results come back in input order.
func Run[T, R any](
	ctx context.Context,
	items []T,
	fn Func[T, R],
	workers int,
	processedCount *int64,
) []Result[T, R] {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	out := make([]Result[T, R], len(items))
	jobs := make(chan int, len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := Result[T, R]{Index: i, Item: items[i]}
				// Check for cancellation before processing
				if err := ctx.Err(); err != nil {
					r.Err = err
				} else {
					r.Value, r.Err = fn(ctx, items[i])
				}
				out[i] = r
				if processedCount != nil {
					atomic.AddInt64(processedCount, 1)
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}
