package shared

import (
	"context"
	"sync"
)

// ForEachWithBoundedGoroutines calls f for every value with at most limit
// calls in flight and returns once all of them finished. Values not yet
// started when ctx is done are passed to f together with the context error.
func ForEachWithBoundedGoroutines[T any](ctx context.Context, limit int, values []T, f func(i int, value T, err error)) {
	if limit < 1 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		select {
		case guard <- struct{}{}: // would block if guard channel is already filled
		case <-ctx.Done():
			f(i, value, ctx.Err())
			continue
		}
		wg.Add(1)
		go func(i int, value T) {
			defer wg.Done()
			defer func() { <-guard }()
			f(i, value, ctx.Err())
		}(i, value)
	}
	wg.Wait()
}
