package crawlbase

import "context"

type AsyncResult[T any] struct {
	Value T
	Err   error
}

// Async runs fn on its own goroutine. The returned channel receives exactly
// one result and is then closed.
//
//	ch := crawlbase.Async(ctx, func(ctx context.Context) (*crawlbase.Response, error) {
//		return client.Scraper().Get(ctx, "https://example.com", nil)
//	})
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan AsyncResult[T] {
	out := make(chan AsyncResult[T], 1)
	go func() {
		defer close(out)
		v, err := fn(ctx)
		out <- AsyncResult[T]{Value: v, Err: err}
	}()
	return out
}
