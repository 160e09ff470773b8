package breaker

import "context"

// Caller is implemented by both Breaker and AsyncBreaker.
type Caller interface {
	Call(ctx context.Context, fn Func) error
}

// Run executes fn under circuit breaker protection and returns its
// result, for wrapped operations that produce a value instead of just
// an error. On any error, including a short-circuit refusal, the zero
// value of T is returned.
func Run[T any](ctx context.Context, c Caller, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := c.Call(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
