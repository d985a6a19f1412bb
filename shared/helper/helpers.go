package helper

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnexpectedType = errors.New("unexpected type")

// ValueOf returns the value ctx carries under key as a T.
// When ctx carries nothing under key, missing is returned wrapped with the key.
func ValueOf[T any](ctx context.Context, key any, missing error) (T, error) {
	var zero T

	raw := ctx.Value(key)
	if raw == nil {
		return zero, fmt.Errorf("%w: %v", missing, key)
	}

	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T under %v", ErrUnexpectedType, raw, key)
	}
	return val, nil
}
