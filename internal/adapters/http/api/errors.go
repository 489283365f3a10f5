package api

import (
	"errors"
	"fmt"
)

// ErrBadRequest is the sentinel kind for malformed client input.
var ErrBadRequest = errors.New("bad request")

// WrapKind tags a sentinel and the underlying cause with the operation.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
