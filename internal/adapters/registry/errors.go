package registry

import (
	"errors"
	"fmt"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

// Sentinel kinds for registry errors.
var (
	ErrNotFound = fmt.Errorf("session %w", model.ErrNotFound)
	ErrClosed   = errors.New("registry closed")
)
