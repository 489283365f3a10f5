package service

import (
	"errors"
	"fmt"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrReplayNotFound = fmt.Errorf("replay generation %w", model.ErrNotFound)
)
