package service

import (
	"errors"

	"github.com/okian/gauntlet/internal/domain/readiness"
)

// Sentinel kinds returned by Service.
var (
	// ErrNotReady is readiness.ErrNotReady, re-exported for callers of Service.
	ErrNotReady = readiness.ErrNotReady
	// ErrStorageInit wraps a failed storage initialization at startup.
	ErrStorageInit = errors.New("storage initialization failed")
	// ErrInvalidPhase means a lifecycle call was made from the wrong phase.
	ErrInvalidPhase = errors.New("invalid lifecycle phase")
)
