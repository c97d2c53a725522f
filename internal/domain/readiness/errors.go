package readiness

import "errors"

// ErrNotReady means storage is not initialized, was lost, or is shutting down.
var ErrNotReady = errors.New("storage not ready")
