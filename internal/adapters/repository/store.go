// Package repository persists leaderboard entries.
package repository

import (
	"context"

	"github.com/okian/gauntlet/internal/domain/model"
)

// Store provides read/write access to the leaderboard table. Each call is a
// single self-contained statement; implementations must be safe for
// concurrent use.
type Store interface {
	// TopN returns at most limit entries ordered by cash DESC, sales DESC,
	// burn ASC, id ASC. An empty table yields an empty, non-nil slice.
	TopN(ctx context.Context, limit int) ([]model.Entry, error)

	// Insert stores a validated candidate and returns its assigned id.
	Insert(ctx context.Context, c model.Candidate) (int64, error)

	// DeleteAll removes every entry and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Ping checks that storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the storage handle.
	Close() error
}
