// Package service owns the storage handle and readiness state, and exposes
// the gated leaderboard operations used by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	repository "github.com/okian/gauntlet/internal/adapters/repository"
	"github.com/okian/gauntlet/internal/domain/model"
	"github.com/okian/gauntlet/internal/domain/readiness"
	"github.com/okian/gauntlet/internal/domain/types"
	"github.com/okian/gauntlet/internal/domain/validation"
	"github.com/okian/gauntlet/pkg/logger"
	"github.com/okian/gauntlet/pkg/metrics"
)

const (
	defaultDBPath   = "leaderboard.db"
	defaultTopLimit = 50
)

// StoreOpener opens and initializes a store.
type StoreOpener func(ctx context.Context) (repository.Store, error)

// Service implements the API dependencies for the leaderboard.
type Service struct {
	// lifecycleMu serializes Start, BeginDrain and Stop.
	lifecycleMu sync.Mutex
	// opsMu is held shared by every data operation and exclusively by Stop,
	// so the store is never closed under an in-flight call.
	opsMu sync.RWMutex

	phase     atomic.Int32
	gate      *readiness.Gate
	store     repository.Store
	open      StoreOpener
	validator *validation.Validator

	dbPath       string
	maxOpenConns int
	busyTimeout  time.Duration
	topLimit     int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDBPath sets the SQLite file opened by Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithMaxOpenConns bounds the storage connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithBusyTimeout sets the SQLite busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.busyTimeout = d
		}
	}
}

// WithTopLimit sets the leaderboard window, capped at 50.
func WithTopLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= defaultTopLimit {
			s.topLimit = n
		}
	}
}

// WithValidator replaces the default submission validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithStoreOpener replaces how Start obtains its store.
func WithStoreOpener(open StoreOpener) Option {
	return func(s *Service) {
		if open != nil {
			s.open = open
		}
	}
}

// WithStore makes Start use an already opened store.
func WithStore(store repository.Store) Option {
	return WithStoreOpener(func(context.Context) (repository.Store, error) {
		return store, nil
	})
}

// New constructs a Service in PhaseStarting. Nothing touches storage until Start.
func New(opts ...Option) *Service {
	s := &Service{
		gate:      readiness.NewGate(),
		validator: validation.New(),
		dbPath:    defaultDBPath,
		topLimit:  defaultTopLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.open == nil {
		s.open = s.openSQLite
	}
	return s
}

func (s *Service) openSQLite(ctx context.Context) (repository.Store, error) {
	return repository.Open(ctx, s.dbPath,
		repository.WithMaxOpenConns(s.maxOpenConns),
		repository.WithBusyTimeout(s.busyTimeout),
		repository.WithLogger(s.logger.Named("repository")),
	)
}

// Start initializes storage and opens the readiness gate. A failure is
// terminal: the service moves to PhaseFailed and never becomes ready.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	switch s.Phase() {
	case PhaseReady:
		return nil
	case PhaseStarting:
	default:
		return fmt.Errorf("%w: start from %s", ErrInvalidPhase, s.Phase())
	}

	s.logger.Info(ctx, "initializing storage", logger.String("path", s.dbPath))
	store, err := s.open(ctx)
	if err != nil {
		s.phase.Store(int32(PhaseFailed))
		metrics.UpdateReady(false)
		s.logger.Error(ctx, "storage initialization failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageInit, err)
	}

	s.store = store
	s.gate.MarkReady()
	s.phase.Store(int32(PhaseReady))
	metrics.UpdateReady(true)
	s.logger.Info(ctx, "leaderboard service ready", logger.Int("topLimit", s.topLimit))
	return nil
}

// BeginDrain closes the gate to new data operations. main calls it once the
// HTTP server has stopped accepting requests.
func (s *Service) BeginDrain(ctx context.Context) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if p := s.Phase(); p != PhaseReady {
		return
	}
	s.gate.MarkDraining()
	s.phase.Store(int32(PhaseDraining))
	metrics.UpdateReady(false)
	s.logger.Info(ctx, "draining leaderboard service")
}

// Stop waits for in-flight data operations, then closes the store. It is
// safe to call more than once and from any phase.
func (s *Service) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.Phase() == PhaseStopped {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.gate.MarkDraining()

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	s.gate.MarkStopped()
	s.phase.Store(int32(PhaseStopped))
	metrics.UpdateReady(false)

	if err != nil {
		s.logger.Error(ctx, "closing storage failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "leaderboard service stopped")
	return nil
}

// Phase returns the current lifecycle phase.
func (s *Service) Phase() Phase {
	return Phase(s.phase.Load())
}

// IsReady reports whether data operations are currently accepted.
func (s *Service) IsReady() bool {
	return s.gate.IsReady()
}

// TopN returns the leaderboard window in ranking order.
func (s *Service) TopN(ctx context.Context) ([]types.Entry, error) {
	s.opsMu.RLock()
	defer s.opsMu.RUnlock()

	if !s.gate.IsReady() {
		return nil, ErrNotReady
	}
	entries, err := s.store.TopN(ctx, s.topLimit)
	if err != nil {
		return nil, s.storageFailure(ctx, err)
	}
	return toAPIEntries(entries), nil
}

// Submit validates a submission and stores it, returning the new id.
func (s *Service) Submit(ctx context.Context, sub validation.Submission) (int64, error) {
	s.opsMu.RLock()
	defer s.opsMu.RUnlock()

	if !s.gate.IsReady() {
		return 0, ErrNotReady
	}
	candidate, err := s.validator.Validate(sub)
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationFailure(ve.Reason)
		}
		return 0, err
	}
	id, err := s.store.Insert(ctx, candidate)
	if err != nil {
		return 0, s.storageFailure(ctx, err)
	}
	metrics.RecordEntrySubmitted()
	s.logger.Debug(ctx, "entry stored", logger.Int64("id", id), logger.String("name", candidate.Name))
	return id, nil
}

// Reset deletes every entry and returns how many were removed.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	s.opsMu.RLock()
	defer s.opsMu.RUnlock()

	if !s.gate.IsReady() {
		return 0, ErrNotReady
	}
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, s.storageFailure(ctx, err)
	}
	metrics.RecordReset(deleted)
	s.logger.Info(ctx, "leaderboard reset", logger.Int64("deleted", deleted))
	return deleted, nil
}

// storageFailure closes the gate when err means storage itself is gone.
// The error is returned unchanged so the caller still sees a storage error.
func (s *Service) storageFailure(ctx context.Context, err error) error {
	if repository.IsConnectivityError(err) && s.gate.MarkUnavailable() {
		metrics.UpdateReady(false)
		s.logger.Error(ctx, "storage connectivity lost; data operations now unavailable", logger.Error(err))
	}
	return err
}

// Stats returns service statistics for monitoring and refreshes gauges.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.opsMu.RLock()
	defer s.opsMu.RUnlock()

	stats := map[string]any{
		"phase":    s.Phase().String(),
		"storage":  s.gate.State().String(),
		"ready":    s.gate.IsReady(),
		"topLimit": s.topLimit,
	}
	if s.gate.IsReady() {
		if n, err := s.store.Count(ctx); err == nil {
			stats["entries"] = n
			metrics.UpdateEntriesTotal(n)
		} else {
			_ = s.storageFailure(ctx, err)
		}
	}
	metrics.UpdateReady(s.gate.IsReady())
	return stats
}

func toAPIEntries(entries []model.Entry) []types.Entry {
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{
			Name:      e.Name,
			Cash:      e.Cash,
			Sales:     e.Sales,
			Burn:      e.Burn,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}
