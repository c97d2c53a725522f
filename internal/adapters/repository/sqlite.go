package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/gauntlet/internal/domain/model"
	"github.com/okian/gauntlet/pkg/logger"
	"github.com/okian/gauntlet/pkg/metrics"
)

const (
	driverName          = "sqlite3"
	memoryPath          = ":memory:"
	dirPermission       = 0o750
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 4
)

// Operation names used in errors and metric labels.
const (
	OpOpen      = "open"
	OpInit      = "init"
	OpTopN      = "top_n"
	OpInsert    = "insert"
	OpDeleteAll = "delete_all"
	OpCount     = "count"
	OpPing      = "ping"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	cash INTEGER NOT NULL,
	sales INTEGER NOT NULL,
	burn INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_leaderboard_rank
	ON leaderboard (cash DESC, sales DESC, burn ASC, id ASC);
`

const (
	queryTopN = `
SELECT id, name, cash, sales, burn, created_at
FROM leaderboard
ORDER BY cash DESC, sales DESC, burn ASC, id ASC
LIMIT ?`
	queryInsert    = `INSERT INTO leaderboard (name, cash, sales, burn) VALUES (?, ?, ?, ?)`
	queryDeleteAll = `DELETE FROM leaderboard`
	queryCount     = `SELECT COUNT(*) FROM leaderboard`
)

// SQLiteStore is a Store backed by a single SQLite file.
//
// AUTOINCREMENT keeps ids monotonic and never reused, even after a reset.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	closed atomic.Bool

	maxOpenConns int
	busyTimeout  time.Duration
	logger       logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and ensures the
// schema exists. The parent directory is created when missing.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		path:         path,
		maxOpenConns: defaultMaxOpenConns,
		busyTimeout:  defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}

	if path == "" {
		return nil, wrap(OpOpen, errors.New("empty database path"))
	}
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, dirPermission); err != nil {
				return nil, wrap(OpOpen, err)
			}
		}
	}

	db, err := sql.Open(driverName, s.dsn())
	if err != nil {
		return nil, wrap(OpOpen, err)
	}
	if path == memoryPath {
		// Every connection to :memory: is a separate database.
		s.maxOpenConns = 1
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)
	db.SetConnMaxIdleTime(0)
	s.db = db

	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info(ctx, "sqlite store opened",
		logger.String("path", path),
		logger.Int("maxOpenConns", s.maxOpenConns),
	)
	return s, nil
}

func (s *SQLiteStore) dsn() string {
	params := url.Values{}
	params.Set("_busy_timeout", strconv.FormatInt(s.busyTimeout.Milliseconds(), 10))
	if s.path != memoryPath {
		params.Set("_journal_mode", "WAL")
	}
	sep := "?"
	if strings.Contains(s.path, "?") {
		sep = "&"
	}
	return s.path + sep + params.Encode()
}

// Init verifies the connection and creates the table and index if absent.
// It is idempotent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	defer observe(OpInit, time.Now())
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail(OpInit, err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return s.fail(OpInit, err)
	}
	return nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// TopN implements Store.TopN.
func (s *SQLiteStore) TopN(ctx context.Context, limit int) ([]model.Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if s.closed.Load() {
		return nil, s.fail(OpTopN, ErrClosed)
	}
	defer observe(OpTopN, time.Now())

	rows, err := s.db.QueryContext(ctx, queryTopN, limit)
	if err != nil {
		return nil, s.fail(OpTopN, err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]model.Entry, 0, limit)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Cash, &e.Sales, &e.Burn, &e.CreatedAt); err != nil {
			return nil, s.fail(OpTopN, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(OpTopN, err)
	}
	return entries, nil
}

// Insert implements Store.Insert.
func (s *SQLiteStore) Insert(ctx context.Context, c model.Candidate) (int64, error) {
	if s.closed.Load() {
		return 0, s.fail(OpInsert, ErrClosed)
	}
	defer observe(OpInsert, time.Now())

	res, err := s.db.ExecContext(ctx, queryInsert, c.Name, c.Cash, c.Sales, c.Burn)
	if err != nil {
		return 0, s.fail(OpInsert, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail(OpInsert, err)
	}
	return id, nil
}

// DeleteAll implements Store.DeleteAll.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, s.fail(OpDeleteAll, ErrClosed)
	}
	defer observe(OpDeleteAll, time.Now())

	res, err := s.db.ExecContext(ctx, queryDeleteAll)
	if err != nil {
		return 0, s.fail(OpDeleteAll, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail(OpDeleteAll, err)
	}
	return n, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, s.fail(OpCount, ErrClosed)
	}
	defer observe(OpCount, time.Now())

	var n int
	if err := s.db.QueryRowContext(ctx, queryCount).Scan(&n); err != nil {
		return 0, s.fail(OpCount, err)
	}
	return n, nil
}

// Ping implements Store.Ping.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return s.fail(OpPing, ErrClosed)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail(OpPing, err)
	}
	return nil
}

// Close closes the pool. Further calls fail with ErrClosed.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return wrap("close", err)
	}
	s.logger.Info(context.Background(), "sqlite store closed", logger.String("path", s.path))
	return nil
}

func (s *SQLiteStore) fail(op string, err error) error {
	metrics.RecordStorageError(op)
	return wrap(op, err)
}

func observe(op string, start time.Time) {
	metrics.RecordStorageLatency(op, float64(time.Since(start).Microseconds())/1000)
}
