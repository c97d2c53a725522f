// Package loadgen submits randomized runs to a leaderboard server and checks
// that what it reads back obeys the ranking rules.
package loadgen

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for Config.
const (
	DefaultEntries = 200
	windowSize     = 50
)

// ErrInvalidConfig wraps Config validation failures.
var ErrInvalidConfig = errors.New("invalid load config")

// ErrVerification wraps ranking or window violations found after a run.
var ErrVerification = errors.New("leaderboard verification failed")

// Config holds configuration for a load run.
type Config struct {
	Entries    int   // Number of submissions to generate
	Workers    int   // Concurrent submitters
	ResetFirst bool  // Clear the board before submitting
	Seed       int64 // Faker seed; zero picks a time-based seed
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	switch {
	case c.Entries < 1:
		return fmt.Errorf("%w: entries must be positive, got %d", ErrInvalidConfig, c.Entries)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Generated    int
	Submitted    int
	Failed       int
	Listed       int
	ExpectedTop  string
	ActualTop    string
	StartedEmpty bool
	Duration     time.Duration
}
