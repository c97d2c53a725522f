package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gauntlet/internal/client"
	"github.com/okian/gauntlet/pkg/logger"
)

// ErrNotReady is returned when the server reports storage as not ready.
var ErrNotReady = errors.New("server storage not ready")

// Run checks health, optionally resets the board, submits cfg.Entries random
// runs with cfg.Workers concurrent submitters and verifies the result.
func Run(ctx context.Context, c *client.Client, cfg Config, log logger.Logger) (report Report, err error) {
	if err := cfg.Validate(); err != nil {
		return report, err
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log.Info(ctx, "starting load run",
		logger.String("baseURL", c.BaseURL()),
		logger.Int("entries", cfg.Entries),
		logger.Int("workers", cfg.Workers),
		logger.Bool("resetFirst", cfg.ResetFirst))

	health, err := c.Health(ctx)
	if err != nil {
		return report, fmt.Errorf("health check: %w", err)
	}
	if !health.DB {
		return report, ErrNotReady
	}

	if cfg.ResetFirst {
		deleted, err := c.Reset(ctx)
		if err != nil {
			return report, fmt.Errorf("reset: %w", err)
		}
		log.Info(ctx, "board reset", logger.Int64("deleted", deleted))
	}

	before, err := c.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list before run: %w", err)
	}
	report.StartedEmpty = len(before) == 0

	subs := NewGenerator(cfg.Seed).Submissions(cfg.Entries)
	report.Generated = len(subs)

	submitted, failed, err := submitAll(ctx, c, subs, cfg.Workers, log)
	report.Submitted, report.Failed = submitted, failed
	if err != nil {
		return report, err
	}

	board, err := c.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list after run: %w", err)
	}
	report.Listed = len(board)
	if len(board) > 0 {
		report.ActualTop = board[0].Name
	}

	if err := verifyOrder(board); err != nil {
		return report, err
	}
	if report.StartedEmpty && report.Failed == 0 {
		expected, err := expectedBoard(subs)
		if err != nil {
			return report, err
		}
		report.ExpectedTop = expected[0].Name
		if err := verifyTop(board, expected); err != nil {
			return report, err
		}
	}

	log.Info(ctx, "load run verified",
		logger.Int("submitted", report.Submitted),
		logger.Int("failed", report.Failed),
		logger.Int("listed", report.Listed),
		logger.String("top", report.ActualTop))
	return report, nil
}

// submitAll posts every submission with at most workers in flight. Individual
// request failures are counted; only cancellation aborts the run.
func submitAll(ctx context.Context, c *client.Client, subs []client.Submission, workers int, log logger.Logger) (int, int, error) {
	var submitted, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range subs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := c.Submit(gctx, s); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Debug(gctx, "submission failed", logger.Int("index", i), logger.Error(err))
				return nil
			}
			submitted.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(submitted.Load()), int(failed.Load()), fmt.Errorf("submit: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return int(submitted.Load()), int(failed.Load()), fmt.Errorf("submit: %w", err)
	}
	return int(submitted.Load()), int(failed.Load()), nil
}
