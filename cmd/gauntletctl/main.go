package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gauntlet/internal/client"
	"github.com/okian/gauntlet/internal/loadgen"
	"github.com/okian/gauntlet/pkg/logger"
)

// Default configuration constants.
const (
	defaultURL     = "http://localhost:3000"
	defaultTimeout = 10 * time.Second
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
)

// errResetNotConfirmed guards against wiping the board by accident.
var errResetNotConfirmed = errors.New("refusing to reset without --yes")

type rootOptions struct {
	baseURL string
	timeout time.Duration
	verbose bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.baseURL, client.WithTimeout(o.timeout))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gauntletctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "gauntletctl",
		Short:        "Command-line client for the gauntlet leaderboard",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
				return err
			}
			if opts.verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", defaultURL, "Base URL of the leaderboard server")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newHealthCmd(opts),
		newListCmd(opts),
		newSubmitCmd(opts),
		newResetCmd(opts),
		newLoadCmd(opts),
	)
	return cmd
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server liveness and storage readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the top 50",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tCASH\tSALES\tBURN\tCREATED")
			for i, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", i+1, e.Name, e.Cash, e.Sales, e.Burn, e.CreatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var s client.Submission
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.client().Submit(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored entry %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&s.Name, "name", "", "Player name")
	cmd.Flags().Float64Var(&s.Cash, "cash", 0, "Cash at the end of the run")
	cmd.Flags().Float64Var(&s.Sales, "sales", 0, "Total sales")
	cmd.Flags().Float64Var(&s.Burn, "burn", 0, "Monthly burn")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every leaderboard entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			deleted, err := opts.client().Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Submit random runs concurrently and verify the ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := loadgen.Run(cmd.Context(), opts.client(), cfg, logger.Named("loadgen"))
			if perr := printJSON(cmd.OutOrStdout(), reportView(report)); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&cfg.Entries, "entries", loadgen.DefaultEntries, "Number of runs to submit")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
	cmd.Flags().BoolVar(&cfg.ResetFirst, "reset-first", false, "Clear the board before submitting")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 = time based)")
	return cmd
}

func reportView(r loadgen.Report) map[string]any {
	return map[string]any{
		"generated":    r.Generated,
		"submitted":    r.Submitted,
		"failed":       r.Failed,
		"listed":       r.Listed,
		"startedEmpty": r.StartedEmpty,
		"expectedTop":  r.ExpectedTop,
		"actualTop":    r.ActualTop,
		"duration":     r.Duration.String(),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
