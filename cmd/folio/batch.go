package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/folio/internal/archive"
)

var batchQuiet bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Fetch holdings for every fund in the config file",
	Long: `Batch runs the provider waterfall for each configured fund, writes
successful results to the cache and archives a report of the run.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, log, a, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(cfg.Funds) == 0 {
		return errors.New("no funds configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.OpenCache(ctx); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer a.Close()

	if cfg.Metrics.Enabled {
		if _, err := a.ServeMetrics(ctx); err != nil {
			return err
		}
	}

	progress := printProgress(cmd.ErrOrStderr())
	if batchQuiet {
		progress = nil
	}
	report, path := a.RunBatch(ctx, cfg.Funds, progress)

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, report)
	}
	if err := printReport(out, report); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(out, "\narchived: %s\n", path)
	}
	return nil
}

func printReport(out io.Writer, r archive.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUND\tSTATUS\tPROVIDER\tHOLDINGS\tQUALITY\tATTEMPTED")
	for _, res := range r.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			res.Fund, res.Status, res.Provider, res.HoldingCount, res.Quality,
			strings.Join(res.AttemptedProviders, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := r.Summary
	fmt.Fprintf(out, "\nrun %s: %d funds, %d succeeded, %d failed in %s\n",
		r.RunID, s.Total, s.Succeeded, s.Failed, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return nil
}
