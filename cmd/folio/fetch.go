package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/orchestrator"
)

var (
	fetchFund   fundFlags
	fetchMaxAge int
	fetchLimit  int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the holdings of one fund",
	Long: `Fetch runs the provider waterfall for one fund and prints the holdings.
A cached snapshot written within --max-age days is returned instead. Without
the flag cache.max_age_days applies; --max-age 0 always fetches.`,
	RunE: runFetch,
}

func init() {
	fetchFund.register(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchMaxAge, "max-age", 0, "serve cached holdings written within this many days (default cache.max_age_days, 0 = always fetch)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 25, "holdings to print (0 = all)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, a, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.OpenCache(ctx); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer a.Close()

	errOut := cmd.ErrOrStderr()
	res := a.Orchestrator().HoldingsFor(ctx, fetchFund.fund(), maxAgeDays(cmd, cfg), printProgress(errOut))

	out := cmd.OutOrStdout()
	if asJSON {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else if err := printHoldings(out, res, fetchLimit); err != nil {
		return err
	}

	if res.IsEmpty() {
		return core.ErrNoData
	}
	return nil
}

// maxAgeDays returns --max-age when given, otherwise the configured cache age
func maxAgeDays(cmd *cobra.Command, cfg *config.Config) int {
	if cmd.Flags().Changed("max-age") {
		return fetchMaxAge
	}
	return cfg.Cache.MaxAgeDays
}

// printProgress renders waterfall events as they happen
func printProgress(w io.Writer) orchestrator.ProgressFunc {
	return func(u core.ProgressUpdate) {
		switch u.Status {
		case core.StatusTrying:
			fmt.Fprintf(w, "%s: trying %s\n", u.Fund, u.Provider)
		case core.StatusFailed:
			fmt.Fprintf(w, "%s: %s failed: %s\n", u.Fund, u.Provider, u.Error)
		case core.StatusSuccess:
			fmt.Fprintf(w, "%s: %s returned %d holdings (%s)\n", u.Fund, u.Provider, u.HoldingCount, u.Quality)
		}
	}
}

func printHoldings(out io.Writer, res core.HoldingsResult, limit int) error {
	fmt.Fprintf(out, "provider: %s  as of: %s  quality: %s  holdings: %d",
		res.Provider, res.AsOfDate, res.Quality, len(res.Holdings))
	if res.TotalKnownHoldings > 0 {
		fmt.Fprintf(out, " of %d", res.TotalKnownHoldings)
	}
	fmt.Fprintln(out)
	if res.IsEmpty() {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nNAME\tSYMBOL\tISIN\tWEIGHT %")
	for i, h := range res.Holdings {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", h.Name, h.Symbol, h.ISIN, h.Weight)
	}
	return w.Flush()
}
