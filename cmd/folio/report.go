package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "List archived batch runs or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	_, log, a, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	reports := a.Reports()
	if reports == nil {
		return errors.New("archive is not configured")
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		ids, err := reports.RunIDs(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, ids)
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	r, err := reports.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, r)
	}
	return printReport(out, *r)
}
