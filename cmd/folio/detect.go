package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/folio/internal/detector"
)

var detectFund fundFlags

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Rank the providers likely to hold data for a fund",
	RunE:  runDetect,
}

func init() {
	detectFund.register(detectCmd)
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	res := detector.Detect(detectFund.fund())
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, res)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tCONFIDENCE\tREGION\tTYPE")
	for _, p := range res.Providers {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name, p.Confidence, p.Region, p.FundType)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := res.Signals
	fmt.Fprintf(out, "\nsignals: name=%q isin=%q symbol=%q type=%s\n",
		s.NamePattern, s.ISINPrefix, s.SymbolPattern, s.FundType)
	return nil
}
