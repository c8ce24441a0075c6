package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - fund holdings lookup",
	Long: `folio finds the holdings of a fund by trying the providers most likely
to cover it, in order, until one returns data.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
