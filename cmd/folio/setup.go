package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/app"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/logger"
)

// fundFlags identify a single fund on the command line
type fundFlags struct {
	symbol string
	name   string
	isin   string
	sedol  string
}

func (f *fundFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.symbol, "symbol", "", "fund symbol (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "fund name")
	cmd.Flags().StringVar(&f.isin, "isin", "", "fund ISIN")
	cmd.Flags().StringVar(&f.sedol, "sedol", "", "fund SEDOL")
	_ = cmd.MarkFlagRequired("symbol")
}

func (f *fundFlags) fund() core.FundMetadata {
	return core.FundMetadata{Symbol: f.symbol, Name: f.name, ISIN: f.isin, SEDOL: f.sedol}
}

// loadConfig reads the config file, or defaults when none was given
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and builds the logger and application
func setup() (*config.Config, *zap.Logger, *app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, log, a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
