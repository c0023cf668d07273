// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     cmd
// Description: Root command, global flags and configuration loading
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/service"
	"github.com/msto63/laplace/internal/store"
	"github.com/msto63/laplace/pkg/core/config"
	"github.com/msto63/laplace/pkg/core/logging"
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	normFlag     string
	noStore      bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "laplace",
	Short: "Minimax exponential sums for 1/x",
	Long: `laplace computes the best uniform approximation

  1/x ≈ Σ ω_i·exp(-α_i·x),  x in [ymin, ymax]

with k terms, as used for Laplace-transformed energy denominators.
Converged solutions are stored in a seed database and reused as
starting points for nearby intervals.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the command tree
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $LAPLACE_CONFIG or ./configs/laplace.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace solver iterations")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().StringVar(&normFlag, "norm", "", "error norm: abs or rel (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "do not read or write the seed database")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	switch outputFormat {
	case "text", "json", "yaml":
	default:
		return mdwerror.Newf("unknown output format %q", outputFormat).
			WithCode(mdwerror.CodeInvalidInput).
			WithDetail("flag", "output")
	}

	// one-shot commands stay quiet unless asked; serve keeps the configured level
	level := "warn"
	if cmd.Name() == "serve" {
		level = appConfig.General.LogLevel
	}
	if verbose {
		level = "debug"
	}
	logging.Configure(level, appConfig.General.LogFormat, cmd.ErrOrStderr())
	return nil
}

// openStore opens the seed database unless it is disabled
func openStore() (*store.SQLiteSeedStore, error) {
	if noStore || !appConfig.Store.Enabled {
		return nil, nil
	}
	return store.NewSQLiteSeedStore(store.Config{Path: appConfig.Store.Path})
}

// openService builds a service for a single command invocation
func openService() (*service.Service, func(), error) {
	cfg, err := service.ConfigFrom(appConfig)
	if err != nil {
		return nil, nil, err
	}
	cfg.CacheEnabled = false
	cfg.Verbose = verbose

	seeds, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	var svcSeeds service.SeedStore
	if seeds != nil {
		svcSeeds = seeds
	}

	svc, err := service.NewService(cfg, svcSeeds, logging.New("laplace"))
	if err != nil {
		if seeds != nil {
			seeds.Close()
		}
		return nil, nil, err
	}
	return svc, func() {
		svc.Close()
		if seeds != nil {
			seeds.Close()
		}
	}, nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
}
