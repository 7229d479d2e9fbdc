// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/indexer"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const programName = "powcore"

var cmdlineFlags struct {
	configFile string
}

var rootCmd = &cobra.Command{
	Use:           programName,
	Short:         "Proof-of-work header index for Equihash chains",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		if _, err := config.Load(cmdlineFlags.configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		// Configure logging
		logging.Setup()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the program version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", programName, version.GetVersionString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cmdlineFlags.configFile,
		"config",
		"",
		"path to config file to load",
	)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tipCmd)
	rootCmd.AddCommand(nextTargetCmd)
	rootCmd.AddCommand(workTimeCmd)
	rootCmd.AddCommand(decodeBitsCmd)
}

func main() {
	err := rootCmd.Execute()
	// Sync logger on exit
	_ = logging.GetLogger().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", programName, err)
		os.Exit(1)
	}
}

// startIndexer loads the header index and the global indexer. The returned
// function closes the index.
func startIndexer() (*indexer.Indexer, func(), error) {
	logger := logging.GetLogger()
	// Load state
	if err := state.GetState().Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	closeFunc := func() {
		if err := state.GetState().Close(); err != nil {
			logger.Errorf("failed to close state: %s", err)
		}
	}
	idx := indexer.GetIndexer()
	if err := idx.Start(); err != nil {
		closeFunc()
		return nil, nil, fmt.Errorf("failed to start indexer: %w", err)
	}
	return idx, closeFunc, nil
}

func startListeners(cfg *config.Config) {
	logger := logging.GetLogger()
	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Infof(
			"starting debug listener on %s:%d",
			cfg.Debug.ListenAddress,
			cfg.Debug.ListenPort,
		)
		go func() {
			err := http.ListenAndServe(
				fmt.Sprintf(
					"%s:%d",
					cfg.Debug.ListenAddress,
					cfg.Debug.ListenPort,
				),
				nil,
			)
			if err != nil {
				logger.Fatalf("failed to start debug listener: %s", err)
			}
		}()
	}
	// Start metrics listener
	if cfg.Metrics.ListenPort > 0 {
		logger.Infof(
			"starting metrics listener on %s:%d",
			cfg.Metrics.ListenAddress,
			cfg.Metrics.ListenPort,
		)
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		go func() {
			err := http.ListenAndServe(
				fmt.Sprintf(
					"%s:%d",
					cfg.Metrics.ListenAddress,
					cfg.Metrics.ListenPort,
				),
				metricsMux,
			)
			if err != nil {
				logger.Fatalf("failed to start metrics listener: %s", err)
			}
		}()
	}
}
