// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/internal/version"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import hex encoded block headers, one per line",
	Long: `Import hex encoded block headers, one per line, in chain order.

Use "-" to read from standard input. Headers already in the index are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	logger := logging.GetLogger()
	logger.Infof("%s %s started", programName, version.GetVersionString())

	startListeners(cfg)

	idx, closeState, err := startIndexer()
	if err != nil {
		return err
	}
	defer closeState()

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := idx.ImportHeaders(ctx, r)
	logger.Infof(
		"imported %d headers (%d duplicates) in %s",
		stats.Accepted,
		stats.Duplicates,
		time.Since(start).Round(time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	tip, err := idx.Tip()
	if err != nil {
		return err
	}
	if tip != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "tip %s at height %d\n", tip.Hash, tip.Height())
	}
	return nil
}
