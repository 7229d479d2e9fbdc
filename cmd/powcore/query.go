// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/cobra"
)

var queryFlags struct {
	candidateTime int64
}

var tipCmd = &cobra.Command{
	Use:   "tip",
	Short: "Show the best chain tip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, closeState, err := startIndexer()
		if err != nil {
			return err
		}
		defer closeState()
		tip, err := idx.Tip()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if tip == nil {
			fmt.Fprintln(out, "header index is empty")
			return nil
		}
		syncing, err := idx.InitialSync()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "hash:       %s\n", tip.Hash)
		fmt.Fprintf(out, "height:     %d\n", tip.Height())
		fmt.Fprintf(out, "time:       %s\n", time.Unix(tip.Time(), 0).UTC().Format(time.RFC3339))
		fmt.Fprintf(out, "bits:       %08x\n", tip.Bits())
		fmt.Fprintf(out, "difficulty: %f\n", pow.Difficulty(tip.Bits(), idx.Params()))
		fmt.Fprintf(out, "chainwork:  %064x\n", tip.ChainWork().ToBig())
		fmt.Fprintf(out, "minwork:    %064x\n", idx.Params().MinimumChainWork.ToBig())
		fmt.Fprintf(out, "syncing:    %t\n", syncing)
		fmt.Fprintf(out, "upgrade:    %s\n", idx.Params().ActiveUpgrade(tip.Height()))
		fmt.Fprintf(out, "halvings:   %d\n", idx.Params().Halving(tip.Height()))
		return nil
	},
}

var nextTargetCmd = &cobra.Command{
	Use:   "next-target",
	Short: "Show the compact target required of the next block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, closeState, err := startIndexer()
		if err != nil {
			return err
		}
		defer closeState()
		var candidate *pow.BlockHeader
		if queryFlags.candidateTime > 0 {
			candidate = &pow.BlockHeader{
				Time: uint32(queryFlags.candidateTime), // nolint:gosec
			}
		}
		bits, err := idx.NextTarget(candidate)
		if err != nil {
			return err
		}
		tip, err := idx.Tip()
		if err != nil {
			return err
		}
		height := int64(0)
		if tip != nil {
			height = tip.Height() + 1
		}
		fmt.Fprintf(
			cmd.OutOrStdout(),
			"height %d: bits %08x (%s, difficulty %f)\n",
			height,
			bits,
			pow.SelectAlgorithm(height, idx.Params()).Name(),
			pow.Difficulty(bits, idx.Params()),
		)
		return nil
	},
}

var workTimeCmd = &cobra.Command{
	Use:   "work-time <from-hash> <to-hash>",
	Short: "Show the time needed to produce the work between two headers at the tip difficulty",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := chainhash.NewHashFromStr(args[0])
		if err != nil {
			return fmt.Errorf("invalid hash %q: %w", args[0], err)
		}
		to, err := chainhash.NewHashFromStr(args[1])
		if err != nil {
			return fmt.Errorf("invalid hash %q: %w", args[1], err)
		}
		idx, closeState, err := startIndexer()
		if err != nil {
			return err
		}
		defer closeState()
		seconds, err := idx.WorkEquivalentTime(*to, *from)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d seconds (%s)\n", seconds, time.Duration(seconds)*time.Second)
		return nil
	},
}

var decodeBitsCmd = &cobra.Command{
	Use:   "decode-bits <bits>",
	Short: "Decode a compact target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bits64, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("invalid compact target %q: %w", args[0], err)
		}
		bits := uint32(bits64)
		params, err := config.GetConfig().ConsensusParams()
		if err != nil {
			return err
		}
		target, negative, overflow := pow.DecodeCompact(bits)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "target:     %064x\n", target.ToBig())
		fmt.Fprintf(out, "negative:   %t\n", negative)
		fmt.Fprintf(out, "overflow:   %t\n", overflow)
		fmt.Fprintf(out, "valid:      %t\n", pow.CheckTarget(bits, &params.PowLimit))
		fmt.Fprintf(out, "difficulty: %f\n", pow.Difficulty(bits, params))
		fmt.Fprintf(out, "work:       %s\n", pow.BlockWork(bits).Dec())
		return nil
	},
}

func init() {
	nextTargetCmd.Flags().Int64Var(
		&queryFlags.candidateTime,
		"time",
		0,
		"timestamp of the candidate block, for the minimum difficulty rule",
	)
}
