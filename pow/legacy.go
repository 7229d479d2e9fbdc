// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"github.com/blinklabs-io/powcore/consensus"
	"github.com/holiman/uint256"
)

// Legacy is the damped moving average retarget used before the LWMA switch
// height. It averages the targets of the last PowAveragingWindow blocks and
// scales the average by a quarter-weighted median time past timespan.
type Legacy struct{}

func (Legacy) Name() string {
	return "legacy"
}

func (Legacy) Retarget(tip HeaderView, candidate *BlockHeader, params *consensus.Params) (uint32, error) {
	if tip == nil {
		return powLimitCompact(params), nil
	}
	if params.PowNoRetargeting {
		return tip.Bits(), nil
	}
	nextHeight := tip.Height() + 1
	if minHeight := params.PowAllowMinDifficultyBlocksAfterHeight; minHeight != nil &&
		tip.Height() >= *minHeight &&
		candidate != nil {
		// Allow a minimum difficulty block after a long gap
		if int64(candidate.Time) > tip.Time()+params.SpacingAt(nextHeight)*6 {
			return powLimitCompact(params), nil
		}
	}
	// Not enough blocks for a full window
	firstHeight := tip.Height() - params.PowAveragingWindow
	if firstHeight < 0 {
		return powLimitCompact(params), nil
	}
	total := new(uint256.Int)
	for height := tip.Height(); height > firstHeight; height-- {
		block, err := ancestorAt(tip, height)
		if err != nil {
			return 0, err
		}
		total.Add(total, CompactToTarget(block.Bits()))
	}
	first, err := ancestorAt(tip, firstHeight)
	if err != nil {
		return 0, err
	}
	avg := total.Div(total, uint256.NewInt(uint64(params.PowAveragingWindow))) // nolint:gosec
	return legacyCalculate(
		avg,
		tip.MedianTimePast(),
		first.MedianTimePast(),
		nextHeight,
		params,
	), nil
}

func legacyCalculate(avg *uint256.Int, lastBlockTime int64, firstBlockTime int64, nextHeight int64, params *consensus.Params) uint32 {
	windowTimespan := params.AveragingWindowTimespan(nextHeight)
	minTimespan := params.MinActualTimespan(nextHeight)
	maxTimespan := params.MaxActualTimespan(nextHeight)
	actualTimespan := lastBlockTime - firstBlockTime
	actualTimespan = windowTimespan + (actualTimespan-windowTimespan)/4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}
	// nolint:gosec // both timespans are positive once clamped
	next := new(uint256.Int).Div(avg, uint256.NewInt(uint64(windowTimespan)))
	next.Mul(next, uint256.NewInt(uint64(actualTimespan))) // nolint:gosec
	return EncodeCompact(clampToLimit(next, params))
}
