// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package pow implements the proof-of-work rules of the chain: the compact
// target encoding, difficulty retargeting, proof and solution validation and
// chain work accumulation.
package pow

import (
	"math/big"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/holiman/uint256"
)

// Algorithm is a difficulty retargeting strategy
type Algorithm interface {
	// Name returns a short identifier for logs and metrics
	Name() string

	// Retarget returns the compact target required for the block after tip.
	// The candidate header is optional and is only consulted by rules that
	// depend on the new block's timestamp.
	Retarget(tip HeaderView, candidate *BlockHeader, params *consensus.Params) (uint32, error)
}

var (
	legacyAlgorithm Algorithm = Legacy{}
	lwmaAlgorithm   Algorithm = LWMA{}
	lwma3Algorithm  Algorithm = LWMA3{}
)

// SelectAlgorithm returns the retargeting algorithm used for the block at the
// given height
func SelectAlgorithm(height int64, params *consensus.Params) Algorithm {
	if height < params.LWMAHeight {
		return legacyAlgorithm
	}
	if !params.NetworkUpgradeActive(height, consensus.UpgradeSapling) {
		return lwmaAlgorithm
	}
	return lwma3Algorithm
}

// NextTarget returns the compact target required for the block following tip.
// A nil tip means the next block is the genesis block.
func NextTarget(tip HeaderView, candidate *BlockHeader, params *consensus.Params) (uint32, error) {
	if tip == nil {
		return EncodeCompact(&params.PowLimit), nil
	}
	return SelectAlgorithm(tip.Height()+1, params).Retarget(tip, candidate, params)
}

// Difficulty returns the difficulty of the compact target relative to the
// network ceiling, where the ceiling itself has a difficulty of 1
func Difficulty(bits uint32, params *consensus.Params) float64 {
	target, negative, overflow := DecodeCompact(bits)
	if negative || overflow || target.IsZero() {
		return 0
	}
	ret, _ := new(big.Float).Quo(
		new(big.Float).SetInt(params.PowLimit.ToBig()),
		new(big.Float).SetInt(target.ToBig()),
	).Float64()
	return ret
}

func powLimitCompact(params *consensus.Params) uint32 {
	return EncodeCompact(&params.PowLimit)
}

// clampToLimit lowers target to the ceiling when it exceeds it
func clampToLimit(target *uint256.Int, params *consensus.Params) *uint256.Int {
	if target.Gt(&params.PowLimit) {
		target.Set(&params.PowLimit)
	}
	return target
}
