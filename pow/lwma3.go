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

// LWMA3 is the LWMA variant used from the Sapling upgrade onwards. It forces
// timestamps to be strictly increasing inside the window and bounds the
// result relative to the target of the tip.
type LWMA3 struct{}

func (LWMA3) Name() string {
	return "lwma3"
}

func (LWMA3) Retarget(tip HeaderView, _ *BlockHeader, params *consensus.Params) (uint32, error) {
	if tip == nil {
		return powLimitCompact(params), nil
	}
	if params.PowNoRetargeting {
		return tip.Bits(), nil
	}
	spacing := params.PreBlossomPowTargetSpacing
	n := params.LwmaAveragingWindow
	k := n * (n + 1) * spacing / 2
	height := tip.Height()
	if height < n {
		return powLimitCompact(params), nil
	}
	// nolint:gosec // k and N are positive
	divisor := uint256.NewInt(uint64(k * n))
	sumTarget := new(uint256.Int)
	previousDiff := new(uint256.Int)
	var t, j, solvetimeSum int64
	first, err := ancestorAt(tip, height-n)
	if err != nil {
		return 0, err
	}
	previousTimestamp := first.Time()
	for i := height - n + 1; i <= height; i++ {
		block, err := ancestorAt(tip, i)
		if err != nil {
			return 0, err
		}
		thisTimestamp := previousTimestamp + 1
		if block.Time() > previousTimestamp {
			thisTimestamp = block.Time()
		}
		solvetime := min(6*spacing, thisTimestamp-previousTimestamp)
		previousTimestamp = thisTimestamp
		j++
		t += solvetime * j
		target := CompactToTarget(block.Bits())
		if i == height {
			previousDiff.Set(target)
		}
		sumTarget.Add(sumTarget, target.Div(target, divisor))
		if i > height-3 {
			solvetimeSum += solvetime
		}
	}
	next := new(uint256.Int).Mul(uint256.NewInt(uint64(t)), sumTarget) // nolint:gosec
	upper := scaleTarget(previousDiff, 150, 100)
	if next.Gt(upper) {
		next = upper
	}
	lower := scaleTarget(previousDiff, 67, 100)
	if lower.Gt(next) {
		next = lower
	}
	// This compares the last three solvetimes against 0.8 of a single
	// spacing. Changing it would fork the chain.
	if solvetimeSum < (8*spacing)/10 {
		next = scaleTarget(previousDiff, 100, 106)
	}
	return EncodeCompact(clampToLimit(next, params)), nil
}

// scaleTarget returns target * mul / div using wrapping 256-bit arithmetic
func scaleTarget(target *uint256.Int, mul uint64, div uint64) *uint256.Int {
	ret := new(uint256.Int).Mul(target, uint256.NewInt(mul))
	return ret.Div(ret, uint256.NewInt(div))
}
