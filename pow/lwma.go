// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"fmt"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/holiman/uint256"
)

// LWMA is the linearly weighted moving average retarget. Each of the last N
// solvetimes is weighted by its position in the window, newest heaviest.
type LWMA struct{}

func (LWMA) Name() string {
	return "lwma"
}

func (LWMA) Retarget(tip HeaderView, _ *BlockHeader, params *consensus.Params) (uint32, error) {
	if tip == nil {
		return powLimitCompact(params), nil
	}
	if params.PowNoRetargeting {
		return tip.Bits(), nil
	}
	height := tip.Height() + 1
	spacing := params.LwmaTargetSpacing
	n := params.LwmaAveragingWindow
	k := params.LwmaAdjustedWeight
	dnorm := params.LwmaMinDenominator
	if height <= n {
		return 0, fmt.Errorf(
			"%w: lwma needs %d blocks before height %d",
			ErrInsufficientHistory,
			n+1,
			height,
		)
	}
	sumTarget := new(uint256.Int)
	// nolint:gosec // window sizes are positive
	windowSize := uint256.NewInt(uint64(n))
	var t, j int64
	// The block before the window anchors the first solvetime
	prev, err := ancestorAt(tip, height-n-1)
	if err != nil {
		return 0, err
	}
	for i := height - n; i < height; i++ {
		block, err := ancestorAt(tip, i)
		if err != nil {
			return 0, err
		}
		solvetime := block.Time() - prev.Time()
		if params.LwmaSolvetimeLimitation && solvetime > 6*spacing {
			solvetime = 6 * spacing
		}
		j++
		// Accumulated in 64 bits, so unclamped solvetimes cannot wrap
		t += solvetime * j
		// Divide each target early to keep the sum in range
		target := CompactToTarget(block.Bits())
		sumTarget.Add(sumTarget, target.Div(target, windowSize))
		prev = block
	}
	// nolint:gosec // k and N are positive
	sumTarget.Div(sumTarget, uint256.NewInt(uint64(k*n)))
	if dnorm > 0 && t < n*k/dnorm {
		t = n * k / dnorm
	}
	next := new(uint256.Int).Mul(uint256.NewInt(uint64(t)), sumTarget) // nolint:gosec
	return EncodeCompact(clampToLimit(next, params)), nil
}
