// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"math"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/holiman/uint256"
)

// BlockWork returns the expected number of hashes needed to produce a block
// with the given compact target, 2^256 / (target+1). Invalid targets have no
// work.
func BlockWork(bits uint32) *uint256.Int {
	target, negative, overflow := DecodeCompact(bits)
	if negative || overflow || target.IsZero() {
		return new(uint256.Int)
	}
	// 2^256 does not fit, but 2^256 / (target+1) is equal to
	// (2^256 - target - 1) / (target+1) + 1, and 2^256 - target - 1 is ~target
	denominator := new(uint256.Int).AddUint64(target, 1)
	work := new(uint256.Int).Not(target)
	work.Div(work, denominator)
	return work.AddUint64(work, 1)
}

// AddWork returns the chain work of a block with the given compact target on
// top of a parent with the given chain work
func AddWork(parentWork *uint256.Int, bits uint32) *uint256.Int {
	ret := BlockWork(bits)
	if parentWork != nil {
		ret.Add(ret, parentWork)
	}
	return ret
}

// CumulativeWork returns the running chain work for each block of a chain
// starting at genesis, given the blocks' compact targets in order
func CumulativeWork(bits []uint32) []*uint256.Int {
	ret := make([]*uint256.Int, 0, len(bits))
	var parentWork *uint256.Int
	for _, blockBits := range bits {
		parentWork = AddWork(parentWork, blockBits)
		ret = append(ret, parentWork)
	}
	return ret
}

// WorkEquivalentTime returns the time, in seconds at the tip's difficulty,
// needed to produce the chain work difference between to and from. The result
// is negative when from has more work than to, and saturates at
// math.MaxInt64 in either direction.
func WorkEquivalentTime(to WorkView, from WorkView, tip WorkView, params *consensus.Params) int64 {
	var sign int64 = 1
	toWork := to.ChainWork()
	fromWork := from.ChainWork()
	diff := new(uint256.Int)
	if toWork.Gt(fromWork) {
		diff.Sub(toWork, fromWork)
	} else {
		diff.Sub(fromWork, toWork)
		sign = -1
	}
	tipWork := BlockWork(tip.Bits())
	if tipWork.IsZero() {
		if diff.IsZero() {
			return 0
		}
		return sign * math.MaxInt64
	}
	// nolint:gosec // spacing is positive
	diff.Mul(diff, uint256.NewInt(uint64(params.SpacingAt(tip.Height()))))
	diff.Div(diff, tipWork)
	if diff.BitLen() > 63 {
		return sign * math.MaxInt64
	}
	return sign * int64(diff.Uint64()) // nolint:gosec
}
