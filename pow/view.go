// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
)

const medianTimeSpan = 11

var (
	ErrMissingAncestor     = errors.New("missing ancestor block")
	ErrInsufficientHistory = errors.New("not enough blocks for difficulty window")
)

// HeaderView is a read-only view of a block in a chain index. It is used so
// that the index can provide its own storage and lookup strategy when asking
// for the difficulty of the next block.
//
// Implementations must return an untyped nil from AncestorAt when the
// requested block is unavailable, and must return a stable view of the chain
// for the duration of a single difficulty or work calculation.
type HeaderView interface {
	// Height returns the block's height
	Height() int64

	// Time returns the block's header timestamp
	Time() int64

	// Bits returns the block's compact target
	Bits() uint32

	// MedianTimePast returns the median timestamp of the block and up to
	// 10 of its ancestors
	MedianTimePast() int64

	// AncestorAt returns the ancestor at the given height, the block
	// itself when height is its own height, or nil
	AncestorAt(height int64) HeaderView
}

// WorkView extends HeaderView with the cumulative chain work of the block
type WorkView interface {
	HeaderView

	// ChainWork returns the total work of the chain ending at this block
	ChainWork() *uint256.Int
}

// MedianTimePast computes the median timestamp over the block and its
// ancestors, using at most 11 blocks. Index implementations can use this to
// satisfy HeaderView.MedianTimePast.
func MedianTimePast(view HeaderView) int64 {
	timestamps := make([]int64, 0, medianTimeSpan)
	height := view.Height()
	for i := int64(0); i < medianTimeSpan && height-i >= 0; i++ {
		ancestor := view.AncestorAt(height - i)
		if ancestor == nil {
			break
		}
		timestamps = append(timestamps, ancestor.Time())
	}
	if len(timestamps) == 0 {
		return view.Time()
	}
	slices.Sort(timestamps)
	return timestamps[len(timestamps)/2]
}

func ancestorAt(view HeaderView, height int64) (HeaderView, error) {
	ancestor := view.AncestorAt(height)
	if ancestor == nil {
		return nil, fmt.Errorf("%w at height %d", ErrMissingAncestor, height)
	}
	return ancestor, nil
}
