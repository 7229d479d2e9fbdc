// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBlockWork(t *testing.T) {
	tests := map[string]struct {
		bits     uint32
		expected uint64
	}{
		"mainnet ceiling":  {bits: 0x1f07ffff, expected: 8192},
		"bitcoin genesis":  {bits: 0x1d00ffff, expected: 4295032833},
		"zero target":      {bits: 0x00000000, expected: 0},
		"negative target":  {bits: 0x04923456, expected: 0},
		"overflow target":  {bits: 0xff123456, expected: 0},
		"smallest target":  {bits: 0x01010000, expected: 0},
		"largest exponent": {bits: 0x2000ffff, expected: 256},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			work := pow.BlockWork(tt.bits)
			if tt.bits == 0x01010000 {
				// Target 1 is 2^255 work
				require.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(1), 255), work)
				return
			}
			require.True(t, work.IsUint64())
			require.Equal(t, tt.expected, work.Uint64())
		})
	}
}

func TestBlockWorkMonotonic(t *testing.T) {
	// Targets in increasing order
	bits := []uint32{
		0x01010000,
		0x03123456,
		0x1d00ffff,
		0x1e09f1e2,
		0x1e0a3b2c,
		0x1e0b0000,
		0x1f07ffff,
		0x200f0f0f,
	}
	for i := 1; i < len(bits); i++ {
		require.True(t, pow.CompactToTarget(bits[i]).Gt(pow.CompactToTarget(bits[i-1])))
		prev := pow.BlockWork(bits[i-1])
		cur := pow.BlockWork(bits[i])
		require.False(t, cur.Gt(prev), "work increased from 0x%08x to 0x%08x", bits[i-1], bits[i])
	}
}

func TestCumulativeWork(t *testing.T) {
	bits := []uint32{0x1f07ffff, 0x1f07ffff, 0x1e0a3b2c, 0x00000000, 0x1d00ffff}
	works := pow.CumulativeWork(bits)
	require.Len(t, works, len(bits))
	require.Equal(t, uint64(8192), works[0].Uint64())
	require.Equal(t, uint64(16384), works[1].Uint64())
	for i := 1; i < len(works); i++ {
		if pow.BlockWork(bits[i]).IsZero() {
			// A block with no work keeps the total unchanged
			require.True(t, works[i].Eq(works[i-1]))
			continue
		}
		require.True(t, works[i].Gt(works[i-1]))
	}
	require.Empty(t, pow.CumulativeWork(nil))
	total := pow.AddWork(works[3], bits[4])
	require.True(t, total.Eq(works[4]))
}

func TestWorkEquivalentTime(t *testing.T) {
	params := consensus.MainnetParams()
	chain := newTestChain(0, 21, 1500000000, 150, ceilingBits)
	from := chain.at(0)
	to := chain.at(10)
	tip := chain.tip()
	// Ten blocks of work at the tip's difficulty take ten spacings
	require.Equal(t, int64(1500), pow.WorkEquivalentTime(to, from, tip, params))
	require.Equal(t, int64(-1500), pow.WorkEquivalentTime(from, to, tip, params))
	require.Equal(t, int64(0), pow.WorkEquivalentTime(to, to, tip, params))
}

func TestWorkEquivalentTimeSaturates(t *testing.T) {
	params := consensus.MainnetParams()
	huge := fakeWork{work: new(uint256.Int).Lsh(uint256.NewInt(1), 200)}
	none := fakeWork{work: new(uint256.Int)}
	tip := fakeWork{height: 10, bits: 0x1f07ffff, work: uint256.NewInt(8192)}
	require.Equal(t, int64(math.MaxInt64), pow.WorkEquivalentTime(huge, none, tip, params))
	require.Equal(t, int64(-math.MaxInt64), pow.WorkEquivalentTime(none, huge, tip, params))
	// A tip without work cannot be used as a yardstick
	zeroTip := fakeWork{height: 10, bits: 0, work: new(uint256.Int)}
	small := fakeWork{work: uint256.NewInt(1)}
	require.Equal(t, int64(math.MaxInt64), pow.WorkEquivalentTime(small, none, zeroTip, params))
	require.Equal(t, int64(0), pow.WorkEquivalentTime(none, none, zeroTip, params))
}
