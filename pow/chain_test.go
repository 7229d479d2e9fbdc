// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow_test

import (
	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
)

// Bits used by the generated test chains, cycled by block
var testBitsCycle = []uint32{0x1e0a3b2c, 0x1e0b0000, 0x1e09f1e2, 0x1e0c4d5e}

type testBlock struct {
	time int64
	bits uint32
	work *uint256.Int
}

// testChain is a slice-backed chain index starting at an arbitrary height
type testChain struct {
	base   int64
	blocks []testBlock
}

// newTestChain generates count blocks starting at height base. Block times
// advance by spacing with a deterministic jitter of -40 to +56 seconds.
func newTestChain(base int64, count int, startTime int64, spacing int64, bitsCycle []uint32) *testChain {
	c := &testChain{base: base}
	var parentWork *uint256.Int
	for i := range count {
		height := base + int64(i)
		bits := bitsCycle[i%len(bitsCycle)]
		parentWork = pow.AddWork(parentWork, bits)
		c.blocks = append(
			c.blocks,
			testBlock{
				time: startTime + int64(i)*spacing + ((height * 7919) % 97) - 40,
				bits: bits,
				work: parentWork,
			},
		)
	}
	return c
}

func (c *testChain) tip() *testView {
	return c.at(c.base + int64(len(c.blocks)) - 1)
}

func (c *testChain) at(height int64) *testView {
	return &testView{chain: c, height: height}
}

type testView struct {
	chain  *testChain
	height int64
}

func (v *testView) block() testBlock {
	return v.chain.blocks[v.height-v.chain.base]
}

func (v *testView) Height() int64 {
	return v.height
}

func (v *testView) Time() int64 {
	return v.block().time
}

func (v *testView) Bits() uint32 {
	return v.block().bits
}

func (v *testView) MedianTimePast() int64 {
	return pow.MedianTimePast(v)
}

func (v *testView) AncestorAt(height int64) pow.HeaderView {
	if height < v.chain.base || height > v.height {
		return nil
	}
	return v.chain.at(height)
}

func (v *testView) ChainWork() *uint256.Int {
	return v.block().work
}

// fakeWork is a WorkView with explicit values
type fakeWork struct {
	height int64
	bits   uint32
	work   *uint256.Int
}

func (f fakeWork) Height() int64 { return f.height }
func (f fakeWork) Time() int64 { return 0 }
func (f fakeWork) Bits() uint32 { return f.bits }
func (f fakeWork) MedianTimePast() int64 { return 0 }
func (f fakeWork) AncestorAt(height int64) pow.HeaderView { return nil }
func (f fakeWork) ChainWork() *uint256.Int { return f.work }
