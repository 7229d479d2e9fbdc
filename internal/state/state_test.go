// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state_test

import (
	"testing"

	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

const (
	testBits      = 0x1f07ffff
	testStartTime = 1_560_000_000
)

func openTestState(t *testing.T, dir string) *state.State {
	t.Helper()
	s, err := state.Open(dir, 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// extendChain adds count headers on top of parent, or a new chain starting at
// genesis when parent is nil. The nonce tag keeps branches apart.
func extendChain(t *testing.T, s *state.State, parent *state.Entry, count int, tag byte) []*state.Entry {
	t.Helper()
	var ret []*state.Entry
	for range count {
		header := &pow.BlockHeader{
			Version:  4,
			Time:     testStartTime,
			Bits:     testBits,
			Solution: make([]byte, 1344),
		}
		height := int64(0)
		if parent != nil {
			header.PrevBlock = parent.Hash
			header.Time = parent.Header.Time + 150
			height = parent.BlockHeight + 1
		}
		header.Nonce[0] = tag
		work := pow.AddWork(nil, testBits)
		if parent != nil {
			work = pow.AddWork(parent.Work, testBits)
		}
		entry, err := s.AddEntry(header, height, work)
		require.NoError(t, err)
		ret = append(ret, entry)
		parent = entry
	}
	return ret
}

func connect(t *testing.T, s *state.State, entries []*state.Entry) {
	t.Helper()
	for _, entry := range entries {
		_, err := s.SetTip(entry)
		require.NoError(t, err)
	}
}

func TestAddGetEntry(t *testing.T) {
	s := openTestState(t, "")
	entries := extendChain(t, s, nil, 3, 0)

	got, err := s.GetEntry(entries[2].Hash)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Height())
	require.Equal(t, entries[2].Header.Encode(), got.Header.Encode())
	require.Equal(t, entries[2].Work, got.ChainWork())
	require.Equal(t, entries[1].Hash, got.Header.PrevBlock)

	ok, err := s.HasEntry(entries[0].Hash)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.GetEntry(chainhash.Hash{0x01})
	require.ErrorIs(t, err, state.ErrNotFound)
	ok, err = s.HasEntry(chainhash.Hash{0x01})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmptyTip(t *testing.T) {
	s := openTestState(t, "")
	tip, err := s.Tip()
	require.NoError(t, err)
	require.Nil(t, tip)
	_, err = s.EntryAtHeight(0)
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestMainChain(t *testing.T) {
	s := openTestState(t, "")
	entries := extendChain(t, s, nil, 20, 0)
	connect(t, s, entries)

	tip, err := s.Tip()
	require.NoError(t, err)
	require.Equal(t, entries[19].Hash, tip.Hash)

	for i, entry := range entries {
		got, err := s.EntryAtHeight(int64(i))
		require.NoError(t, err)
		require.Equal(t, entry.Hash, got.Hash)

		ancestor, err := s.Ancestor(tip, int64(i))
		require.NoError(t, err)
		require.Equal(t, entry.Hash, ancestor.Hash)
	}

	ancestor, err := s.Ancestor(tip, 20)
	require.NoError(t, err)
	require.Nil(t, ancestor)
	require.Nil(t, tip.AncestorAt(-1))

	// Median of the last 11 timestamps, spaced 150 seconds apart
	require.Equal(t, int64(testStartTime+14*150), tip.MedianTimePast())
}

func TestReorg(t *testing.T) {
	s := openTestState(t, "")
	mainChain := extendChain(t, s, nil, 10, 0)
	connect(t, s, mainChain)

	// Fork after height 5 with a longer branch
	side := extendChain(t, s, mainChain[5], 6, 1)
	for _, entry := range side[:len(side)-1] {
		ancestor, err := s.Ancestor(entry, 5)
		require.NoError(t, err)
		require.Equal(t, mainChain[5].Hash, ancestor.Hash)
	}
	sideTip := side[len(side)-1]
	require.Equal(t, int64(11), sideTip.Height())

	disconnected, err := s.SetTip(sideTip)
	require.NoError(t, err)
	require.Equal(t, int64(4), disconnected)

	for height := int64(6); height <= 11; height++ {
		got, err := s.EntryAtHeight(height)
		require.NoError(t, err)
		require.Equal(t, side[height-6].Hash, got.Hash)
	}
	got, err := s.EntryAtHeight(5)
	require.NoError(t, err)
	require.Equal(t, mainChain[5].Hash, got.Hash)

	// The old branch still resolves its own ancestors
	oldTip := mainChain[9]
	ancestor, err := s.Ancestor(oldTip, 7)
	require.NoError(t, err)
	require.Equal(t, mainChain[7].Hash, ancestor.Hash)
	ancestor, err = s.Ancestor(oldTip, 2)
	require.NoError(t, err)
	require.Equal(t, mainChain[2].Hash, ancestor.Hash)

	// Switch back to the shorter branch
	disconnected, err = s.SetTip(oldTip)
	require.NoError(t, err)
	require.Equal(t, int64(6), disconnected)
	_, err = s.EntryAtHeight(10)
	require.ErrorIs(t, err, state.ErrNotFound)
	got, err = s.EntryAtHeight(9)
	require.NoError(t, err)
	require.Equal(t, oldTip.Hash, got.Hash)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := state.Open(dir, 8)
	require.NoError(t, err)
	entries := extendChain(t, s, nil, 5, 0)
	connect(t, s, entries)
	require.NoError(t, s.Close())

	s = openTestState(t, dir)
	tip, err := s.Tip()
	require.NoError(t, err)
	require.NotNil(t, tip)
	require.Equal(t, entries[4].Hash, tip.Hash)
	require.Equal(t, entries[4].Work, tip.ChainWork())
	ancestor := tip.AncestorAt(1)
	require.NotNil(t, ancestor)
	require.Equal(t, int64(1), ancestor.Height())
}

func TestEntryBinary(t *testing.T) {
	s := openTestState(t, "")
	entry := extendChain(t, s, nil, 1, 7)[0]
	data, err := entry.MarshalBinary()
	require.NoError(t, err)

	var decoded state.Entry
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, entry.Hash, decoded.Hash)
	require.Equal(t, entry.BlockHeight, decoded.BlockHeight)
	require.Equal(t, entry.Work, decoded.Work)

	require.Error(t, decoded.UnmarshalBinary(data[:10]))
	_, err = (&state.Entry{}).MarshalBinary()
	require.Error(t, err)
}
