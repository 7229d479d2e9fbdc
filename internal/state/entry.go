// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
)

const entryPrefixSize = 8 + 32

// Entry is a stored block header with its position and cumulative work. It
// satisfies pow.WorkView, resolving ancestors through the state it was loaded
// from.
type Entry struct {
	Hash        chainhash.Hash
	Header      *pow.BlockHeader
	BlockHeight int64
	Work        *uint256.Int

	state *State
}

func (e *Entry) Height() int64 {
	return e.BlockHeight
}

func (e *Entry) Time() int64 {
	return int64(e.Header.Time)
}

func (e *Entry) Bits() uint32 {
	return e.Header.Bits
}

func (e *Entry) MedianTimePast() int64 {
	return pow.MedianTimePast(e)
}

func (e *Entry) ChainWork() *uint256.Int {
	return e.Work
}

// AncestorAt returns the ancestor of the entry at the given height, or nil if
// it is not available
func (e *Entry) AncestorAt(height int64) pow.HeaderView {
	if e.state == nil {
		if height == e.BlockHeight {
			return e
		}
		return nil
	}
	ancestor, err := e.state.Ancestor(e, height)
	if err != nil || ancestor == nil {
		return nil
	}
	return ancestor
}

// MarshalBinary encodes the entry as its height, chain work and header
func (e *Entry) MarshalBinary() ([]byte, error) {
	if e.Header == nil || e.Work == nil {
		return nil, errors.New("incomplete entry")
	}
	headerBytes := e.Header.Encode()
	ret := make([]byte, entryPrefixSize, entryPrefixSize+len(headerBytes))
	binary.BigEndian.PutUint64(ret[0:8], uint64(e.BlockHeight)) // nolint:gosec
	work := e.Work.Bytes32()
	copy(ret[8:40], work[:])
	ret = append(ret, headerBytes...)
	return ret, nil
}

func (e *Entry) UnmarshalBinary(data []byte) error {
	if len(data) < entryPrefixSize {
		return fmt.Errorf("entry too short: %d bytes", len(data))
	}
	header, err := pow.NewBlockHeaderFromBytes(data[entryPrefixSize:])
	if err != nil {
		return fmt.Errorf("decode entry header: %w", err)
	}
	e.BlockHeight = int64(binary.BigEndian.Uint64(data[0:8])) // nolint:gosec
	e.Work = new(uint256.Int).SetBytes32(data[8:40])
	e.Header = header
	e.Hash = header.Hash()
	return nil
}
