// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// Size of the header fields covered by the Equihash input
	EquihashInputSize = 4 + 32 + 32 + 32 + 4 + 4
	NonceSize         = 32
	// Largest solution we accept while decoding, well above the 1344 byte
	// 200,9 solution
	MaxSolutionSize = 1 << 12
	// Largest encoded header, with a 3 byte solution length prefix
	MaxHeaderSize = EquihashInputSize + NonceSize + 3 + MaxSolutionSize
)

// BlockHeader is an Equihash block header
type BlockHeader struct {
	Version          int32
	PrevBlock        chainhash.Hash
	MerkleRoot       chainhash.Hash
	FinalSaplingRoot chainhash.Hash
	Time             uint32
	Bits             uint32
	Nonce            [NonceSize]byte
	Solution         []byte
}

// headerFields is the fixed-size part of the header, in wire order
type headerFields struct {
	Version          int32
	PrevBlock        [32]byte
	MerkleRoot       [32]byte
	FinalSaplingRoot [32]byte
	Time             uint32
	Bits             uint32
	Nonce            [NonceSize]byte
}

func NewBlockHeaderFromReader(r io.Reader) (*BlockHeader, error) {
	var h BlockHeader
	if err := h.Decode(r); err != nil {
		return nil, err
	}
	return &h, nil
}

func NewBlockHeaderFromBytes(data []byte) (*BlockHeader, error) {
	r := bytes.NewReader(data)
	h, err := NewBlockHeaderFromReader(r)
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%d trailing bytes after block header", r.Len())
	}
	return h, nil
}

func (h *BlockHeader) Decode(r io.Reader) error {
	var fields headerFields
	if err := binary.Read(r, binary.LittleEndian, &fields); err != nil {
		return err
	}
	solutionLen, err := readCompactSize(r)
	if err != nil {
		return err
	}
	if solutionLen > MaxSolutionSize {
		return fmt.Errorf("solution too large: %d bytes", solutionLen)
	}
	solution := make([]byte, solutionLen)
	if _, err := io.ReadFull(r, solution); err != nil {
		return err
	}
	h.Version = fields.Version
	h.PrevBlock = fields.PrevBlock
	h.MerkleRoot = fields.MerkleRoot
	h.FinalSaplingRoot = fields.FinalSaplingRoot
	h.Time = fields.Time
	h.Bits = fields.Bits
	h.Nonce = fields.Nonce
	h.Solution = solution
	return nil
}

// Encode returns the full header serialization, including nonce and solution
func (h *BlockHeader) Encode() []byte {
	buf := bytes.NewBuffer(h.EquihashInput())
	buf.Write(h.Nonce[:])
	buf.Write(writeCompactSize(uint64(len(h.Solution))))
	buf.Write(h.Solution)
	return buf.Bytes()
}

// EquihashInput returns the serialized header fields that seed the Equihash
// hash state, which excludes both the nonce and the solution
func (h *BlockHeader) EquihashInput() []byte {
	ret := make([]byte, 0, EquihashInputSize+NonceSize)
	ret = binary.LittleEndian.AppendUint32(ret, uint32(h.Version)) // nolint:gosec
	ret = append(ret, h.PrevBlock[:]...)
	ret = append(ret, h.MerkleRoot[:]...)
	ret = append(ret, h.FinalSaplingRoot[:]...)
	ret = binary.LittleEndian.AppendUint32(ret, h.Time)
	ret = binary.LittleEndian.AppendUint32(ret, h.Bits)
	return ret
}

// Hash returns the double SHA-256 of the full header serialization
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Encode())
}

func readCompactSize(r io.Reader) (uint64, error) {
	prefix := make([]byte, 1)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return 0, err
	}
	var ret, minVal uint64
	switch prefix[0] {
	case 0xff:
		data := make([]byte, 8)
		if _, err := io.ReadFull(r, data); err != nil {
			return 0, err
		}
		ret = binary.LittleEndian.Uint64(data)
		minVal = math.MaxUint32 + 1
	case 0xfe:
		data := make([]byte, 4)
		if _, err := io.ReadFull(r, data); err != nil {
			return 0, err
		}
		ret = uint64(binary.LittleEndian.Uint32(data))
		minVal = math.MaxUint16 + 1
	case 0xfd:
		data := make([]byte, 2)
		if _, err := io.ReadFull(r, data); err != nil {
			return 0, err
		}
		ret = uint64(binary.LittleEndian.Uint16(data))
		minVal = 0xfd
	default:
		return uint64(prefix[0]), nil
	}
	if ret < minVal {
		return 0, errors.New("non-canonical compact size")
	}
	return ret, nil
}

func writeCompactSize(val uint64) []byte {
	var ret []byte
	switch {
	case val < 0xfd:
		ret = []byte{uint8(val)}
	case val <= math.MaxUint16:
		ret = make([]byte, 3)
		ret[0] = 0xfd // nolint:gosec // false positive for slice index out of bounds
		binary.LittleEndian.PutUint16(ret[1:], uint16(val))
	case val <= math.MaxUint32:
		ret = make([]byte, 5)
		ret[0] = 0xfe // nolint:gosec // false positive for slice index out of bounds
		binary.LittleEndian.PutUint32(ret[1:], uint32(val))
	default:
		ret = make([]byte, 9)
		ret[0] = 0xff // nolint:gosec // false positive for slice index out of bounds
		binary.LittleEndian.PutUint64(ret[1:], val)
	}
	return ret
}
