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

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
)

var (
	ErrBadTarget = errors.New("target out of range")
	ErrHighHash  = errors.New("block hash exceeds target")
)

// CheckTarget reports whether the compact target is usable: not negative,
// not zero, not overflowed and not easier than the ceiling
func CheckTarget(bits uint32, ceiling *uint256.Int) bool {
	target, negative, overflow := DecodeCompact(bits)
	if negative || overflow || target.IsZero() || target.Gt(ceiling) {
		return false
	}
	return true
}

// CheckProofOfWork reports whether the hash satisfies the compact target
func CheckProofOfWork(hash chainhash.Hash, bits uint32, ceiling *uint256.Int) bool {
	return ValidateProofOfWork(hash, bits, ceiling) == nil
}

// ValidateProofOfWork is like CheckProofOfWork, but returns an error
// describing the failure
func ValidateProofOfWork(hash chainhash.Hash, bits uint32, ceiling *uint256.Int) error {
	if !CheckTarget(bits, ceiling) {
		return fmt.Errorf("%w: bits 0x%08x", ErrBadTarget, bits)
	}
	if HashToTarget(hash).Gt(CompactToTarget(bits)) {
		return fmt.Errorf(
			"%w: block hash %s, bits 0x%08x",
			ErrHighHash,
			hash.String(),
			bits,
		)
	}
	return nil
}

// HashToTarget interprets a block hash as a 256-bit number. Hashes are stored
// in little-endian byte order.
func HashToTarget(hash chainhash.Hash) *uint256.Int {
	buf := hash.CloneBytes()
	slices.Reverse(buf)
	return new(uint256.Int).SetBytes32(buf)
}

// TargetToHash is the inverse of HashToTarget
func TargetToHash(target *uint256.Int) chainhash.Hash {
	buf := target.Bytes32()
	slices.Reverse(buf[:])
	return chainhash.Hash(buf)
}
