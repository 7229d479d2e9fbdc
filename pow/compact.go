// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"github.com/holiman/uint256"
)

const (
	compactSignBit      = 0x00800000
	compactMantissaMask = 0x007fffff
)

// DecodeCompact converts a compact (nBits) value to a 256-bit target. The
// first byte is the exponent, the next 3 bytes are the mantissa, with the
// high bit of the mantissa acting as a sign bit.
// Target = mantissa * 256^(exp-3).
//
// Every 32-bit input decodes. Encodings that would be negative or that do not
// fit in 256 bits are reported through the negative and overflow flags, and
// callers must treat such targets as invalid.
func DecodeCompact(bits uint32) (target *uint256.Int, negative bool, overflow bool) {
	exp := bits >> 24
	mantissa := bits & compactMantissaMask
	if exp <= 3 {
		mantissa >>= 8 * (3 - exp)
		target = uint256.NewInt(uint64(mantissa))
	} else {
		target = uint256.NewInt(uint64(mantissa))
		target.Lsh(target, uint(8*(exp-3)))
	}
	negative = mantissa != 0 && bits&compactSignBit != 0
	overflow = mantissa != 0 &&
		(exp > 34 ||
			(mantissa > 0xff && exp > 33) ||
			(mantissa > 0xffff && exp > 32))
	return target, negative, overflow
}

// EncodeCompact converts a 256-bit target to its compact representation. The
// result uses the smallest exponent that can hold the value and never has the
// sign bit set.
func EncodeCompact(target *uint256.Int) uint32 {
	size := uint32((target.BitLen() + 7) / 8)
	var compact uint32
	if size <= 3 {
		// nolint:gosec // value fits in 24 bits here
		compact = uint32(target.Uint64() << (8 * (3 - size)))
	} else {
		tmp := new(uint256.Int).Rsh(target, uint(8*(size-3)))
		// nolint:gosec // value fits in 24 bits after the shift
		compact = uint32(tmp.Uint64())
	}
	// The mantissa would read as negative, so move a byte into the exponent
	if compact&compactSignBit != 0 {
		compact >>= 8
		size++
	}
	compact |= size << 24
	return compact
}

// CompactToTarget converts a compact value to a target, ignoring the sign and
// overflow flags
func CompactToTarget(bits uint32) *uint256.Int {
	target, _, _ := DecodeCompact(bits)
	return target
}
