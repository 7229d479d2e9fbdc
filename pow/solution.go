// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/powcore/consensus"
)

const (
	PersonalizationDefault = "ZcashPoW"
	PersonalizationLegacy  = "BitcoinZ"
	PersonalizationCurrent = "BZEZhash"
)

var (
	ErrUnsupportedSolutionSize = errors.New("unsupported solution size")
	ErrInvalidSolution         = errors.New("invalid equihash solution")
)

type solutionParams struct {
	n uint32
	k uint32
}

// Equihash parameters by solution length in bytes
var solutionSizes = map[int]solutionParams{
	1344: {n: 200, k: 9},
	400:  {n: 192, k: 7},
	100:  {n: 144, k: 5},
	68:   {n: 96, k: 5},
	36:   {n: 48, k: 5},
}

// SolutionVerifier checks an Equihash solution. The hash state is
// personalized with the given string, then fed the header input followed by
// the nonce.
type SolutionVerifier interface {
	IsValidSolution(n, k uint32, personalization string, input []byte, nonce []byte, solution []byte) bool
}

// VerifierFunc adapts a function to the SolutionVerifier interface
type VerifierFunc func(n, k uint32, personalization string, input []byte, nonce []byte, solution []byte) bool

func (f VerifierFunc) IsValidSolution(n, k uint32, personalization string, input []byte, nonce []byte, solution []byte) bool {
	return f(n, k, personalization, input, nonce, solution)
}

// SolutionParams returns the Equihash (n, k) parameters for a solution of
// the given length
func SolutionParams(solutionLen int) (uint32, uint32, error) {
	params, ok := solutionSizes[solutionLen]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrUnsupportedSolutionSize, solutionLen)
	}
	return params.n, params.k, nil
}

// Personalization returns the BLAKE2b personalization string for the given
// Equihash parameters and header time
func Personalization(n, k uint32, headerTime int64, params *consensus.Params) string {
	if n == 144 && k == 5 {
		if headerTime < params.EquihashPersonalizationCutover {
			return PersonalizationLegacy
		}
		return PersonalizationCurrent
	}
	return PersonalizationDefault
}

// CheckSolution checks the header's Equihash solution with the verifier
func CheckSolution(header *BlockHeader, params *consensus.Params, verifier SolutionVerifier) error {
	n, k, err := SolutionParams(len(header.Solution))
	if err != nil {
		return err
	}
	pers := Personalization(n, k, int64(header.Time), params)
	if !verifier.IsValidSolution(
		n,
		k,
		pers,
		header.EquihashInput(),
		header.Nonce[:],
		header.Solution,
	) {
		return fmt.Errorf(
			"%w: n=%d k=%d personalization=%s",
			ErrInvalidSolution,
			n,
			k,
			pers,
		)
	}
	return nil
}
