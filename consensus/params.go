// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package consensus holds the per-network consensus parameter tables and
// the height/upgrade gating rules derived from them.
package consensus

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
)

// Params is the immutable consensus parameter table for a single network.
// A Params value is built once at startup and shared read-only by every
// caller, so nothing in this module mutates it after construction.
type Params struct {
	Network     string
	GenesisHash *chainhash.Hash

	// PowLimit is the ceiling: the easiest target a block may carry
	PowLimit                               uint256.Int
	PowAveragingWindow                     int64
	PowMaxAdjustDown                       int64
	PowMaxAdjustUp                         int64
	PowAllowMinDifficultyBlocksAfterHeight *int64
	PowNoRetargeting                       bool

	LegacyTargetSpacing int64
	// LWMAHeight is the height at which the legacy algorithm is retired
	LWMAHeight              int64
	LwmaTargetSpacing       int64
	LwmaAveragingWindow     int64
	LwmaAdjustedWeight      int64
	LwmaMinDenominator      int64
	LwmaSolvetimeLimitation bool

	PreBlossomPowTargetSpacing  int64
	PostBlossomPowTargetSpacing int64

	SubsidySlowStartInterval          int64
	PreBlossomSubsidyHalvingInterval  int64
	PostBlossomSubsidyHalvingInterval int64

	// EquihashPersonalizationCutover is the block time (unix seconds) from
	// which 144,5 solutions use the current personalization string
	EquihashPersonalizationCutover int64

	// FutureTimestampSoftForkHeight is the height from which a block time may
	// not run more than MaxFutureBlockTimeMTP ahead of the median time past
	FutureTimestampSoftForkHeight int64
	// MinimumChainWork is the least work the best chain should carry once it
	// has caught up with the network
	MinimumChainWork uint256.Int

	Upgrades [MaxNetworkUpgrades]NetworkUpgrade
}

// MaxFutureBlockTimeMTP is how far, in seconds, a block time may run ahead of
// the median time past of its parent once the future timestamp soft fork is
// active
const MaxFutureBlockTimeMTP = 90 * 60

// NetworkUpgrade describes a single entry of the upgrade activation table
type NetworkUpgrade struct {
	ProtocolVersion  uint32
	ActivationHeight int64
	// HashActivationBlock optionally pins the hash of the activation block
	HashActivationBlock *chainhash.Hash
}

// SpacingAt returns the target block spacing, in seconds, for the block at
// the given height
func (p *Params) SpacingAt(height int64) int64 {
	if p.NetworkUpgradeActive(height, UpgradeBlossom) {
		return p.PostBlossomPowTargetSpacing
	}
	if height >= p.LWMAHeight {
		return p.LwmaTargetSpacing
	}
	return p.LegacyTargetSpacing
}

func (p *Params) AveragingWindowTimespan(height int64) int64 {
	return p.PowAveragingWindow * p.SpacingAt(height)
}

func (p *Params) MinActualTimespan(height int64) int64 {
	return (p.AveragingWindowTimespan(height) * (100 - p.PowMaxAdjustUp)) / 100
}

func (p *Params) MaxActualTimespan(height int64) int64 {
	return (p.AveragingWindowTimespan(height) * (100 + p.PowMaxAdjustDown)) / 100
}

// Validate checks the table for misconfiguration that the difficulty code
// cannot guard against on its own, such as zero divisors and inverted
// activation heights. It is meant to run once when the table is loaded.
func (p *Params) Validate() error {
	var errs []error
	if p.PowLimit.IsZero() {
		errs = append(errs, errors.New("pow limit must be non-zero"))
	}
	if p.PowAveragingWindow <= 0 {
		errs = append(errs, errors.New("pow averaging window must be positive"))
	} else if !p.PowLimit.IsZero() {
		// The legacy average sums the window's targets before dividing
		maxUint := new(uint256.Int).SetAllOne()
		headroom := new(uint256.Int).Div(maxUint, &p.PowLimit)
		if headroom.Lt(uint256.NewInt(uint64(p.PowAveragingWindow))) {
			errs = append(errs, errors.New("pow limit too large for averaging window"))
		}
	}
	if p.PowMaxAdjustUp < 0 || p.PowMaxAdjustUp > 100 {
		errs = append(errs, fmt.Errorf("pow max adjust up out of range: %d", p.PowMaxAdjustUp))
	}
	if p.PowMaxAdjustDown < 0 {
		errs = append(errs, fmt.Errorf("pow max adjust down out of range: %d", p.PowMaxAdjustDown))
	}
	for name, spacing := range map[string]int64{
		"legacy":       p.LegacyTargetSpacing,
		"lwma":         p.LwmaTargetSpacing,
		"pre-blossom":  p.PreBlossomPowTargetSpacing,
		"post-blossom": p.PostBlossomPowTargetSpacing,
	} {
		if spacing <= 0 {
			errs = append(errs, fmt.Errorf("%s target spacing must be positive", name))
		}
	}
	if p.LwmaAveragingWindow <= 0 {
		errs = append(errs, errors.New("lwma averaging window must be positive"))
	}
	if p.LwmaAdjustedWeight <= 0 {
		errs = append(errs, errors.New("lwma adjusted weight must be positive"))
	}
	if p.LwmaMinDenominator <= 0 {
		errs = append(errs, errors.New("lwma min denominator must be positive"))
	}
	if p.PreBlossomSubsidyHalvingInterval <= 0 || p.PostBlossomSubsidyHalvingInterval <= 0 {
		errs = append(errs, errors.New("subsidy halving intervals must be positive"))
	}
	if p.Upgrades[BaseSprout].ActivationHeight != AlwaysActive {
		errs = append(errs, errors.New("base sprout must always be active"))
	}
	lastHeight := int64(AlwaysActive)
	for idx := BaseSprout; idx < MaxNetworkUpgrades; idx++ {
		height := p.Upgrades[idx].ActivationHeight
		if height == NoActivationHeight {
			continue
		}
		if height < lastHeight {
			errs = append(
				errs,
				fmt.Errorf(
					"activation height of %s (%d) precedes an earlier upgrade (%d)",
					idx,
					height,
					lastHeight,
				),
			)
			continue
		}
		lastHeight = height
	}
	return errors.Join(errs...)
}

// ParseTarget parses a big-endian hex string into a 256-bit target
func ParseTarget(hexStr string) (*uint256.Int, error) {
	buf, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}
	if len(buf) > 32 {
		return nil, fmt.Errorf("target too long: %d bytes", len(buf))
	}
	return new(uint256.Int).SetBytes(buf), nil
}

func mustParseTarget(hexStr string) uint256.Int {
	target, err := ParseTarget(hexStr)
	if err != nil {
		panic(err)
	}
	return *target
}

func mustParseHash(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}
