// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package consensus

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type UpgradeIndex int

// Upgrades are totally ordered by this enumeration
const (
	BaseSprout UpgradeIndex = iota
	UpgradeTestDummy
	UpgradeOverwinter
	UpgradeSapling
	UpgradeBZShares
	UpgradeBlossom
	UpgradeHeartwood
	UpgradeCanopy
	MaxNetworkUpgrades
)

const (
	// AlwaysActive marks an upgrade active from genesis
	AlwaysActive int64 = 0
	// NoActivationHeight marks an upgrade that never activates
	NoActivationHeight int64 = -1
)

var upgradeNames = [MaxNetworkUpgrades]string{
	"sprout",
	"testdummy",
	"overwinter",
	"sapling",
	"bzshares",
	"blossom",
	"heartwood",
	"canopy",
}

func (u UpgradeIndex) String() string {
	if u < BaseSprout || u >= MaxNetworkUpgrades {
		return fmt.Sprintf("upgrade(%d)", int(u))
	}
	return upgradeNames[u]
}

// UpgradeIndexFromString looks up an upgrade by its lower-case name
func UpgradeIndexFromString(name string) (UpgradeIndex, error) {
	for idx, tmpName := range upgradeNames {
		if tmpName == name {
			return UpgradeIndex(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown network upgrade: %s", name)
}

type UpgradeState int

const (
	UpgradeDisabled UpgradeState = iota
	UpgradePending
	UpgradeActive
)

// UpgradeState returns the state of the upgrade at the given height. An index
// outside of the enumeration is a programming error and panics.
func (p *Params) UpgradeState(height int64, idx UpgradeIndex) UpgradeState {
	if idx < BaseSprout || idx >= MaxNetworkUpgrades {
		panic(fmt.Sprintf("network upgrade index out of range: %d", int(idx)))
	}
	activationHeight := p.Upgrades[idx].ActivationHeight
	if activationHeight == NoActivationHeight {
		return UpgradeDisabled
	}
	if height >= activationHeight {
		return UpgradeActive
	}
	return UpgradePending
}

func (p *Params) NetworkUpgradeActive(height int64, idx UpgradeIndex) bool {
	return p.UpgradeState(height, idx) == UpgradeActive
}

func (p *Params) FutureTimestampSoftForkActive(height int64) bool {
	return height >= p.FutureTimestampSoftForkHeight
}

// ActiveUpgrade returns the most recent upgrade active at the given height.
// The table is scanned in enumeration order and the last active entry wins,
// so out-of-order activation heights never cause a failure.
func (p *Params) ActiveUpgrade(height int64) UpgradeIndex {
	ret := BaseSprout
	for idx := BaseSprout; idx < MaxNetworkUpgrades; idx++ {
		if p.NetworkUpgradeActive(height, idx) {
			ret = idx
		}
	}
	return ret
}

// IsActivationHeight reports whether height is exactly the activation height
// of the given upgrade
func (p *Params) IsActivationHeight(height int64, idx UpgradeIndex) bool {
	if idx < BaseSprout || idx >= MaxNetworkUpgrades {
		panic(fmt.Sprintf("network upgrade index out of range: %d", int(idx)))
	}
	// Sprout is never an activation in this sense
	if idx == BaseSprout {
		return false
	}
	return height >= 0 && p.Upgrades[idx].ActivationHeight == height
}

// NextActivationHeight returns the nearest activation height strictly above
// the given height, if any upgrade is still pending
func (p *Params) NextActivationHeight(height int64) (int64, bool) {
	for idx := BaseSprout + 1; idx < MaxNetworkUpgrades; idx++ {
		if p.UpgradeState(height, idx) == UpgradePending {
			return p.Upgrades[idx].ActivationHeight, true
		}
	}
	return 0, false
}

// CheckActivationBlock verifies that a block at an activation height matches
// the pinned activation hash of every upgrade activating there
func (p *Params) CheckActivationBlock(height int64, hash chainhash.Hash) error {
	for idx := BaseSprout + 1; idx < MaxNetworkUpgrades; idx++ {
		upgrade := p.Upgrades[idx]
		if upgrade.HashActivationBlock == nil || !p.IsActivationHeight(height, idx) {
			continue
		}
		if !upgrade.HashActivationBlock.IsEqual(&hash) {
			return fmt.Errorf(
				"block %s at height %d does not match %s activation block %s",
				hash,
				height,
				idx,
				upgrade.HashActivationBlock,
			)
		}
	}
	return nil
}

type Feature int

const (
	FeatureOverwinterTx Feature = iota
	FeatureSaplingTx
	FeatureLWMA3
	FeatureShares
	FeatureBlossomSpacing
	FeatureShieldedCoinbase
	FeatureFundingStreams
)

// featureUpgrades maps each consensus feature to the upgrade that enables it
var featureUpgrades = map[Feature]UpgradeIndex{
	FeatureOverwinterTx:     UpgradeOverwinter,
	FeatureSaplingTx:        UpgradeSapling,
	FeatureLWMA3:            UpgradeSapling,
	FeatureShares:           UpgradeBZShares,
	FeatureBlossomSpacing:   UpgradeBlossom,
	FeatureShieldedCoinbase: UpgradeHeartwood,
	FeatureFundingStreams:   UpgradeCanopy,
}

// FeatureActive reports whether the upgrade required by feature is active at
// the given height. Unknown features are never active. A disabled upgrade
// keeps its features off even when a later upgrade is active.
func (p *Params) FeatureActive(height int64, feature Feature) bool {
	idx, ok := featureUpgrades[feature]
	if !ok {
		return false
	}
	return p.NetworkUpgradeActive(height, idx)
}
