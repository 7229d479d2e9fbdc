// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package consensus

import "fmt"

func (p *Params) SubsidySlowStartShift() int64 {
	return p.SubsidySlowStartInterval / 2
}

func (p *Params) blossomSpacingRatio() int64 {
	return p.PreBlossomPowTargetSpacing / p.PostBlossomPowTargetSpacing
}

// Halving returns the index of the halving epoch containing height (ZIP 208)
func (p *Params) Halving(height int64) int64 {
	if p.NetworkUpgradeActive(height, UpgradeBlossom) {
		blossomHeight := p.Upgrades[UpgradeBlossom].ActivationHeight
		// Scaled by the post-Blossom interval so the pre-Blossom part stays integral
		scaledHalvings := (blossomHeight-p.SubsidySlowStartShift())*p.blossomSpacingRatio() +
			(height - blossomHeight)
		return scaledHalvings / p.PostBlossomSubsidyHalvingInterval
	}
	return (height - p.SubsidySlowStartShift()) / p.PreBlossomSubsidyHalvingInterval
}

// HalvingHeight returns the height of the halvingIndex'th halving as known at
// the given height
func (p *Params) HalvingHeight(height int64, halvingIndex int64) (int64, error) {
	if height < 0 {
		return 0, fmt.Errorf("invalid height: %d", height)
	}
	if halvingIndex <= 0 {
		return 0, fmt.Errorf("invalid halving index: %d", halvingIndex)
	}
	if p.NetworkUpgradeActive(height, UpgradeBlossom) {
		blossomHeight := p.Upgrades[UpgradeBlossom].ActivationHeight
		return p.PostBlossomSubsidyHalvingInterval*halvingIndex -
			p.blossomSpacingRatio()*(blossomHeight-p.SubsidySlowStartShift()) +
			blossomHeight, nil
	}
	return p.PreBlossomSubsidyHalvingInterval*halvingIndex + p.SubsidySlowStartShift(), nil
}
