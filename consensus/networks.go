// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package consensus

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"
)

const (
	preBlossomPowTargetSpacing  = 150
	postBlossomPowTargetSpacing = 75
	// Ratio of pre- to post-Blossom spacing, used by the halving formulas
	blossomPowTargetSpacingRatio = preBlossomPowTargetSpacing / postBlossomPowTargetSpacing

	preBlossomHalvingInterval        = 840000
	preBlossomRegtestHalvingInterval = 150
)

func postBlossomHalvingInterval(preBlossomInterval int64) int64 {
	return preBlossomInterval * blossomPowTargetSpacingRatio
}

// NetworkParams returns a fresh copy of the named network's table
func NetworkParams(network string) (*Params, bool) {
	switch network {
	case NetworkMainnet:
		return MainnetParams(), true
	case NetworkTestnet:
		return TestnetParams(), true
	case NetworkRegtest:
		return RegtestParams(), true
	}
	return nil, false
}

func MainnetParams() *Params {
	return &Params{
		Network:                           NetworkMainnet,
		PowLimit:                          mustParseTarget("0007ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
		PowAveragingWindow:                13,
		PowMaxAdjustDown:                  34,
		PowMaxAdjustUp:                    34,
		LegacyTargetSpacing:               150,
		LWMAHeight:                        199900,
		LwmaTargetSpacing:                 60,
		LwmaAveragingWindow:               75,
		LwmaAdjustedWeight:                2280,
		LwmaMinDenominator:                10,
		LwmaSolvetimeLimitation:           true,
		PreBlossomPowTargetSpacing:        preBlossomPowTargetSpacing,
		PostBlossomPowTargetSpacing:       postBlossomPowTargetSpacing,
		SubsidySlowStartInterval:          2,
		PreBlossomSubsidyHalvingInterval:  preBlossomHalvingInterval,
		PostBlossomSubsidyHalvingInterval: postBlossomHalvingInterval(preBlossomHalvingInterval),
		// Saturday, March 23, 2019 8:00:00 PM GMT
		EquihashPersonalizationCutover: 1553371200,
		FutureTimestampSoftForkHeight:  2000000,
		MinimumChainWork:               mustParseTarget("00000000000000000000000000000000000000000000000000008d9b632e9eb5"),
		Upgrades: [MaxNetworkUpgrades]NetworkUpgrade{
			BaseSprout: {
				ProtocolVersion:  175007,
				ActivationHeight: AlwaysActive,
			},
			UpgradeTestDummy: {
				ProtocolVersion:  175007,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeOverwinter: {
				ProtocolVersion:     175015,
				ActivationHeight:    484000,
				HashActivationBlock: mustParseHash("00001be3b8c4d07bc927be3c2295e7840327b5975656683bfc34093540113dd9"),
			},
			UpgradeSapling: {
				ProtocolVersion:     175017,
				ActivationHeight:    484000,
				HashActivationBlock: mustParseHash("00001be3b8c4d07bc927be3c2295e7840327b5975656683bfc34093540113dd9"),
			},
			UpgradeBZShares: {
				ProtocolVersion:     175018,
				ActivationHeight:    883000,
				HashActivationBlock: mustParseHash("000012d151861912ceb0209c6cdd9374114d0fe0a136a9f0a62d4ce3401dd59b"),
			},
			UpgradeBlossom: {
				ProtocolVersion:  175019,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeHeartwood: {
				ProtocolVersion:  175021,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeCanopy: {
				ProtocolVersion:  175023,
				ActivationHeight: NoActivationHeight,
			},
		},
	}
}

func TestnetParams() *Params {
	minDifficultyAfter := int64(299187)
	return &Params{
		Network:                                NetworkTestnet,
		GenesisHash:                            mustParseHash("03104faa85339763e81d5489c23325b536161fa2b47437c2f6b1b75b48c0d848"),
		PowLimit:                               mustParseTarget("07ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
		PowAveragingWindow:                     13,
		PowMaxAdjustDown:                       34,
		PowMaxAdjustUp:                         34,
		PowAllowMinDifficultyBlocksAfterHeight: &minDifficultyAfter,
		LegacyTargetSpacing:                    150,
		LWMAHeight:                             20000,
		LwmaTargetSpacing:                      60,
		LwmaAveragingWindow:                    75,
		LwmaAdjustedWeight:                     2280,
		LwmaMinDenominator:                     10,
		LwmaSolvetimeLimitation:                true,
		PreBlossomPowTargetSpacing:             preBlossomPowTargetSpacing,
		PostBlossomPowTargetSpacing:            postBlossomPowTargetSpacing,
		SubsidySlowStartInterval:               2,
		PreBlossomSubsidyHalvingInterval:       preBlossomHalvingInterval,
		PostBlossomSubsidyHalvingInterval:      postBlossomHalvingInterval(preBlossomHalvingInterval),
		// Tuesday, February 19, 2019 3:00:00 PM GMT
		EquihashPersonalizationCutover: 1550588400,
		// Six blocks after Blossom, which never activates here
		FutureTimestampSoftForkHeight: NoActivationHeight + 6,
		Upgrades: [MaxNetworkUpgrades]NetworkUpgrade{
			BaseSprout: {
				ProtocolVersion:  170002,
				ActivationHeight: AlwaysActive,
			},
			UpgradeTestDummy: {
				ProtocolVersion:  175007,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeOverwinter: {
				ProtocolVersion:  175013,
				ActivationHeight: 200,
			},
			UpgradeSapling: {
				ProtocolVersion:  175017,
				ActivationHeight: 200,
			},
			UpgradeBZShares: {
				ProtocolVersion:  175018,
				ActivationHeight: 17500,
			},
			UpgradeBlossom: {
				ProtocolVersion:  175018,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeHeartwood: {
				ProtocolVersion:  175020,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeCanopy: {
				ProtocolVersion:  175022,
				ActivationHeight: NoActivationHeight,
			},
		},
	}
}

func RegtestParams() *Params {
	minDifficultyAfter := int64(0)
	return &Params{
		Network:                                NetworkRegtest,
		GenesisHash:                            mustParseHash("7ca88ae305f04699bfa1823ec37ebd6c5873a7a9951a77edaa80eeeb6f136ac8"),
		PowLimit:                               mustParseTarget("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f"),
		PowAveragingWindow:                     13,
		// Adjustment is turned off in both directions
		PowMaxAdjustDown:                       0,
		PowMaxAdjustUp:                         0,
		PowAllowMinDifficultyBlocksAfterHeight: &minDifficultyAfter,
		PowNoRetargeting:                       true,
		LegacyTargetSpacing:                    150,
		LWMAHeight:                             -1,
		LwmaTargetSpacing:                      60,
		LwmaAveragingWindow:                    75,
		LwmaAdjustedWeight:                     2280,
		LwmaMinDenominator:                     10,
		LwmaSolvetimeLimitation:                true,
		PreBlossomPowTargetSpacing:             preBlossomPowTargetSpacing,
		PostBlossomPowTargetSpacing:            postBlossomPowTargetSpacing,
		SubsidySlowStartInterval:               0,
		PreBlossomSubsidyHalvingInterval:       preBlossomRegtestHalvingInterval,
		PostBlossomSubsidyHalvingInterval:      postBlossomHalvingInterval(preBlossomRegtestHalvingInterval),
		// Tuesday, February 19, 2019 1:00:00 PM GMT
		EquihashPersonalizationCutover: 1550581200,
		FutureTimestampSoftForkHeight:  AlwaysActive,
		Upgrades: [MaxNetworkUpgrades]NetworkUpgrade{
			BaseSprout: {
				ProtocolVersion:  175007,
				ActivationHeight: AlwaysActive,
			},
			UpgradeTestDummy: {
				ProtocolVersion:  175007,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeOverwinter: {
				ProtocolVersion:  175013,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeSapling: {
				ProtocolVersion:  175016,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeBZShares: {
				ProtocolVersion:  175018,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeBlossom: {
				ProtocolVersion:  175018,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeHeartwood: {
				ProtocolVersion:  175020,
				ActivationHeight: NoActivationHeight,
			},
			UpgradeCanopy: {
				ProtocolVersion:  175022,
				ActivationHeight: NoActivationHeight,
			},
		},
	}
}
