// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"slices"

	"github.com/blinklabs-io/powcore/consensus"
)

type Profile struct {
	Network           string           // Network name
	ActivationHeights map[string]int64 // Regtest upgrade activation heights
	NoRetargeting     *bool            // Regtest retargeting switch
	LWMAHeight        *int64           // Regtest legacy to LWMA switch height
}

// applyDefaults fills in any network settings that were not configured
// explicitly
func (p Profile) applyDefaults(network *NetworkConfig) {
	for name, height := range p.ActivationHeights {
		if _, ok := network.ActivationHeights[name]; ok {
			continue
		}
		if network.ActivationHeights == nil {
			network.ActivationHeights = map[string]int64{}
		}
		network.ActivationHeights[name] = height
	}
	if network.NoRetargeting == nil && p.NoRetargeting != nil {
		network.NoRetargeting = p.NoRetargeting
	}
	if network.LWMAHeight == nil && p.LWMAHeight != nil {
		network.LWMAHeight = p.LWMAHeight
	}
}

func GetAvailableProfiles() []string {
	ret := make([]string, 0, len(Profiles))
	for k := range Profiles {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

func ptr[T any](v T) *T {
	return &v
}

var Profiles = map[string]Profile{
	"mainnet": {
		Network: consensus.NetworkMainnet,
	},
	"testnet": {
		Network: consensus.NetworkTestnet,
	},
	"regtest": {
		Network: consensus.NetworkRegtest,
	},
	// Regtest with difficulty adjustment enabled, switching to LWMA as soon
	// as there is a full window of history
	"regtest-lwma": {
		Network:       consensus.NetworkRegtest,
		NoRetargeting: ptr(false),
		LWMAHeight:    ptr(int64(76)),
	},
	// Same as regtest-lwma, switching to LWMA-3 at Sapling
	"regtest-lwma3": {
		Network:       consensus.NetworkRegtest,
		NoRetargeting: ptr(false),
		LWMAHeight:    ptr(int64(76)),
		ActivationHeights: map[string]int64{
			"overwinter": 200,
			"sapling":    200,
		},
	},
}
