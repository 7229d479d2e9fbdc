// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package consensus_test

import (
	"testing"

	"github.com/blinklabs-io/powcore/consensus"
)

func TestHalvingPreBlossom(t *testing.T) {
	params := consensus.MainnetParams()
	halvingHeight, err := params.HalvingHeight(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Slow start shift of 1 block
	if halvingHeight != 840001 {
		t.Fatalf("unexpected first halving height: %d", halvingHeight)
	}
	if halving := params.Halving(halvingHeight - 1); halving != 0 {
		t.Fatalf("expected halving 0 before first halving, got %d", halving)
	}
	if halving := params.Halving(halvingHeight); halving != 1 {
		t.Fatalf("expected halving 1 at first halving, got %d", halving)
	}
}

func TestHalvingPostBlossom(t *testing.T) {
	params := consensus.RegtestParams()
	params.SubsidySlowStartInterval = 0
	params.PreBlossomSubsidyHalvingInterval = 1000
	params.PostBlossomSubsidyHalvingInterval = 2000
	params.Upgrades[consensus.UpgradeBlossom].ActivationHeight = 1000
	testDefs := []struct {
		halvingIndex int64
		expected     int64
	}{
		{halvingIndex: 1, expected: 1000},
		{halvingIndex: 2, expected: 3000},
		{halvingIndex: 3, expected: 5000},
	}
	for _, testDef := range testDefs {
		got, err := params.HalvingHeight(1500, testDef.halvingIndex)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got != testDef.expected {
			t.Fatalf(
				"HalvingHeight(1500, %d): got %d, want %d",
				testDef.halvingIndex,
				got,
				testDef.expected,
			)
		}
		if halving := params.Halving(got - 1); halving != testDef.halvingIndex-1 {
			t.Fatalf("Halving(%d): got %d, want %d", got-1, halving, testDef.halvingIndex-1)
		}
		if halving := params.Halving(got); halving != testDef.halvingIndex {
			t.Fatalf("Halving(%d): got %d, want %d", got, halving, testDef.halvingIndex)
		}
	}
}

func TestHalvingHeightRejectsBadInput(t *testing.T) {
	params := consensus.MainnetParams()
	if _, err := params.HalvingHeight(-1, 1); err == nil {
		t.Fatalf("expected error for negative height")
	}
	if _, err := params.HalvingHeight(0, 0); err == nil {
		t.Fatalf("expected error for zero halving index")
	}
}
