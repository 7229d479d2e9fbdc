// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package consensus_test

import (
	"testing"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestActiveUpgradeMainnet(t *testing.T) {
	params := consensus.MainnetParams()
	testDefs := []struct {
		height   int64
		expected consensus.UpgradeIndex
	}{
		{height: 0, expected: consensus.BaseSprout},
		{height: 483999, expected: consensus.BaseSprout},
		// Overwinter and Sapling share an activation height, the later index wins
		{height: 484000, expected: consensus.UpgradeSapling},
		{height: 882999, expected: consensus.UpgradeSapling},
		{height: 883000, expected: consensus.UpgradeBZShares},
		{height: 50000000, expected: consensus.UpgradeBZShares},
	}
	for _, testDef := range testDefs {
		got := params.ActiveUpgrade(testDef.height)
		if got != testDef.expected {
			t.Fatalf(
				"ActiveUpgrade(%d): got %s, want %s",
				testDef.height,
				got,
				testDef.expected,
			)
		}
	}
}

func TestActiveUpgradeInvertedHeights(t *testing.T) {
	params := consensus.RegtestParams()
	params.Upgrades[consensus.UpgradeOverwinter].ActivationHeight = 500
	params.Upgrades[consensus.UpgradeSapling].ActivationHeight = 100
	testDefs := []struct {
		height   int64
		expected consensus.UpgradeIndex
	}{
		{height: 50, expected: consensus.BaseSprout},
		{height: 200, expected: consensus.UpgradeSapling},
		{height: 600, expected: consensus.UpgradeSapling},
	}
	for _, testDef := range testDefs {
		got := params.ActiveUpgrade(testDef.height)
		if got != testDef.expected {
			t.Fatalf(
				"ActiveUpgrade(%d): got %s, want %s",
				testDef.height,
				got,
				testDef.expected,
			)
		}
	}
	if err := params.Validate(); err == nil {
		t.Fatalf("expected validation error for inverted activation heights")
	}
}

func TestUpgradeStateSentinels(t *testing.T) {
	params := consensus.MainnetParams()
	if state := params.UpgradeState(0, consensus.BaseSprout); state != consensus.UpgradeActive {
		t.Fatalf("expected sprout to be active at genesis, got %d", state)
	}
	if state := params.UpgradeState(100000000, consensus.UpgradeBlossom); state != consensus.UpgradeDisabled {
		t.Fatalf("expected blossom to be disabled, got %d", state)
	}
	if state := params.UpgradeState(1000, consensus.UpgradeSapling); state != consensus.UpgradePending {
		t.Fatalf("expected sapling to be pending, got %d", state)
	}
}

func TestUpgradeStateOutOfRangePanics(t *testing.T) {
	params := consensus.MainnetParams()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for out of range upgrade index")
		}
	}()
	params.UpgradeState(0, consensus.MaxNetworkUpgrades)
}

func TestSpacingAt(t *testing.T) {
	params := consensus.MainnetParams()
	if spacing := params.SpacingAt(199899); spacing != 150 {
		t.Fatalf("expected legacy spacing of 150, got %d", spacing)
	}
	if spacing := params.SpacingAt(199900); spacing != 60 {
		t.Fatalf("expected LWMA spacing of 60, got %d", spacing)
	}
	params.Upgrades[consensus.UpgradeBlossom].ActivationHeight = 1000000
	if spacing := params.SpacingAt(1000000); spacing != 75 {
		t.Fatalf("expected post-Blossom spacing of 75, got %d", spacing)
	}
}

func TestActualTimespanBounds(t *testing.T) {
	params := consensus.MainnetParams()
	if timespan := params.AveragingWindowTimespan(100); timespan != 1950 {
		t.Fatalf("unexpected averaging window timespan: %d", timespan)
	}
	if timespan := params.MinActualTimespan(100); timespan != 1287 {
		t.Fatalf("unexpected min actual timespan: %d", timespan)
	}
	if timespan := params.MaxActualTimespan(100); timespan != 2613 {
		t.Fatalf("unexpected max actual timespan: %d", timespan)
	}
}

func TestFeatureActive(t *testing.T) {
	params := consensus.MainnetParams()
	testDefs := []struct {
		height   int64
		feature  consensus.Feature
		expected bool
	}{
		{height: 483999, feature: consensus.FeatureLWMA3, expected: false},
		{height: 484000, feature: consensus.FeatureLWMA3, expected: true},
		{height: 484000, feature: consensus.FeatureOverwinterTx, expected: true},
		{height: 484000, feature: consensus.FeatureShares, expected: false},
		{height: 883000, feature: consensus.FeatureShares, expected: true},
		{height: 883000, feature: consensus.FeatureBlossomSpacing, expected: false},
		{height: 883000, feature: consensus.Feature(99), expected: false},
	}
	for _, testDef := range testDefs {
		got := params.FeatureActive(testDef.height, testDef.feature)
		if got != testDef.expected {
			t.Fatalf(
				"FeatureActive(%d, %d): got %v, want %v",
				testDef.height,
				testDef.feature,
				got,
				testDef.expected,
			)
		}
	}
}

func TestFeatureActiveSkippedUpgrade(t *testing.T) {
	params := consensus.RegtestParams()
	params.Upgrades[consensus.UpgradeBlossom].ActivationHeight = 100
	if err := params.Validate(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if params.ActiveUpgrade(150) != consensus.UpgradeBlossom {
		t.Fatalf("expected blossom to be the active upgrade")
	}
	// Sapling never activates, so its features stay off
	if params.FeatureActive(150, consensus.FeatureLWMA3) {
		t.Fatalf("did not expect LWMA-3 without sapling")
	}
	if params.FeatureActive(150, consensus.FeatureSaplingTx) {
		t.Fatalf("did not expect sapling transactions without sapling")
	}
	if !params.FeatureActive(150, consensus.FeatureBlossomSpacing) {
		t.Fatalf("expected blossom spacing")
	}
	if params.FeatureActive(99, consensus.FeatureBlossomSpacing) {
		t.Fatalf("did not expect blossom spacing before activation")
	}
}

func TestFutureTimestampSoftForkActive(t *testing.T) {
	testDefs := []struct {
		params   *consensus.Params
		height   int64
		expected bool
	}{
		{params: consensus.MainnetParams(), height: 1999999, expected: false},
		{params: consensus.MainnetParams(), height: 2000000, expected: true},
		{params: consensus.TestnetParams(), height: 4, expected: false},
		{params: consensus.TestnetParams(), height: 5, expected: true},
		{params: consensus.RegtestParams(), height: 0, expected: true},
	}
	for _, testDef := range testDefs {
		got := testDef.params.FutureTimestampSoftForkActive(testDef.height)
		if got != testDef.expected {
			t.Fatalf(
				"%s FutureTimestampSoftForkActive(%d): got %v, want %v",
				testDef.params.Network,
				testDef.height,
				got,
				testDef.expected,
			)
		}
	}
}

func TestCheckActivationBlock(t *testing.T) {
	params := consensus.MainnetParams()
	goodHash, _ := chainhash.NewHashFromStr(
		"00001be3b8c4d07bc927be3c2295e7840327b5975656683bfc34093540113dd9",
	)
	if err := params.CheckActivationBlock(484000, *goodHash); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	badHash := chainhash.DoubleHashH([]byte("not the activation block"))
	if err := params.CheckActivationBlock(484000, badHash); err == nil {
		t.Fatalf("expected error for mismatched activation block")
	}
	if err := params.CheckActivationBlock(484001, badHash); err != nil {
		t.Fatalf("unexpected error away from activation height: %s", err)
	}
}

func TestNextActivationHeight(t *testing.T) {
	params := consensus.MainnetParams()
	height, ok := params.NextActivationHeight(0)
	if !ok || height != 484000 {
		t.Fatalf("unexpected next activation: %d, %v", height, ok)
	}
	height, ok = params.NextActivationHeight(500000)
	if !ok || height != 883000 {
		t.Fatalf("unexpected next activation: %d, %v", height, ok)
	}
	if _, ok := params.NextActivationHeight(900000); ok {
		t.Fatalf("did not expect a pending activation")
	}
}

func TestUpgradeIndexFromString(t *testing.T) {
	idx, err := consensus.UpgradeIndexFromString("sapling")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if idx != consensus.UpgradeSapling {
		t.Fatalf("got %s, want sapling", idx)
	}
	if _, err := consensus.UpgradeIndexFromString("nu5"); err == nil {
		t.Fatalf("expected error for unknown upgrade")
	}
}
