// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package indexer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
)

var (
	ErrDuplicateHeader    = errors.New("duplicate header")
	ErrOrphanHeader       = errors.New("orphan header")
	ErrBadGenesis         = errors.New("unexpected genesis header")
	ErrBadDiffBits        = errors.New("incorrect difficulty bits")
	ErrBadActivationBlock = errors.New("bad network upgrade activation block")
	ErrTimeTooFarAhead    = errors.New("block time too far ahead of median time past")
)

// Indexer validates block headers and connects them to the header index,
// following the chain with the most cumulative work
type Indexer struct {
	mu        sync.RWMutex
	state     *state.State
	params    *consensus.Params
	verifier  pow.SolutionVerifier
	verify    bool
	batchSize int
	workers   int
}

type IndexerOptionFunc func(*Indexer)

// WithVerifier sets the Equihash solution verifier. Solutions are not checked
// without one.
func WithVerifier(verifier pow.SolutionVerifier) IndexerOptionFunc {
	return func(i *Indexer) {
		i.verifier = verifier
	}
}

// WithVerify toggles the proof of work hash check
func WithVerify(verify bool) IndexerOptionFunc {
	return func(i *Indexer) {
		i.verify = verify
	}
}

// WithBatchSize sets the number of headers read and pre-checked together
// during an import
func WithBatchSize(batchSize int) IndexerOptionFunc {
	return func(i *Indexer) {
		i.batchSize = batchSize
	}
}

// WithWorkers sets the number of parallel pre-check workers
func WithWorkers(workers int) IndexerOptionFunc {
	return func(i *Indexer) {
		i.workers = workers
	}
}

// Singleton indexer instance
var globalIndexer = &Indexer{}

func New(
	st *state.State,
	params *consensus.Params,
	opts ...IndexerOptionFunc,
) *Indexer {
	i := &Indexer{
		verify:    true,
		batchSize: 2000,
	}
	i.setup(st, params, opts...)
	return i
}

func (i *Indexer) setup(
	st *state.State,
	params *consensus.Params,
	opts ...IndexerOptionFunc,
) {
	initPrometheusMetrics()
	i.state = st
	i.params = params
	for _, opt := range opts {
		opt(i)
	}
	if i.batchSize <= 0 {
		i.batchSize = 1
	}
	if i.workers <= 0 {
		i.workers = runtime.GOMAXPROCS(0)
	}
}

// Start sets up the global indexer from the global config and state
func (i *Indexer) Start(opts ...IndexerOptionFunc) error {
	cfg := config.GetConfig()
	logger := logging.GetLogger()
	params, err := cfg.ConsensusParams()
	if err != nil {
		return err
	}
	opts = append(
		[]IndexerOptionFunc{
			WithVerify(cfg.Indexer.Verify),
			WithBatchSize(cfg.Indexer.BatchSize),
			WithWorkers(cfg.Indexer.Workers),
		},
		opts...,
	)
	i.setup(state.GetState(), params, opts...)
	registerCacheMetrics(i.state)
	tip, err := i.state.Tip()
	if err != nil {
		return err
	}
	if tip == nil {
		logger.Infof("starting indexer on %s with an empty header index", params.Network)
		return nil
	}
	logger.Infof(
		"starting indexer on %s at height %d (%s)",
		params.Network,
		tip.Height(),
		tip.Hash,
	)
	i.updateTipMetrics(tip)
	return nil
}

func (i *Indexer) Params() *consensus.Params {
	return i.params
}

// AcceptHeader validates a header against its parent and stores it. The best
// chain moves to the new header when it carries more cumulative work than the
// current tip.
func (i *Indexer) AcceptHeader(header *pow.BlockHeader) (*state.Entry, error) {
	return i.acceptHeader(header, false)
}

func (i *Indexer) acceptHeader(header *pow.BlockHeader, prechecked bool) (*state.Entry, error) {
	start := time.Now()
	i.mu.Lock()
	defer i.mu.Unlock()
	entry, err := i.connectHeader(header, prechecked)
	if err != nil {
		prometheusHeadersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	prometheusHeadersAccepted.Inc()
	prometheusAcceptDuration.Observe(time.Since(start).Seconds())
	return entry, nil
}

func (i *Indexer) connectHeader(header *pow.BlockHeader, prechecked bool) (*state.Entry, error) {
	logger := logging.GetLogger()
	hash := header.Hash()
	exists, err := i.state.HasEntry(hash)
	if err != nil {
		return nil, err
	}
	if exists {
		// A stored header can outweigh the tip when an earlier tip update
		// failed after the entry was written
		entry, err := i.state.GetEntry(hash)
		if err != nil {
			return nil, err
		}
		moved, err := i.selectTip(entry)
		if err != nil {
			return nil, err
		}
		if moved {
			logger.Infof("recovered best chain tip %s at height %d", hash, entry.Height())
			return entry, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicateHeader, hash)
	}
	// Find the parent
	var parent *state.Entry
	height := int64(0)
	if header.PrevBlock == (chainhash.Hash{}) {
		if i.params.GenesisHash != nil && !i.params.GenesisHash.IsEqual(&hash) {
			return nil, fmt.Errorf("%w: %s", ErrBadGenesis, hash)
		}
	} else {
		parent, err = i.state.GetEntry(header.PrevBlock)
		if err != nil {
			if errors.Is(err, state.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s (parent %s)", ErrOrphanHeader, hash, header.PrevBlock)
			}
			return nil, err
		}
		height = parent.Height() + 1
	}
	// Check difficulty bits against the required target
	var tipView pow.HeaderView
	if parent != nil {
		tipView = parent
	}
	expected, err := pow.NextTarget(tipView, header, i.params)
	if err != nil {
		return nil, fmt.Errorf("header %s at height %d: %w", hash, height, err)
	}
	if header.Bits != expected {
		return nil, fmt.Errorf(
			"%w: header %s at height %d has %08x, expected %08x",
			ErrBadDiffBits,
			hash,
			height,
			header.Bits,
			expected,
		)
	}
	if parent != nil && i.params.FutureTimestampSoftForkActive(height) {
		maxTime := pow.MedianTimePast(parent) + consensus.MaxFutureBlockTimeMTP
		if int64(header.Time) > maxTime {
			return nil, fmt.Errorf(
				"%w: header %s at height %d has time %d, limit %d",
				ErrTimeTooFarAhead,
				hash,
				height,
				header.Time,
				maxTime,
			)
		}
	}
	if !prechecked {
		if err := i.checkProof(header, hash); err != nil {
			return nil, err
		}
	}
	if err := i.params.CheckActivationBlock(height, hash); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadActivationBlock, err)
	}
	// Store the entry and move the tip if it has more work
	var parentWork *uint256.Int
	if parent != nil {
		parentWork = parent.ChainWork()
	}
	entry, err := i.state.AddEntry(header, height, pow.AddWork(parentWork, header.Bits))
	if err != nil {
		return nil, err
	}
	moved, err := i.selectTip(entry)
	if err != nil {
		return nil, err
	}
	if !moved {
		logger.Debugf("stored side chain header %s at height %d", hash, height)
	}
	return entry, nil
}

// selectTip moves the best chain to entry when it carries more work than the
// current tip
func (i *Indexer) selectTip(entry *state.Entry) (bool, error) {
	logger := logging.GetLogger()
	tip, err := i.state.Tip()
	if err != nil {
		return false, err
	}
	if tip != nil && !entry.ChainWork().Gt(tip.ChainWork()) {
		return false, nil
	}
	wasSyncing := i.initialSync(tip)
	disconnected, err := i.state.SetTip(entry)
	if err != nil {
		return false, err
	}
	if disconnected > 0 {
		logger.Infof(
			"reorganized best chain: disconnected %d blocks, new tip %s at height %d",
			disconnected,
			entry.Hash,
			entry.Height(),
		)
		prometheusReorgs.Inc()
		prometheusReorgDepth.Observe(float64(disconnected))
	}
	if wasSyncing && !i.initialSync(entry) {
		logger.Infof(
			"best chain reached the minimum chain work at height %d",
			entry.Height(),
		)
	}
	i.updateTipMetrics(entry)
	return true, nil
}

// initialSync reports whether tip carries less work than the network minimum
func (i *Indexer) initialSync(tip *state.Entry) bool {
	if tip == nil {
		return true
	}
	return tip.ChainWork().Lt(&i.params.MinimumChainWork)
}

// checkProof runs the checks that only need the header itself
func (i *Indexer) checkProof(header *pow.BlockHeader, hash chainhash.Hash) error {
	if i.verify {
		if err := pow.ValidateProofOfWork(hash, header.Bits, &i.params.PowLimit); err != nil {
			return fmt.Errorf("header %s: %w", hash, err)
		}
	}
	if i.verifier != nil {
		if err := pow.CheckSolution(header, i.params, i.verifier); err != nil {
			return fmt.Errorf("header %s: %w", hash, err)
		}
	}
	return nil
}

func (i *Indexer) updateTipMetrics(tip *state.Entry) {
	prometheusTipHeight.Set(float64(tip.Height()))
	prometheusTipDifficulty.Set(pow.Difficulty(tip.Bits(), i.params))
	if i.initialSync(tip) {
		prometheusInitialSync.Set(1)
	} else {
		prometheusInitialSync.Set(0)
	}
}

// Tip returns the best chain tip, or nil for an empty index
func (i *Indexer) Tip() (*state.Entry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state.Tip()
}

// InitialSync reports whether the best chain is still below the network's
// minimum chain work. An empty index is always syncing.
func (i *Indexer) InitialSync() (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	tip, err := i.state.Tip()
	if err != nil {
		return false, err
	}
	return i.initialSync(tip), nil
}

// NextTarget returns the compact target required of a block extending the
// best chain. The candidate header is optional and only consulted by the
// minimum difficulty rule.
func (i *Indexer) NextTarget(candidate *pow.BlockHeader) (uint32, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	tip, err := i.state.Tip()
	if err != nil {
		return 0, err
	}
	if tip == nil {
		return pow.NextTarget(nil, candidate, i.params)
	}
	return pow.NextTarget(tip, candidate, i.params)
}

// WorkEquivalentTime returns how long, at the best chain's current
// difficulty, it takes to produce the work between two stored headers
func (i *Indexer) WorkEquivalentTime(toHash, fromHash chainhash.Hash) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	to, err := i.state.GetEntry(toHash)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", toHash, err)
	}
	from, err := i.state.GetEntry(fromHash)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", fromHash, err)
	}
	tip, err := i.state.Tip()
	if err != nil {
		return 0, err
	}
	if tip == nil {
		return 0, errors.New("header index is empty")
	}
	return pow.WorkEquivalentTime(to, from, tip, i.params), nil
}

// GetIndexer returns the global indexer instance
func GetIndexer() *Indexer {
	return globalIndexer
}
