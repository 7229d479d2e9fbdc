// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dgraph-io/badger/v4"
	"github.com/holiman/uint256"
)

const (
	headerKeyPrefix = "header_"
	heightKeyPrefix = "height_"
	tipKey          = "tip"
)

var ErrNotFound = errors.New("entry not found")

// State is the persistent header index. Every accepted header is stored by
// hash, and the best chain is tracked with a height index and a tip pointer.
type State struct {
	db    *badger.DB
	cache *entryCache
}

var globalState = &State{}

func (s *State) Load() error {
	cfg := config.GetConfig()
	return s.open(cfg.State.Directory, cfg.State.CacheSize)
}

// Open creates a standalone state. An empty directory keeps everything in
// memory.
func Open(dir string, cacheSize int) (*State, error) {
	s := &State{}
	if err := s.open(dir, cacheSize); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) open(dir string, cacheSize int) error {
	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	cache, err := newEntryCache(cacheSize)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create entry cache: %w", err)
	}
	s.db = db
	s.cache = cache
	return nil
}

func (s *State) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.cache.close(); err != nil {
		return err
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *State) CacheStats() bigcache.Stats {
	return s.cache.stats()
}

func headerKey(hash chainhash.Hash) []byte {
	return append([]byte(headerKeyPrefix), hash[:]...)
}

func heightKey(height int64) []byte {
	ret := make([]byte, len(heightKeyPrefix)+8)
	copy(ret, heightKeyPrefix)
	binary.BigEndian.PutUint64(ret[len(heightKeyPrefix):], uint64(height)) // nolint:gosec
	return ret
}

func (s *State) decodeEntry(data []byte) (*Entry, error) {
	entry := &Entry{state: s}
	if err := entry.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return entry, nil
}

// getValue returns a copy of the value for a key, or ErrNotFound
func (s *State) getValue(key []byte) ([]byte, error) {
	var ret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ret, nil
}

func (s *State) GetEntry(hash chainhash.Hash) (*Entry, error) {
	if data, ok := s.cache.get(hash); ok {
		return s.decodeEntry(data)
	}
	data, err := s.getValue(headerKey(hash))
	if err != nil {
		return nil, err
	}
	if err := s.cache.set(hash, data); err != nil {
		logging.GetLogger().Debugf("failed to cache entry %s: %s", hash, err)
	}
	return s.decodeEntry(data)
}

func (s *State) HasEntry(hash chainhash.Hash) (bool, error) {
	if _, ok := s.cache.get(hash); ok {
		return true, nil
	}
	_, err := s.getValue(headerKey(hash))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *State) hashAtHeight(height int64) (chainhash.Hash, error) {
	var ret chainhash.Hash
	data, err := s.getValue(heightKey(height))
	if err != nil {
		return ret, err
	}
	copy(ret[:], data)
	return ret, nil
}

// EntryAtHeight returns the best chain entry at the given height
func (s *State) EntryAtHeight(height int64) (*Entry, error) {
	hash, err := s.hashAtHeight(height)
	if err != nil {
		return nil, err
	}
	return s.GetEntry(hash)
}

// Tip returns the best chain tip, or nil if no headers have been connected
func (s *State) Tip() (*Entry, error) {
	data, err := s.getValue([]byte(tipKey))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var hash chainhash.Hash
	copy(hash[:], data)
	return s.GetEntry(hash)
}

// AddEntry stores a header with its height and cumulative work. It does not
// change the best chain.
func (s *State) AddEntry(
	header *pow.BlockHeader,
	height int64,
	work *uint256.Int,
) (*Entry, error) {
	entry := &Entry{
		Hash:        header.Hash(),
		Header:      header,
		BlockHeight: height,
		Work:        work,
		state:       s,
	}
	data, err := entry.MarshalBinary()
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(headerKey(entry.Hash), data)
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.set(entry.Hash, data); err != nil {
		logging.GetLogger().Debugf("failed to cache entry %s: %s", entry.Hash, err)
	}
	return entry, nil
}

// onMainChain reports whether the entry is the best chain block at its height
func (s *State) onMainChain(e *Entry) (bool, error) {
	mainHash, err := s.hashAtHeight(e.BlockHeight)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return mainHash == e.Hash, nil
}

// Ancestor returns the ancestor of the entry at the given height. It follows
// previous block links until it reaches the best chain and then uses the
// height index. A nil entry is returned when the ancestor is not stored.
func (s *State) Ancestor(e *Entry, height int64) (*Entry, error) {
	if height < 0 || height > e.BlockHeight {
		return nil, nil
	}
	cur := e
	for cur.BlockHeight > height {
		onMain, err := s.onMainChain(cur)
		if err != nil {
			return nil, err
		}
		if onMain {
			ret, err := s.EntryAtHeight(height)
			if errors.Is(err, ErrNotFound) {
				return nil, nil
			}
			return ret, err
		}
		prev, err := s.GetEntry(cur.Header.PrevBlock)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		cur = prev
	}
	return cur, nil
}

// SetTip makes the entry the best chain tip, rewriting the height index from
// the fork point. It returns the number of blocks disconnected from the
// previous best chain.
func (s *State) SetTip(tip *Entry) (int64, error) {
	// Collect the new branch back to the fork point
	var branch []*Entry
	cur := tip
	for {
		onMain, err := s.onMainChain(cur)
		if err != nil {
			return 0, err
		}
		if onMain {
			break
		}
		branch = append(branch, cur)
		if cur.BlockHeight == 0 {
			break
		}
		prev, err := s.GetEntry(cur.Header.PrevBlock)
		if err != nil {
			return 0, fmt.Errorf("load parent of %s: %w", cur.Hash, err)
		}
		cur = prev
	}
	oldTip, err := s.Tip()
	if err != nil {
		return 0, err
	}
	oldHeight := int64(-1)
	if oldTip != nil {
		oldHeight = oldTip.BlockHeight
	}
	forkHeight := tip.BlockHeight - int64(len(branch))
	disconnected := max(oldHeight-forkHeight, 0)
	err = s.db.Update(func(txn *badger.Txn) error {
		for h := tip.BlockHeight + 1; h <= oldHeight; h++ {
			if err := txn.Delete(heightKey(h)); err != nil {
				return err
			}
		}
		for _, entry := range branch {
			if err := txn.Set(heightKey(entry.BlockHeight), entry.Hash[:]); err != nil {
				return err
			}
		}
		return txn.Set([]byte(tipKey), tip.Hash[:])
	})
	if err != nil {
		return 0, fmt.Errorf("update best chain: %w", err)
	}
	return disconnected, nil
}

func GetState() *State {
	return globalState
}

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	*logging.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{
		Logger: logging.GetLogger(),
	}
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.Logger.Warnf(msg, args...)
}
