// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	entryCacheLifeWindow = 30 * time.Minute
	entryCacheShards     = 64
	defaultCacheSizeMB   = 64
	// Typical encoded entry, with a 200,9 solution
	typicalEntrySize = entryPrefixSize + pow.EquihashInputSize + pow.NonceSize + 3 + 1344
)

// entryCache keeps encoded entries in memory to avoid badger reads while
// walking difficulty windows
type entryCache struct {
	cache *bigcache.BigCache
}

func newEntryCache(sizeMB int) (*entryCache, error) {
	if sizeMB <= 0 {
		sizeMB = defaultCacheSizeMB
	}
	cacheConfig := bigcache.DefaultConfig(entryCacheLifeWindow)
	cacheConfig.Shards = entryCacheShards
	cacheConfig.MaxEntrySize = typicalEntrySize
	cacheConfig.MaxEntriesInWindow = sizeMB << 20 / typicalEntrySize
	cacheConfig.HardMaxCacheSize = sizeMB
	cacheConfig.Verbose = false
	cache, err := bigcache.New(context.Background(), cacheConfig)
	if err != nil {
		return nil, err
	}
	return &entryCache{cache: cache}, nil
}

func (c *entryCache) get(hash chainhash.Hash) ([]byte, bool) {
	data, err := c.cache.Get(string(hash[:]))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *entryCache) set(hash chainhash.Hash, data []byte) error {
	return c.cache.Set(string(hash[:]), data)
}

func (c *entryCache) stats() bigcache.Stats {
	return c.cache.Stats()
}

func (c *entryCache) close() error {
	return c.cache.Close()
}
