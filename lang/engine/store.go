// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package engine

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/probechain/go-lichen/internal/log"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to
	// the leveldb read cache.
	minCache = 8

	// minHandles is the minimum number of files handles to allocate to the
	// open database files.
	minHandles = 16
)

// watPrefix namespaces generated WAT text in the store.
var watPrefix = []byte("w")

// DiskStore persists generated WAT text across runs, keyed by the source
// hash.
type DiskStore struct {
	fn  string
	db  *leveldb.DB
	log log.Logger
}

// OpenDiskStore opens or creates the store in dir.
func OpenDiskStore(dir string, cache int, handles int) (*DiskStore, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger := log.New("store", dir)
	logger.Debug("Opening WAT store", "cache", cache, "handles", handles)

	db, err := leveldb.OpenFile(dir, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	return &DiskStore{fn: dir, db: db, log: logger}, nil
}

// NewMemoryDiskStore returns a store backed by memory, for tests.
func NewMemoryDiskStore() (*DiskStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DiskStore{db: db, log: log.New("store", "memory")}, nil
}

func watKey(hash Hash) []byte {
	return append(append([]byte{}, watPrefix...), hash[:]...)
}

// Get returns the WAT text stored for hash.
func (s *DiskStore) Get(hash Hash) (string, bool) {
	data, err := s.db.Get(watKey(hash), nil)
	if err != nil {
		if err != leveldb.ErrNotFound {
			s.log.Warn("WAT store read failed", "hash", hash, "err", err)
		}
		return "", false
	}
	return string(data), true
}

// Put stores the WAT text for hash.
func (s *DiskStore) Put(hash Hash, text string) error {
	return s.db.Put(watKey(hash), []byte(text), nil)
}

// Close flushes and closes the store.
func (s *DiskStore) Close() error {
	return s.db.Close()
}
