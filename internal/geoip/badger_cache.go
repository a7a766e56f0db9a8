// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package geoip

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/logging"
)

const storeKeyPrefix = "geo:"

// Store persists lookups across restarts in BadgerDB. Entries expire with
// Badger's native TTL.
type Store struct {
	db *badger.DB
}

// storedRecord distinguishes a cached "no record" answer from a miss.
type storedRecord struct {
	Geo *collector.GeoInfo `json:"geo"`
}

// OpenStore opens (or creates) a store at path. An empty path keeps the
// store in memory.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("path", path).Msg("GeoIP store opened")
	return &Store{db: db}, nil
}

// Get returns the stored record for ip. found is false on a miss; a found
// nil record is a cached "no record" answer.
func (s *Store) Get(ip string) (geo *collector.GeoInfo, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storeKeyPrefix + ip))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec storedRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			geo, found = rec.Geo, true
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", ip, err)
	}
	return geo, found, nil
}

// Put stores geo (possibly nil) for ip with the given TTL.
func (s *Store) Put(ip string, geo *collector.GeoInfo, ttl time.Duration) error {
	data, err := json.Marshal(storedRecord{Geo: geo})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(storeKeyPrefix+ip), data).WithTTL(ttl))
	})
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}
