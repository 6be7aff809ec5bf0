// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores entries in a BadgerDB directory. Each call runs in its
// own transaction.
type BadgerBackend struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadger opens (or creates) a BadgerDB directory at path.
// Badger's own logger is silenced; failures are returned as errors.
func OpenBadger(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerBackend{db: db, ownsDB: true}, nil
}

// NewBadgerBackend wraps an already opened database. Close leaves it open.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// Get reads key.
func (b *BadgerBackend) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes key.
func (b *BadgerBackend) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *BadgerBackend) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}
	return nil
}

// Scan iterates keys with prefix in key order inside one read transaction.
// fn must not write to the backend; collect keys and act after Scan returns.
func (b *BadgerBackend) Scan(prefix string, fn func(key string, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropPrefix removes every key with prefix. An empty prefix drops the
// whole database.
func (b *BadgerBackend) DropPrefix(prefix string) error {
	var err error
	if prefix == "" {
		err = b.db.DropAll()
	} else {
		err = b.db.DropPrefix([]byte(prefix))
	}
	if err != nil {
		return fmt.Errorf("badger drop prefix %q: %w", prefix, err)
	}
	return nil
}

// Close closes the database if this backend opened it.
func (b *BadgerBackend) Close() error {
	if !b.ownsDB {
		return nil
	}
	return b.db.Close()
}

// RunGC reclaims value log space. badger.ErrNoRewrite means there was
// nothing to collect and is not reported.
func (b *BadgerBackend) RunGC() error {
	err := b.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("badger value log gc: %w", err)
	}
	return nil
}
