// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package store implements a document store on BadgerDB. Documents are
// schemaless JSON objects addressed by collection and ID, with merge
// updates, dotted field paths, atomic counter increments, and write
// batches that commit in a single transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/placementlabs/archivus/internal/logging"
)

// Document is a decoded record. Nested objects decode as
// map[string]any, numbers as float64, following JSON semantics.
type Document map[string]any

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

const keyPrefix = "doc:"

// Store is a collection-oriented view over a single Badger database.
// All methods are safe for concurrent use. Write transactions are
// serialized by writeMu; concurrent read-modify-write cycles on the
// same document would otherwise fail Badger's conflict detection.
type Store struct {
	db      *badger.DB
	writeMu sync.Mutex

	// now is swapped in tests for deterministic server timestamps.
	now func() time.Time
}

// Options controls how the database is opened.
type Options struct {
	// Path is the on-disk directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Open opens or creates the database at the configured path.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithInMemory(opts.InMemory)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}
	logging.Info().Str("path", opts.Path).Bool("in_memory", opts.InMemory).Msg("document store opened")
	return &Store{db: db, now: time.Now}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a fresh random document ID.
func NewID() string {
	return uuid.NewString()
}

// Timestamp formats t the way server timestamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func docKey(collection, id string) []byte {
	return []byte(keyPrefix + collection + ":" + id)
}

func collectionPrefix(collection string) []byte {
	return []byte(keyPrefix + collection + ":")
}

// Get fetches one document. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", collection, id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Exists reports whether a document is present without decoding it.
func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(collection, id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set writes the document, replacing any existing content entirely.
// Sentinel values in fields are resolved before the write.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return s.setInTxn(txn, collection, id, fields)
	})
}

// Update applies fields to an existing document as a merge: dotted
// paths address nested maps, Delete removes fields, Increment adjusts
// numeric fields atomically within the transaction. When the document
// does not exist and upsert is false, ErrNotFound is returned.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return s.updateInTxn(txn, collection, id, fields, upsert)
	})
}

// Delete removes a document. Deleting an absent document is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(collection, id))
	})
}

func (s *Store) setInTxn(txn *badger.Txn, collection, id string, fields map[string]any) error {
	doc := make(Document, len(fields))
	if err := s.applyFields(doc, fields); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	return txn.Set(docKey(collection, id), data)
}

func (s *Store) updateInTxn(txn *badger.Txn, collection, id string, fields map[string]any, upsert bool) error {
	key := docKey(collection, id)
	doc := Document{}

	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		if !upsert {
			return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
		}
	case err != nil:
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	default:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
	}

	if err := s.applyFields(doc, fields); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	return txn.Set(key, data)
}

// applyFields merges fields into doc, resolving sentinels and creating
// intermediate maps along dotted paths.
func (s *Store) applyFields(doc Document, fields map[string]any) error {
	for path, value := range fields {
		parent, leaf, err := descend(doc, path)
		if err != nil {
			return err
		}
		switch v := value.(type) {
		case deleteSentinel:
			delete(parent, leaf)
		case incrementSentinel:
			current, _ := toFloat(parent[leaf])
			parent[leaf] = current + float64(v.delta)
		case serverTimestampSentinel:
			parent[leaf] = Timestamp(s.now())
		default:
			normalized, err := normalize(value)
			if err != nil {
				return fmt.Errorf("field %q: %w", path, err)
			}
			parent[leaf] = normalized
		}
	}
	return nil
}

// descend walks a dotted path, creating intermediate maps, and returns
// the parent map plus the final segment.
func descend(doc Document, path string) (map[string]any, string, error) {
	segments := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg]
		if !ok {
			child := map[string]any{}
			current[seg] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("path %q: segment %q is not an object", path, seg)
		}
		current = child
	}
	return current, segments[len(segments)-1], nil
}

// normalize round-trips value through JSON so stored structure matches
// what a later Get decodes. Plain scalars pass through untouched.
func normalize(value any) (any, error) {
	switch value.(type) {
	case nil, bool, string, float64:
		return value, nil
	case int:
		return float64(value.(int)), nil
	case int64:
		return float64(value.(int64)), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
