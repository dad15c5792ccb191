// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Op is a filter comparison operator.
type Op string

const (
	// OpEqual matches when the field deep-equals the operand.
	OpEqual Op = "=="
	// OpArrayContains matches when the field is an array holding the operand.
	OpArrayContains Op = "array-contains"
)

type filter struct {
	path  string
	op    Op
	value any
}

// Query scans one collection with optional field filters. Filters are
// evaluated against decoded documents during the prefix scan; there are
// no secondary indexes, which is acceptable at this corpus scale.
type Query struct {
	store      *Store
	collection string
	filters    []filter
	orderBy    string
	descending bool
	limit      int
}

// Query starts a query over collection.
func (s *Store) Query(collection string) *Query {
	return &Query{store: s, collection: collection}
}

// Where adds a filter. The path may be dotted to address nested fields.
func (q *Query) Where(path string, op Op, value any) *Query {
	q.filters = append(q.filters, filter{path: path, op: op, value: value})
	return q
}

// OrderBy sorts results by a field before the limit is applied. Only
// string and numeric values order meaningfully; mixed types sort after
// comparable ones.
func (q *Query) OrderBy(path string, descending bool) *Query {
	q.orderBy = path
	q.descending = descending
	return q
}

// Limit caps the number of returned documents. Zero means unlimited.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// QueryResult pairs a document with its ID.
type QueryResult struct {
	ID  string
	Doc Document
}

// Documents runs the query and returns all matches.
func (q *Query) Documents(ctx context.Context) ([]QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []QueryResult
	prefix := collectionPrefix(q.collection)

	err := q.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), string(prefix))

			var doc Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s/%s: %w", q.collection, id, err)
			}
			if q.matches(doc) {
				results = append(results, QueryResult{ID: id, Doc: doc})
			}
			// Early exit only when no post-scan ordering is needed.
			if q.orderBy == "" && q.limit > 0 && len(results) >= q.limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if q.orderBy != "" {
		q.sortResults(results)
	}
	if q.limit > 0 && len(results) > q.limit {
		results = results[:q.limit]
	}
	return results, nil
}

func (q *Query) matches(doc Document) bool {
	for _, f := range q.filters {
		fieldVal, ok := lookup(doc, f.path)
		if !ok {
			return false
		}
		switch f.op {
		case OpEqual:
			if !valuesEqual(fieldVal, f.value) {
				return false
			}
		case OpArrayContains:
			arr, isArr := fieldVal.([]any)
			if !isArr {
				return false
			}
			found := false
			for _, el := range arr {
				if valuesEqual(el, f.value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (q *Query) sortResults(results []QueryResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, aok := lookup(results[i].Doc, q.orderBy)
		b, bok := lookup(results[j].Doc, q.orderBy)
		if !aok || !bok {
			return aok && !bok
		}
		less, comparable := lessThan(a, b)
		if !comparable {
			return false
		}
		if q.descending {
			return !less && !valuesEqual(a, b)
		}
		return less
	})
}

// lookup resolves a dotted path inside a document.
func lookup(doc Document, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = map[string]any(doc)
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valuesEqual compares a decoded field against a caller-supplied
// operand, normalizing integer operands to JSON's float64.
func valuesEqual(field, operand any) bool {
	if fn, ok := toFloat(field); ok {
		if on, ok := toFloat(operand); ok {
			return fn == on
		}
		return false
	}
	return field == operand
}

func lessThan(a, b any) (less, comparable bool) {
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return an < bn, true
		}
		return false, false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs, true
	}
	return false, false
}
