// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

type batchOpKind int

const (
	opSet batchOpKind = iota
	opUpdate
	opUpsert
	opDelete
)

type batchOp struct {
	kind       batchOpKind
	collection string
	id         string
	fields     map[string]any
}

// Batch accumulates writes that commit atomically in one transaction.
// Either every operation applies or none do. Operations are applied in
// the order they were queued, so an increment after a set observes the
// set's value.
type Batch struct {
	store *Store
	ops   []batchOp
}

// Batch starts an empty write batch.
func (s *Store) Batch() *Batch {
	return &Batch{store: s}
}

// Set queues a full document write.
func (b *Batch) Set(collection, id string, fields map[string]any) *Batch {
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, fields: fields})
	return b
}

// Update queues a merge update. The commit fails with ErrNotFound if
// the document is absent, rolling back the whole batch.
func (b *Batch) Update(collection, id string, fields map[string]any) *Batch {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, fields: fields})
	return b
}

// Upsert queues a merge update that creates the document when absent.
func (b *Batch) Upsert(collection, id string, fields map[string]any) *Batch {
	b.ops = append(b.ops, batchOp{kind: opUpsert, collection: collection, id: id, fields: fields})
	return b
}

// Delete queues a document removal.
func (b *Batch) Delete(collection, id string) *Batch {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
	return b
}

// Len reports the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Commit applies every queued operation in one transaction. Batches
// are serialized store-wide so concurrent commits never interleave.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.store.writeMu.Lock()
	defer b.store.writeMu.Unlock()

	return b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			var err error
			switch op.kind {
			case opSet:
				err = b.store.setInTxn(txn, op.collection, op.id, op.fields)
			case opUpdate:
				err = b.store.updateInTxn(txn, op.collection, op.id, op.fields, false)
			case opUpsert:
				err = b.store.updateInTxn(txn, op.collection, op.id, op.fields, true)
			case opDelete:
				err = txn.Delete(docKey(op.collection, op.id))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
