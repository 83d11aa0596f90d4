package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

type mapStore map[item.ID]item.Item

func (m mapStore) Restore(id item.ID, prev item.Item) {
	if prev == nil {
		delete(m, id)
		return
	}
	m[id] = prev
}

func (m mapStore) set(log *Log, it item.Item) {
	log.Record(it.ID(), m[it.ID()])
	m[it.ID()] = it
}

func (m mapStore) remove(log *Log, id item.ID) {
	log.Record(id, m[id])
	delete(m, id)
}

func trace(id item.ID, x float64) item.Item {
	return item.NewTrace(geometry.NewPolyline(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(x, 0)), 0, 1, nil, 1, item.Unfixed).WithID(id)
}

func TestRollbackRestoresFirstState(t *testing.T) {
	store := mapStore{}
	log := NewLog(store)
	original := trace(1, 10)
	store[1] = original

	tx := log.Begin()
	store.set(log, trace(1, 20))
	store.set(log, trace(1, 30))
	store.set(log, trace(2, 5))
	store.remove(log, 1)
	assert.Equal(t, 2, tx.Len())

	require.NoError(t, tx.Rollback())
	assert.Same(t, original, store[1])
	_, ok := store[2]
	assert.False(t, ok)
	assert.ErrorIs(t, tx.Rollback(), ErrTransactionClosed)
}

func TestNestedCommitFoldsIntoParent(t *testing.T) {
	store := mapStore{}
	log := NewLog(store)

	outer := log.Begin()
	inner := log.Begin()
	store.set(log, trace(1, 10))
	require.NoError(t, inner.Commit())
	assert.Equal(t, 1, outer.Len())

	require.NoError(t, outer.Rollback())
	assert.Empty(t, store)
	assert.False(t, log.Active())
}

func TestNothingRecordedOutsideTransaction(t *testing.T) {
	store := mapStore{}
	log := NewLog(store)
	store.set(log, trace(1, 10))
	tx := log.Begin()
	assert.Equal(t, 0, tx.Len())
	require.NoError(t, tx.Commit())
	assert.Len(t, store, 1)
}

func TestOutOfOrderCloseFails(t *testing.T) {
	log := NewLog(mapStore{})
	outer := log.Begin()
	log.Begin()
	assert.Error(t, outer.Commit())
}
