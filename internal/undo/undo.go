// Package undo records board changes so that a failed multi-step shove can
// be rolled back as a whole.
package undo

import (
	"github.com/cockroachdb/errors"

	"pcb-router/internal/item"
)

// ErrTransactionClosed is returned when a finished transaction is reused.
var ErrTransactionClosed = errors.New("transaction already closed")

// Store applies restored states. prev nil means the id did not exist.
type Store interface {
	Restore(id item.ID, prev item.Item)
}

// Entry is the state of one item before a change.
type Entry struct {
	ID   item.ID
	Prev item.Item
}

// Log hands out transactions and receives the changes of the innermost open one.
type Log struct {
	store Store
	open  []*Transaction
}

// NewLog creates a log restoring into store.
func NewLog(store Store) *Log {
	return &Log{store: store}
}

// Begin opens a transaction nested in the currently open one, if any.
func (l *Log) Begin() *Transaction {
	tx := &Transaction{log: l, seen: make(map[item.ID]bool)}
	l.open = append(l.open, tx)
	return tx
}

// Active reports whether a transaction is open.
func (l *Log) Active() bool { return len(l.open) > 0 }

// Record saves the state of id before a change. Only the first state per
// transaction is kept. Without an open transaction nothing is recorded.
func (l *Log) Record(id item.ID, prev item.Item) {
	if len(l.open) == 0 {
		return
	}
	l.open[len(l.open)-1].record(id, prev)
}

func (l *Log) pop(tx *Transaction) error {
	if len(l.open) == 0 || l.open[len(l.open)-1] != tx {
		return errors.New("transaction is not the innermost open one")
	}
	l.open = l.open[:len(l.open)-1]
	return nil
}

// Transaction is a list of (item id, previous state) pairs.
type Transaction struct {
	log     *Log
	entries []Entry
	seen    map[item.ID]bool
	closed  bool
}

func (tx *Transaction) record(id item.ID, prev item.Item) {
	if tx.seen[id] {
		return
	}
	tx.seen[id] = true
	tx.entries = append(tx.entries, Entry{ID: id, Prev: prev})
}

// Len returns the number of recorded items.
func (tx *Transaction) Len() int { return len(tx.entries) }

// Commit closes the transaction keeping all changes. The entries move to the
// enclosing transaction so that it can still roll them back.
func (tx *Transaction) Commit() error {
	if tx.closed {
		return ErrTransactionClosed
	}
	if err := tx.log.pop(tx); err != nil {
		return err
	}
	tx.closed = true
	for _, e := range tx.entries {
		tx.log.Record(e.ID, e.Prev)
	}
	return nil
}

// Rollback restores every recorded item in reverse order and closes the transaction.
func (tx *Transaction) Rollback() error {
	if tx.closed {
		return ErrTransactionClosed
	}
	if err := tx.log.pop(tx); err != nil {
		return err
	}
	tx.closed = true
	for i := len(tx.entries) - 1; i >= 0; i-- {
		e := tx.entries[i]
		tx.log.store.Restore(e.ID, e.Prev)
	}
	return nil
}
