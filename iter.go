package mdbxkv

import "iter"

// Items is a forward, single-pass iteration over a cursor.
//
//	it := cur.Items()
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
//
// Iteration ends cleanly at ErrNotFound; any other error stops it and is
// returned by Err.
type Items struct {
	c     *Cursor
	key   []byte // fixed key for Dups
	first CursorOp
	next  CursorOp

	started bool
	done    bool
	k, v    []byte
	err     error
}

// Items iterates the whole database from FIRST by NEXT. A cursor can be
// iterated once; later calls yield nothing and Err reports the misuse.
func (c *Cursor) Items() *Items {
	return c.newItems(nil, First, Next)
}

// Dups iterates the values stored under key, from SET by NEXT_DUP.
func (c *Cursor) Dups(key []byte) *Items {
	return c.newItems(key, Set, NextDup)
}

func (c *Cursor) newItems(key []byte, first, next CursorOp) *Items {
	it := &Items{c: c, key: key, first: first, next: next}
	if c.iterated {
		it.done = true
		it.err = misuse("iterate", ErrBadTxn, ErrIterated)
		return it
	}
	c.iterated = true
	return it
}

// Next advances to the next entry and reports whether there is one.
func (it *Items) Next() bool {
	if it.done {
		return false
	}
	op := it.next
	if !it.started {
		op = it.first
		it.started = true
	}
	k, v, err := it.c.Get(it.key, nil, op)
	if err != nil {
		it.done = true
		it.k, it.v = nil, nil
		if !IsNotFound(err) {
			it.err = err
		}
		return false
	}
	if it.key != nil {
		k = it.key
	}
	it.k, it.v = k, v
	return true
}

// Key returns the current key.
func (it *Items) Key() []byte {
	return it.k
}

// Value returns the current value.
func (it *Items) Value() []byte {
	return it.v
}

// Err returns the error that stopped iteration, nil at a clean end.
func (it *Items) Err() error {
	return it.err
}

// Seq adapts the iteration for range-over-func. Check Err afterwards.
func (it *Items) Seq() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for it.Next() {
			if !yield(it.k, it.v) {
				return
			}
		}
	}
}
