package mdbxkv

import (
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"
)

// Reader is the read capability shared by ReadTxn and WriteTxn.
type Reader interface {
	Get(db DB, key []byte) ([]byte, error)
	OpenCursor(db DB) (*Cursor, error)
	OpenDatabase(name string) (DB, error)
	Flags(db DB) (DBFlags, error)
	ID() uint64
}

var (
	_ Reader = (*ReadTxn)(nil)
	_ Reader = (*WriteTxn)(nil)
)

// txn is the state shared by both transaction capabilities.
//
// Values returned by Get and cursor reads alias the memory map and are valid
// until the transaction ends or, for write transactions, until the next
// mutation. Copy them to keep them longer.
type txn struct {
	signature uint32
	env       *Env
	mt        *mdbx.Txn
	write     bool
	done      bool

	parent *WriteTxn
	child  *WriteTxn

	cursors []*Cursor
	opened  []mdbx.DBI // handles first opened by this transaction
	orphans []mdbx.DBI // handles left by aborted writes, closed at the end
	borrows *borrowSet // nil unless borrow check mode

	dbiLocked bool // env.dbiMu is held for the whole transaction
}

func (e *Env) newTxn(mt *mdbx.Txn, write bool) txn {
	t := txn{signature: txnSignature, env: e, mt: mt, write: write}
	if e.borrowCheck {
		t.borrows = &borrowSet{}
	}
	return t
}

// valid checks if the transaction is valid
func (t *txn) valid() bool {
	return t != nil && t.signature == txnSignature && !t.done
}

// check fails if the transaction ended or a nested child is active.
func (t *txn) check(op string) error {
	if !t.valid() {
		return misuse(op, ErrBadTxn, ErrTxnDone)
	}
	if t.child != nil {
		return misuse(op, ErrBadTxn, ErrChildActive)
	}
	return nil
}

// begin validates the transaction and resolves db for an operation.
func (t *txn) begin(op string, db DB) (mdbx.DBI, error) {
	if err := t.check(op); err != nil {
		return 0, err
	}
	return t.env.resolve(op, db)
}

// fail translates an engine error and reports corruption.
func (t *txn) fail(op string, err error) error {
	err = wrapErr(op, err)
	t.env.logFatal(op, err)
	return err
}

func (t *txn) borrow(v []byte) []byte {
	if t.borrows == nil {
		return v
	}
	return t.borrows.track(v)
}

// mutated invalidates outstanding views before a write.
func (t *txn) mutated() {
	if t.borrows != nil {
		t.borrows.invalidate()
	}
}

// ID returns the transaction's snapshot id.
func (t *txn) ID() uint64 {
	if !t.valid() {
		return 0
	}
	return t.mt.ID()
}

// Get returns the value stored under key, or the first value for a DupSort
// database. Missing keys return ErrNotFound.
func (t *txn) Get(db DB, key []byte) ([]byte, error) {
	dbi, err := t.begin("get", db)
	if err != nil {
		return nil, err
	}
	v, err := t.mt.Get(dbi, key)
	if err != nil {
		return nil, t.fail("get", err)
	}
	return t.borrow(v), nil
}

// OpenCursor opens a read cursor. The cursor is closed when the transaction
// ends.
func (t *txn) OpenCursor(db DB) (*Cursor, error) {
	return t.openCursor("open cursor", db)
}

func (t *txn) openCursor(op string, db DB) (*Cursor, error) {
	dbi, err := t.begin(op, db)
	if err != nil {
		return nil, err
	}
	mc, err := t.mt.OpenCursor(dbi)
	if err != nil {
		return nil, t.fail(op, err)
	}
	c := &Cursor{signature: cursorSignature, txn: t, mc: mc, db: db}
	t.cursors = append(t.cursors, c)
	return c, nil
}

// removeCursor removes a cursor from the transaction's list.
// Uses swap-with-last for O(1) removal instead of O(n) slice shift.
func (t *txn) removeCursor(c *Cursor) {
	n := len(t.cursors)
	for i := 0; i < n; i++ {
		if t.cursors[i] == c {
			t.cursors[i] = t.cursors[n-1]
			t.cursors[n-1] = nil // Allow GC
			t.cursors = t.cursors[:n-1]
			break
		}
	}
}

// closeAllCursors closes all open cursors.
func (t *txn) closeAllCursors() {
	for _, c := range t.cursors {
		if c != nil {
			c.mc.Close()
			c.signature = 0
		}
	}
	t.cursors = nil
}

// end releases everything the transaction holds. The engine handle must
// already be committed or aborted.
func (t *txn) end(committed bool) {
	t.done = true
	t.signature = 0
	if t.borrows != nil {
		t.borrows.invalidate()
	}
	switch {
	case t.parent != nil:
		if committed {
			t.parent.opened = append(t.parent.opened, t.opened...)
		} else {
			t.forgetOpened()
			t.parent.orphans = append(t.parent.orphans, t.opened...)
		}
		t.parent.orphans = append(t.parent.orphans, t.orphans...)
		t.parent.child = nil
	default:
		orphans := t.orphans
		if !committed {
			t.forgetOpened()
			if t.write {
				orphans = append(orphans, t.opened...)
			}
		}
		if len(orphans) > 0 {
			t.env.closeOrphans(orphans, t.dbiLocked)
		}
		if t.write {
			// a writer that began after the engine released its lock may
			// already own the slot
			t.env.writerTid.CompareAndSwap(threadID(), 0)
		}
		t.env.release()
	}
	if t.write {
		runtime.UnlockOSThread()
	}
	t.opened = nil
	t.orphans = nil
}

// forgetOpened drops handles the engine closes when the opener aborts.
func (t *txn) forgetOpened() {
	for _, dbi := range t.opened {
		t.env.unregister(dbi)
	}
}

// ReadTxn is a read-only transaction over a consistent snapshot.
// It must not be used from more than one goroutine at a time.
type ReadTxn struct {
	txn
}

// Commit ends the transaction, making handles it opened visible to others.
func (txn *ReadTxn) Commit() error {
	if err := txn.check("commit"); err != nil {
		return err
	}
	txn.closeAllCursors()
	_, err := txn.mt.Commit()
	txn.end(err == nil)
	if err != nil {
		return txn.fail("commit", err)
	}
	return nil
}

// Abort ends the transaction. Aborting an ended transaction is a no-op.
func (txn *ReadTxn) Abort() {
	if !txn.valid() {
		return
	}
	txn.closeAllCursors()
	txn.mt.Abort()
	txn.end(false)
}

// Reset releases the reader slot and returns a handle that can be renewed
// later without reallocating engine state. The ReadTxn is unusable after.
func (txn *ReadTxn) Reset() (*InactiveTxn, error) {
	if err := txn.check("reset"); err != nil {
		return nil, err
	}
	txn.closeAllCursors()
	if txn.borrows != nil {
		txn.borrows.invalidate()
	}
	txn.mt.Reset()
	in := &InactiveTxn{env: txn.env, mt: txn.mt}
	txn.done = true
	txn.signature = 0
	txn.mt = nil
	return in, nil
}

// InactiveTxn is a reset read transaction. It keeps its environment open
// until renewed or aborted.
type InactiveTxn struct {
	env *Env
	mt  *mdbx.Txn
}

// Renew acquires a fresh snapshot and returns an active transaction. On
// failure the handle stays inactive.
func (in *InactiveTxn) Renew() (*ReadTxn, error) {
	if in.mt == nil {
		return nil, misuse("renew", ErrBadTxn, ErrTxnDone)
	}
	if err := in.mt.Renew(); err != nil {
		return nil, wrapErr("renew", err)
	}
	txn := &ReadTxn{txn: in.env.newTxn(in.mt, false)}
	in.mt = nil
	return txn, nil
}

// Abort frees the handle.
func (in *InactiveTxn) Abort() {
	if in.mt == nil {
		return
	}
	in.mt.Abort()
	in.mt = nil
	in.env.release()
}

// WriteTxn is a read-write transaction. Only one exists per environment at a
// time. It is bound to the OS thread that began it.
type WriteTxn struct {
	txn
}

// Put stores value under key.
func (txn *WriteTxn) Put(db DB, key, value []byte, flags WriteFlags) error {
	dbi, err := txn.begin("put", db)
	if err != nil {
		return err
	}
	txn.mutated()
	if err := txn.mt.Put(dbi, key, value, uint(flags)); err != nil {
		return txn.fail("put", err)
	}
	return nil
}

// Reserve stores a value of n bytes under key and returns the writable
// region. The caller fills it before the next mutation or commit; bytes not
// written are indeterminate. Not supported on DupSort databases.
func (txn *WriteTxn) Reserve(db DB, key []byte, n int, flags WriteFlags) ([]byte, error) {
	dbi, err := txn.begin("reserve", db)
	if err != nil {
		return nil, err
	}
	if db.IsDupSort() {
		return nil, misuse("reserve", ErrIncompatible, ErrReserveDupSort)
	}
	txn.mutated()
	buf, err := txn.mt.PutReserve(dbi, key, n, uint(flags))
	if err != nil {
		return nil, txn.fail("reserve", err)
	}
	return buf, nil
}

// Delete removes key. For a DupSort database a nil value removes all
// duplicates, otherwise only the matching pair. Missing entries return
// ErrNotFound.
func (txn *WriteTxn) Delete(db DB, key, value []byte) error {
	dbi, err := txn.begin("delete", db)
	if err != nil {
		return err
	}
	txn.mutated()
	if err := txn.mt.Del(dbi, key, value); err != nil {
		return txn.fail("delete", err)
	}
	return nil
}

// OpenWriteCursor opens a cursor that can also modify the database.
func (txn *WriteTxn) OpenWriteCursor(db DB) (*WriteCursor, error) {
	c, err := txn.openCursor("open cursor", db)
	if err != nil {
		return nil, err
	}
	return &WriteCursor{Cursor: c}, nil
}

// BeginNested starts a child transaction. The parent is unusable until the
// child commits or aborts. A child commit merges into the parent; a child
// abort discards only the child's writes.
func (txn *WriteTxn) BeginNested() (*WriteTxn, error) {
	if err := txn.check("begin nested"); err != nil {
		return nil, err
	}
	runtime.LockOSThread()
	mt, err := txn.env.env.BeginTxn(txn.mt, 0)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, txn.fail("begin nested", err)
	}
	child := &WriteTxn{txn: txn.env.newTxn(mt, true)}
	child.parent = txn
	child.borrows = txn.borrows
	txn.child = child
	return child, nil
}

// Commit applies the writes: to the store for a top-level transaction, to
// the parent for a nested one. On failure nothing is applied and the
// transaction is ended.
func (txn *WriteTxn) Commit() error {
	if err := txn.check("commit"); err != nil {
		return err
	}
	txn.closeAllCursors()
	lat, err := txn.mt.Commit()
	txn.end(err == nil)
	if err != nil {
		err = txn.fail("commit", err)
		txn.env.log.Warn("commit failed", "path", txn.env.path, "err", err)
		return err
	}
	if txn.parent == nil {
		txn.env.log.Debug("committed", "path", txn.env.path, "latency", lat.Whole)
	}
	return nil
}

// Abort discards the writes of this transaction and of any active nested
// child. Aborting an ended transaction is a no-op.
func (txn *WriteTxn) Abort() {
	if !txn.valid() {
		return
	}
	if txn.child != nil {
		txn.child.Abort()
	}
	txn.closeAllCursors()
	txn.mt.Abort()
	txn.end(false)
}
