package mdbxkv

import "github.com/erigontech/mdbx-go/mdbx"

// Cursor is a position within one database of one transaction. It is closed
// automatically when the transaction ends and must not be used from another
// goroutine.
type Cursor struct {
	signature uint32
	txn       *txn
	mc        *mdbx.Cursor
	db        DB
	iterated  bool
}

// valid checks if the cursor is valid
func (c *Cursor) valid() bool {
	return c != nil && c.signature == cursorSignature && c.txn.valid()
}

func (c *Cursor) check(op string) error {
	if !c.valid() {
		return misuse(op, ErrBadTxn, ErrCursorClosed)
	}
	if c.txn.child != nil {
		return misuse(op, ErrBadTxn, ErrChildActive)
	}
	return nil
}

// DB returns the database the cursor is bound to.
func (c *Cursor) DB() DB {
	return c.db
}

// Close releases the cursor. Closing twice, or after the transaction ended,
// is a no-op.
func (c *Cursor) Close() {
	if !c.valid() {
		return
	}
	c.mc.Close()
	c.signature = 0
	c.txn.removeCursor(c)
}

// Get positions the cursor with op and returns the entry there.
//
// key and value are inputs only for the operations that read them (SET
// family, GET_BOTH family). The returned key is nil for FirstDup, LastDup,
// GetBoth, GetBothRange, GetMultiple and Set; every other operation returns
// it. Running off either end, or off the duplicates of the current key,
// returns ErrNotFound.
//
// GetMultiple and NextMultiple return a page of concatenated fixed-size
// values and need a DupSort|DupFixed database; see Multi.
func (c *Cursor) Get(key, value []byte, op CursorOp) ([]byte, []byte, error) {
	if err := c.check("cursor get"); err != nil {
		return nil, nil, err
	}
	if op >= cursorOpCount {
		return nil, nil, misuse("cursor get", errnoInvalid, nil)
	}
	if op.multiple() && !c.db.IsDupFixed() {
		return nil, nil, misuse("cursor get", ErrIncompatible, ErrNotDupFixed)
	}
	if !op.needsKey() {
		key = nil
	}
	if !op.needsValue() {
		value = nil
	}
	k, v, err := c.mc.Get(key, value, uint(op))
	if err != nil {
		return nil, nil, c.txn.fail("cursor get", err)
	}
	if !op.echoesKey() {
		k = nil
	}
	return c.txn.borrow(k), c.txn.borrow(v), nil
}

// Count returns the number of values stored under the current key.
func (c *Cursor) Count() (uint64, error) {
	if err := c.check("cursor count"); err != nil {
		return 0, err
	}
	n, err := c.mc.Count()
	if err != nil {
		return 0, c.txn.fail("cursor count", err)
	}
	return n, nil
}

// GetMultiple returns the page of values at the current key of a DupFixed
// database, split by the value size stride. With next the cursor first
// advances to the following page.
func (c *Cursor) GetMultiple(stride int, next bool) (*Multi, error) {
	op := GetMultiple
	if next {
		op = NextMultiple
	}
	_, page, err := c.Get(nil, nil, op)
	if err != nil {
		return nil, err
	}
	return WrapMulti(page, stride), nil
}

// WriteCursor is a cursor of a write transaction.
type WriteCursor struct {
	*Cursor
}

// Put stores value under key and moves the cursor there. With Current the
// entry at the cursor is replaced and key must match it.
func (c *WriteCursor) Put(key, value []byte, flags WriteFlags) error {
	if err := c.check("cursor put"); err != nil {
		return err
	}
	c.txn.mutated()
	if err := c.mc.Put(key, value, uint(flags)); err != nil {
		return c.txn.fail("cursor put", err)
	}
	return nil
}

// Reserve stores a value of n bytes under key and returns the writable
// region; see WriteTxn.Reserve.
func (c *WriteCursor) Reserve(key []byte, n int, flags WriteFlags) ([]byte, error) {
	if err := c.check("cursor reserve"); err != nil {
		return nil, err
	}
	if c.db.IsDupSort() {
		return nil, misuse("cursor reserve", ErrIncompatible, ErrReserveDupSort)
	}
	c.txn.mutated()
	buf, err := c.mc.PutReserve(key, n, uint(flags))
	if err != nil {
		return nil, c.txn.fail("cursor reserve", err)
	}
	return buf, nil
}

// PutMultiple stores len(page)/stride fixed-size values under key in one
// call. DupSort|DupFixed databases only.
func (c *WriteCursor) PutMultiple(key, page []byte, stride int, flags WriteFlags) error {
	if err := c.check("cursor put multiple"); err != nil {
		return err
	}
	if !c.db.IsDupFixed() {
		return misuse("cursor put multiple", ErrIncompatible, ErrNotDupFixed)
	}
	if stride <= 0 || len(page)%stride != 0 {
		return misuse("cursor put multiple", ErrBadValSize, nil)
	}
	c.txn.mutated()
	if err := c.mc.PutMulti(key, page, stride, uint(flags)); err != nil {
		return c.txn.fail("cursor put multiple", err)
	}
	return nil
}

// Del deletes the entry at the cursor. NoDupData (or AllDups) deletes every
// value of the current key.
func (c *WriteCursor) Del(flags WriteFlags) error {
	if err := c.check("cursor del"); err != nil {
		return err
	}
	if flags&NoDupData != 0 {
		flags = flags&^NoDupData | AllDups
	}
	c.txn.mutated()
	if err := c.mc.Del(uint(flags)); err != nil {
		return c.txn.fail("cursor del", err)
	}
	return nil
}
