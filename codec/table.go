package codec

import (
	"errors"
	"fmt"

	"github.com/Giulio2002/mdbxkv"
)

// ErrEmptyValue is returned when a stored value lacks its codec tag.
var ErrEmptyValue = errors.New("codec: stored value has no codec tag")

// Table stores compressed values in one database.
type Table struct {
	DB    mdbxkv.DB
	Codec Codec

	// Values shorter than MinSize are stored uncompressed.
	MinSize int
}

// NewTable returns a table compressing every value with c.
func NewTable(db mdbxkv.DB, c Codec) *Table {
	return &Table{DB: db, Codec: c}
}

func (t *Table) codecFor(value []byte) Codec {
	if t.Codec == nil || len(value) < t.MinSize {
		return None
	}
	return t.Codec
}

// Put encodes value and stores it under key.
func (t *Table) Put(txn *mdbxkv.WriteTxn, key, value []byte, flags mdbxkv.WriteFlags) error {
	c := t.codecFor(value)
	enc, err := c.Encode([]byte{c.ID()}, value)
	if err != nil {
		return err
	}
	return txn.Put(t.DB, key, enc, flags)
}

// Get returns the decoded value stored under key. The result is owned by the
// caller and stays valid after the transaction ends.
func (t *Table) Get(r mdbxkv.Reader, key []byte) ([]byte, error) {
	raw, err := r.Get(t.DB, key)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Delete removes key.
func (t *Table) Delete(txn *mdbxkv.WriteTxn, key []byte) error {
	return txn.Delete(t.DB, key, nil)
}

// Decode decodes a tagged stored value into a new slice.
func Decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyValue
	}
	c, err := ByID(raw[0])
	if err != nil {
		return nil, err
	}
	out, err := c.Decode(make([]byte, 0, len(raw)-1), raw[1:])
	if err != nil {
		return nil, fmt.Errorf("decode %s value: %w", c.Name(), err)
	}
	return out, nil
}
