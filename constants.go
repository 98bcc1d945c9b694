package mdbxkv

import (
	"strconv"
	"strings"
)

// EnvFlags configure an environment at open time. Values match libmdbx.
type EnvFlags uint

const (
	// EnvDefaults is the default (durable) mode
	EnvDefaults EnvFlags = 0

	// NoSubdir means the path is a filename, not a directory
	NoSubdir EnvFlags = 0x00004000

	// ReadOnly opens the environment in read-only mode
	ReadOnly EnvFlags = 0x00020000

	// NoLock disables inter-process locking. The caller must guarantee a
	// single process. Mapped to exclusive (monopolistic) mode.
	NoLock EnvFlags = 0x00400000

	// WriteMap maps data with write permission (faster, riskier)
	WriteMap EnvFlags = 0x00080000

	// NoReadAhead disables OS readahead
	NoReadAhead EnvFlags = 0x00800000

	// NoMemInit skips zeroing malloc'd memory
	NoMemInit EnvFlags = 0x01000000

	// LifoReclaim uses LIFO policy for GC reclamation
	LifoReclaim EnvFlags = 0x04000000

	// NoMetaSync skips meta page sync after commit
	NoMetaSync EnvFlags = 0x00040000

	// SafeNoSync skips sync but keeps steady commits
	SafeNoSync EnvFlags = 0x00010000

	// UtterlyNoSync skips all syncs (dangerous). Includes SafeNoSync.
	UtterlyNoSync EnvFlags = 0x00110000

	// noTLS decouples reader slots from OS threads; always set
	noTLS EnvFlags = 0x00200000
)

// syncFlags may be toggled on an open environment.
const syncFlags = SafeNoSync | UtterlyNoSync | NoMetaSync

var envFlagNames = []struct {
	flag EnvFlags
	name string
}{
	{NoSubdir, "nosubdir"},
	{ReadOnly, "readonly"},
	{NoLock, "nolock"},
	{WriteMap, "writemap"},
	{NoReadAhead, "noreadahead"},
	{NoMemInit, "nomeminit"},
	{LifoReclaim, "lifo"},
	{UtterlyNoSync, "utterlynosync"},
	{SafeNoSync, "safenosync"},
	{NoMetaSync, "nometasync"},
}

func (f EnvFlags) String() string {
	if f == 0 {
		return "defaults"
	}
	var parts []string
	for _, n := range envFlagNames {
		if f&n.flag == n.flag {
			parts = append(parts, n.name)
			f &^= n.flag
		}
	}
	f &^= noTLS
	if f != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(f), 16))
	}
	return strings.Join(parts, "|")
}

// DBFlags fix the comparator and duplicate layout of a database when it is
// created.
type DBFlags uint

const (
	// DBDefaults uses lexicographic keys and unique values
	DBDefaults DBFlags = 0

	// ReverseKey compares keys from the last byte to the first
	ReverseKey DBFlags = 0x02

	// DupSort allows multiple values per key (sorted)
	DupSort DBFlags = 0x04

	// IntegerKey uses uint32/uint64 keys in native byte order
	IntegerKey DBFlags = 0x08

	// DupFixed uses fixed-size values in DUPSORT tables
	DupFixed DBFlags = 0x10

	// IntegerDup uses fixed-size integer values in DUPSORT
	IntegerDup DBFlags = 0x20

	// ReverseDup compares values from the last byte to the first
	ReverseDup DBFlags = 0x40

	dbCreate DBFlags = 0x40000
	// dbAccede opens an existing database with whatever flags it has
	dbAccede DBFlags = 0x40000000

	persistentDBFlags = ReverseKey | DupSort | IntegerKey | DupFixed | IntegerDup | ReverseDup
)

// WriteFlags alter how Put and Del behave.
type WriteFlags uint

const (
	// Upsert is the default insert-or-update mode
	Upsert WriteFlags = 0

	// NoOverwrite fails with ErrKeyExist if the key exists
	NoOverwrite WriteFlags = 0x10

	// NoDupData fails with ErrKeyExist if the key/value pair exists (DUPSORT)
	NoDupData WriteFlags = 0x20

	// Current overwrites the item at the cursor position
	Current WriteFlags = 0x40

	// AllDups deletes all duplicates of the current key (cursor Del)
	AllDups WriteFlags = 0x80

	reserve WriteFlags = 0x10000

	// Append requires keys to be written in ascending order
	Append WriteFlags = 0x20000

	// AppendDup requires duplicates to be written in ascending order
	AppendDup WriteFlags = 0x40000
)

// CursorOp selects a cursor positioning operation. Values match libmdbx.
type CursorOp uint

const (
	// First positions at the first key
	First CursorOp = iota
	// FirstDup positions at the first duplicate of current key
	FirstDup
	// GetBoth positions at exact key-value pair
	GetBoth
	// GetBothRange positions at key with value >= specified
	GetBothRange
	// GetCurrent returns current key-value
	GetCurrent
	// GetMultiple returns a page of values (DUPFIXED)
	GetMultiple
	// Last positions at the last key
	Last
	// LastDup positions at the last duplicate of current key
	LastDup
	// Next moves to the next key-value
	Next
	// NextDup moves to the next duplicate of current key
	NextDup
	// NextMultiple returns the next page of values (DUPFIXED)
	NextMultiple
	// NextNoDup moves to the first value of next key
	NextNoDup
	// Prev moves to the previous key-value
	Prev
	// PrevDup moves to the previous duplicate of current key
	PrevDup
	// PrevNoDup moves to the last value of previous key
	PrevNoDup
	// Set positions at specified key
	Set
	// SetKey positions at key, returns key and value
	SetKey
	// SetRange positions at first key >= specified
	SetRange

	cursorOpCount
)

var cursorOpNames = [cursorOpCount]string{
	"FIRST", "FIRST_DUP", "GET_BOTH", "GET_BOTH_RANGE", "GET_CURRENT",
	"GET_MULTIPLE", "LAST", "LAST_DUP", "NEXT", "NEXT_DUP", "NEXT_MULTIPLE",
	"NEXT_NODUP", "PREV", "PREV_DUP", "PREV_NODUP", "SET", "SET_KEY", "SET_RANGE",
}

func (op CursorOp) String() string {
	if op < cursorOpCount {
		return cursorOpNames[op]
	}
	return "CURSOR_OP(" + strconv.Itoa(int(op)) + ")"
}

// echoesKey reports whether the operation returns the positioned key.
// The rest return a nil key: the caller either supplied it or the
// operation stays on the current key.
func (op CursorOp) echoesKey() bool {
	switch op {
	case FirstDup, GetBoth, GetBothRange, GetMultiple, LastDup, Set:
		return false
	}
	return true
}

// needsKey reports whether the operation reads the key argument.
func (op CursorOp) needsKey() bool {
	switch op {
	case GetBoth, GetBothRange, Set, SetKey, SetRange:
		return true
	}
	return false
}

// needsValue reports whether the operation reads the value argument.
func (op CursorOp) needsValue() bool {
	return op == GetBoth || op == GetBothRange
}

func (op CursorOp) multiple() bool {
	return op == GetMultiple || op == NextMultiple
}
