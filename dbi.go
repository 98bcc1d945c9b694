package mdbxkv

import (
	"errors"

	"github.com/erigontech/mdbx-go/mdbx"
)

// DB is a handle to one keyspace of an environment. It is a small value and
// may be copied and shared between goroutines. A DB is only meaningful with
// the environment that issued it.
type DB struct {
	dbi   mdbx.DBI
	gen   uint64
	name  string
	flags DBFlags
	env   *Env
}

// Name returns the database name, empty for the default database.
func (db DB) Name() string {
	return db.name
}

// Flags returns the flags observed when the handle was opened.
func (db DB) Flags() DBFlags {
	return db.flags
}

// IsDupSort reports whether keys may hold multiple sorted values.
func (db DB) IsDupSort() bool {
	return db.flags&DupSort != 0
}

// IsDupFixed reports whether duplicate values have a fixed size.
func (db DB) IsDupFixed() bool {
	return db.flags&(DupSort|DupFixed) == DupSort|DupFixed
}

// Drop empties the database. With del the database is removed and db, with
// every copy of it, becomes stale whatever the transaction outcome.
func (txn *WriteTxn) Drop(db DB, del bool) error {
	dbi, err := txn.begin("drop", db)
	if err != nil {
		return err
	}
	txn.mutated()
	if err := txn.mt.Drop(dbi, del); err != nil {
		return txn.fail("drop", err)
	}
	if del {
		txn.env.unregister(dbi)
	}
	return nil
}

// Flags returns the flags the database was created with.
func (t *txn) Flags(db DB) (DBFlags, error) {
	dbi, err := t.begin("dbi flags", db)
	if err != nil {
		return 0, err
	}
	f, err := t.mt.Flags(dbi)
	if err != nil {
		return 0, t.fail("dbi flags", err)
	}
	return DBFlags(f) & persistentDBFlags, nil
}

// OpenDatabase opens an existing database inside this transaction. The
// handle becomes visible to other transactions once this one commits.
func (t *txn) OpenDatabase(name string) (DB, error) {
	return t.openDB("open database", name, dbAccede)
}

// CreateDatabase opens the database, creating it with flags if absent.
func (txn *WriteTxn) CreateDatabase(name string, flags DBFlags) (DB, error) {
	return txn.openDB("create database", name, flags|dbCreate)
}

func (t *txn) openDB(op, name string, flags DBFlags) (DB, error) {
	t.env.dbiMu.Lock()
	defer t.env.dbiMu.Unlock()
	return t.openDBLocked(op, name, flags)
}

// openDBLocked is openDB with env.dbiMu held by the caller.
func (t *txn) openDBLocked(op, name string, flags DBFlags) (DB, error) {
	if err := t.check(op); err != nil {
		return DB{}, err
	}
	if !validName(name) {
		return DB{}, misuse(op, errnoInvalid, ErrInvalidName)
	}

	if flags&dbCreate == 0 && name != "" {
		if err := t.hasRecord(name); err != nil {
			return DB{}, t.fail(op, err)
		}
	}

	var (
		dbi mdbx.DBI
		err error
	)
	if name == "" {
		dbi, err = t.mt.OpenRoot(uint(flags))
	} else {
		dbi, err = t.mt.OpenDBISimple(name, uint(flags))
	}
	if err != nil {
		return DB{}, t.fail(op, err)
	}
	f, err := t.mt.Flags(dbi)
	if err != nil {
		return DB{}, t.fail(op, err)
	}
	db, fresh := t.env.register(dbi, name, DBFlags(f)&persistentDBFlags)
	if fresh {
		t.opened = append(t.opened, dbi)
	}
	t.env.log.Debug("database opened", "name", name, "flags", db.flags, "create", flags&dbCreate != 0)
	return db, nil
}

// hasRecord fails with NOTFOUND when the default database holds no record
// for name. The engine reuses an open slot by name alone, so a slot left by
// an aborted creation would otherwise still open.
func (t *txn) hasRecord(name string) error {
	root, err := t.mt.OpenRoot(0)
	if err != nil {
		return err
	}
	if _, err := t.mt.Get(root, []byte(name)); errors.Is(err, mdbx.ErrNotFound) {
		return err
	}
	return nil
}
