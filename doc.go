// Package mdbxkv is a safe access layer over libmdbx, an embedded
// memory-mapped copy-on-write B+ tree key-value store.
//
// The layer turns the engine's informal rules into types and runtime checks:
//   - ReadTxn and WriteTxn are separate types; only WriteTxn mutates
//   - at most one WriteTxn is active per environment, BeginWrite blocks
//   - cursors, nested transactions and borrowed values are bounded by
//     their transaction and fail with an *Error after it ends
//   - database handles are checked against the environment that issued
//     them
//   - every engine status is translated into an *Error with a Kind
//
// Basic usage:
//
//	env, err := mdbxkv.Configure().
//	    SetMapSize(1 << 30).
//	    SetMaxDBs(4).
//	    Open("/path/to/db", 0644)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	db, err := env.CreateDatabase("users", mdbxkv.DBDefaults)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = env.Update(func(txn *mdbxkv.WriteTxn) error {
//	    return txn.Put(db, []byte("key"), []byte("value"), mdbxkv.Upsert)
//	})
//
// Values returned by reads point into the memory map. They are valid until
// the transaction ends or, inside a WriteTxn, until the next write. Copy a
// value to keep it longer. SetBorrowCheck makes violations visible in tests.
package mdbxkv
