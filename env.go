package mdbxkv

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/mdbxkv/internal/fastmap"
)

// coreDBIs counts the engine's built-in slots (free list and default
// database). They are never closed.
const coreDBIs = 2

// Signatures for validation
const (
	envSignature    = 0x454E5658 // "ENVX"
	txnSignature    = 0x54584E58 // "TXNX"
	cursorSignature = 0x43555258 // "CURX"
)

// Env is an open storage environment. It is safe for concurrent use.
//
// Every transaction holds a reference on the environment; Close blocks until
// all of them have ended, including reset read transactions.
type Env struct {
	signature uint32

	env         *mdbx.Env
	path        string
	flags       EnvFlags
	maxReaders  uint
	log         Logger
	borrowCheck bool
	slowWriter  time.Duration

	// Lifecycle
	mu     sync.Mutex
	idle   *sync.Cond
	live   int
	closed bool

	// dbiMu serializes database handle opening
	dbiMu sync.Mutex

	dbisMu sync.RWMutex
	dbis   fastmap.Map[dbiEntry]
	dbiGen uint64

	// OS thread that owns the active write transaction, 0 if none
	writerTid atomic.Int64
}

func newEnv(menv *mdbx.Env, path string, b *EnvBuilder) *Env {
	e := &Env{
		signature:   envSignature,
		env:         menv,
		path:        path,
		flags:       b.flags,
		maxReaders:  uint(b.maxReaders),
		log:         b.log,
		borrowCheck: b.borrowCheck,
		slowWriter:  b.slowWriter,
	}
	e.idle = sync.NewCond(&e.mu)
	return e
}

// valid checks if the environment is valid
func (e *Env) valid() bool {
	return e != nil && e.signature == envSignature
}

// acquire registers a transaction against the environment.
func (e *Env) acquire(op string) error {
	if !e.valid() {
		return misuse(op, ErrBadTxn, ErrEnvClosed)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return misuse(op, ErrBadTxn, ErrEnvClosed)
	}
	e.live++
	return nil
}

func (e *Env) release() {
	e.mu.Lock()
	e.live--
	if e.live == 0 {
		e.idle.Broadcast()
	}
	e.mu.Unlock()
}

// Close waits for every outstanding transaction to end, then unmaps the
// store. Calling Close from a goroutine that still holds a transaction
// deadlocks. Close is idempotent.
func (e *Env) Close() error {
	if !e.valid() {
		return nil
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for e.live > 0 {
		e.idle.Wait()
	}
	e.mu.Unlock()

	e.dbisMu.Lock()
	e.dbis.Clear()
	e.dbisMu.Unlock()

	e.env.Close()
	e.signature = 0
	e.log.Info("environment closed", "path", e.path)
	return nil
}

// Path returns the path the environment was opened with.
func (e *Env) Path() string {
	return e.path
}

// MaxReaders returns the configured reader slot limit.
func (e *Env) MaxReaders() uint {
	return e.maxReaders
}

// Flags returns the current environment flags.
func (e *Env) Flags() (EnvFlags, error) {
	if err := e.acquire("env flags"); err != nil {
		return 0, err
	}
	defer e.release()
	f, err := e.env.Flags()
	if err != nil {
		return 0, wrapErr("env flags", err)
	}
	return EnvFlags(f) &^ noTLS, nil
}

func (e *Env) readOnly() bool {
	return e.flags&ReadOnly != 0
}

// Sync flushes buffered writes to disk. With force the flush happens even
// when the sync flags would skip it. Fails on a read-only environment.
func (e *Env) Sync(force bool) error {
	if e.readOnly() {
		return &Error{Code: errnoAccess, Op: "sync", Err: ErrReadOnlyEnv}
	}
	if err := e.acquire("sync"); err != nil {
		return err
	}
	defer e.release()
	if err := e.env.Sync(force, false); err != nil {
		return wrapErr("sync", err)
	}
	return nil
}

// SetSyncFlags turns SafeNoSync and NoMetaSync on or off at runtime.
// Other flags are fixed at open time and fail with ErrIncompatible.
func (e *Env) SetSyncFlags(flags EnvFlags, on bool) error {
	if flags&^syncFlags != 0 {
		return misuse("set flags", ErrIncompatible, nil)
	}
	if err := e.acquire("set flags"); err != nil {
		return err
	}
	defer e.release()
	var err error
	if on {
		err = e.env.SetFlags(uint(flags))
	} else {
		err = e.env.UnsetFlags(uint(flags))
	}
	return wrapErr("set flags", err)
}

// checkWriterThread fails if the calling OS thread owns the active write
// transaction. Beginning another one there would wait on itself.
func (e *Env) checkWriterThread(op string) error {
	tid := threadID()
	if tid != 0 && e.writerTid.Load() == tid {
		return misuse(op, ErrBadRSlot, ErrWriterOnThread)
	}
	return nil
}

// BeginRead starts a read-only transaction over a snapshot of the last
// committed state. Read transactions never block on each other or on the
// writer.
func (e *Env) BeginRead() (*ReadTxn, error) {
	if err := e.acquire("begin read"); err != nil {
		return nil, err
	}
	mt, err := e.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		e.release()
		return nil, wrapErr("begin read", err)
	}
	return &ReadTxn{txn: e.newTxn(mt, false)}, nil
}

// BeginWrite starts a read-write transaction, blocking until any other write
// transaction (in this or another process) ends. The calling goroutine is
// locked to its OS thread until the transaction commits or aborts.
func (e *Env) BeginWrite() (*WriteTxn, error) {
	if e.readOnly() {
		return nil, &Error{Code: errnoAccess, Op: "begin write", Err: ErrReadOnlyEnv}
	}
	if err := e.acquire("begin write"); err != nil {
		return nil, err
	}
	runtime.LockOSThread()
	if err := e.checkWriterThread("begin write"); err != nil {
		runtime.UnlockOSThread()
		e.release()
		return nil, err
	}

	start := time.Now()
	mt, err := e.env.BeginTxn(nil, 0)
	if err != nil {
		runtime.UnlockOSThread()
		e.release()
		return nil, wrapErr("begin write", err)
	}
	if wait := time.Since(start); e.slowWriter > 0 && wait > e.slowWriter {
		e.log.Warn("waited for write lock", "path", e.path, "wait", wait)
	}
	e.writerTid.Store(threadID())
	return &WriteTxn{txn: e.newTxn(mt, true)}, nil
}

// OpenDatabase returns a handle to an existing database. An empty name
// selects the default database. The handle stays valid until CloseDatabase
// or Close. Opening and publishing the handle is serialized with every other
// handle open in the process.
func (e *Env) OpenDatabase(name string) (DB, error) {
	if err := e.checkWriterThread("open database"); err != nil {
		return DB{}, err
	}
	txn, err := e.BeginRead()
	if err != nil {
		return DB{}, err
	}
	e.dbiMu.Lock()
	defer e.dbiMu.Unlock()
	txn.dbiLocked = true
	db, err := txn.openDBLocked("open database", name, dbAccede)
	if err != nil {
		txn.Abort()
		return DB{}, err
	}
	if err := txn.Commit(); err != nil {
		return DB{}, err
	}
	return db, nil
}

// CreateDatabase opens the database, creating it with flags if absent.
// The flags of an existing database are not changed; combining it with
// incompatible flags fails with ErrIncompatible.
func (e *Env) CreateDatabase(name string, flags DBFlags) (DB, error) {
	txn, err := e.BeginWrite()
	if err != nil {
		return DB{}, err
	}
	// taken after the write lock: a writer opening handles needs dbiMu
	e.dbiMu.Lock()
	defer e.dbiMu.Unlock()
	txn.dbiLocked = true
	db, err := txn.openDBLocked("create database", name, flags|dbCreate)
	if err != nil {
		txn.Abort()
		return DB{}, err
	}
	if err := txn.Commit(); err != nil {
		return DB{}, err
	}
	return db, nil
}

// DatabaseFlags returns the flags a database was created with.
func (e *Env) DatabaseFlags(db DB) (DBFlags, error) {
	txn, err := e.BeginRead()
	if err != nil {
		return 0, err
	}
	defer txn.Abort()
	return txn.Flags(db)
}

// CloseDatabase releases the handle slot. Any later use of db, or of a copy
// of it, fails with ErrBadDBI. No transaction may be using db.
func (e *Env) CloseDatabase(db DB) error {
	if err := e.acquire("close database"); err != nil {
		return err
	}
	defer e.release()
	e.dbiMu.Lock()
	defer e.dbiMu.Unlock()
	if _, err := e.resolve("close database", db); err != nil {
		return err
	}
	e.unregister(db.dbi)
	e.env.CloseDBI(db.dbi)
	e.log.Debug("database closed", "name", db.name)
	return nil
}

// closeOrphans releases engine slots opened by aborted writes that no
// registered handle refers to.
func (e *Env) closeOrphans(dbis []mdbx.DBI, locked bool) {
	if !locked {
		e.dbiMu.Lock()
		defer e.dbiMu.Unlock()
	}
	for _, dbi := range dbis {
		if dbi < coreDBIs {
			continue
		}
		e.dbisMu.RLock()
		_, live := e.dbis.Get(uint32(dbi))
		e.dbisMu.RUnlock()
		if !live {
			e.env.CloseDBI(dbi)
		}
	}
}

type dbiEntry struct {
	gen   uint64
	name  string
	flags DBFlags
}

// register records a handle returned by the engine. Reopening the same name
// yields the same handle and keeps earlier copies valid; fresh reports a
// handle not seen before.
func (e *Env) register(dbi mdbx.DBI, name string, flags DBFlags) (db DB, fresh bool) {
	e.dbisMu.Lock()
	defer e.dbisMu.Unlock()
	ent, ok := e.dbis.Get(uint32(dbi))
	if !ok || ent.name != name {
		e.dbiGen++
		ent = dbiEntry{gen: e.dbiGen, name: name}
		fresh = true
	}
	ent.flags = flags
	e.dbis.Set(uint32(dbi), ent)
	return DB{dbi: dbi, gen: ent.gen, name: name, flags: flags, env: e}, fresh
}

func (e *Env) unregister(dbi mdbx.DBI) {
	e.dbisMu.Lock()
	e.dbis.Delete(uint32(dbi))
	e.dbisMu.Unlock()
}

// resolve checks that db was issued by this environment and is still open.
func (e *Env) resolve(op string, db DB) (mdbx.DBI, error) {
	if db.env == nil {
		return 0, misuse(op, ErrBadDBI, ErrStaleHandle)
	}
	if db.env != e {
		return 0, misuse(op, ErrBadDBI, ErrForeignHandle)
	}
	e.dbisMu.RLock()
	ent, ok := e.dbis.Get(uint32(db.dbi))
	e.dbisMu.RUnlock()
	if !ok || ent.gen != db.gen {
		return 0, misuse(op, ErrBadDBI, ErrStaleHandle)
	}
	return db.dbi, nil
}

func validName(name string) bool {
	return !strings.ContainsRune(name, 0)
}
