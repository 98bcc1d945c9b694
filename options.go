package mdbxkv

import (
	"os"
	"time"

	"github.com/erigontech/mdbx-go/mdbx"
)

// Defaults applied by Configure.
const (
	DefaultMapSize    = 10 << 20
	DefaultMaxReaders = 126
)

// EnvBuilder collects open-time settings. The zero value is not usable; call
// Configure.
type EnvBuilder struct {
	mapSize     int64
	maxReaders  uint64
	maxDBs      uint64
	flags       EnvFlags
	label       string
	log         Logger
	borrowCheck bool
	slowWriter  time.Duration
}

// Configure returns a builder with default settings.
func Configure() *EnvBuilder {
	return &EnvBuilder{
		mapSize:    DefaultMapSize,
		maxReaders: DefaultMaxReaders,
		label:      string(mdbx.Default),
		log:        nopLogger{},
	}
}

// SetMapSize sets the maximum size of the memory map. The size is rounded
// up to a multiple of the OS page size.
func (b *EnvBuilder) SetMapSize(size int64) *EnvBuilder {
	b.mapSize = alignToSysPageSize(size)
	return b
}

// SetMaxReaders bounds the number of concurrent read transactions.
func (b *EnvBuilder) SetMaxReaders(n uint) *EnvBuilder {
	b.maxReaders = uint64(n)
	return b
}

// SetMaxDBs bounds the number of named databases. Required before opening
// any named database.
func (b *EnvBuilder) SetMaxDBs(n uint) *EnvBuilder {
	b.maxDBs = uint64(n)
	return b
}

// SetFlags replaces the open-time flags.
func (b *EnvBuilder) SetFlags(flags EnvFlags) *EnvBuilder {
	b.flags = flags
	return b
}

// SetLabel names the environment in engine diagnostics.
func (b *EnvBuilder) SetLabel(label string) *EnvBuilder {
	b.label = label
	return b
}

// SetLogger installs a logger. A nil logger discards.
func (b *EnvBuilder) SetLogger(l Logger) *EnvBuilder {
	if l == nil {
		l = nopLogger{}
	}
	b.log = l
	return b
}

// SetBorrowCheck makes borrowed values tracked copies that are poisoned when
// they become invalid. Intended for tests.
func (b *EnvBuilder) SetBorrowCheck(on bool) *EnvBuilder {
	b.borrowCheck = on
	return b
}

// SetSlowWriterThreshold logs a warning when BeginWrite waits longer than d
// for the write lock. Zero disables the warning.
func (b *EnvBuilder) SetSlowWriterThreshold(d time.Duration) *EnvBuilder {
	b.slowWriter = d
	return b
}

// Open creates or attaches to the store at path. Files are created with mode.
func (b *EnvBuilder) Open(path string, mode os.FileMode) (*Env, error) {
	menv, err := mdbx.NewEnv(mdbx.Label(b.label))
	if err != nil {
		return nil, wrapErr("env create", err)
	}
	opened := false
	defer func() {
		if !opened {
			menv.Close()
		}
	}()

	if b.maxDBs > 0 {
		if err := menv.SetOption(mdbx.OptMaxDB, b.maxDBs); err != nil {
			return nil, wrapErr("set max dbs", err)
		}
	}
	if err := menv.SetOption(mdbx.OptMaxReaders, b.maxReaders); err != nil {
		return nil, wrapErr("set max readers", err)
	}
	if err := menv.SetGeometry(-1, -1, int(b.mapSize), -1, -1, -1); err != nil {
		return nil, wrapErr("set geometry", err)
	}
	if err := menv.Open(path, uint(b.flags|noTLS), mode); err != nil {
		return nil, wrapErr("env open", err)
	}
	opened = true

	e := newEnv(menv, path, b)
	e.log.Info("environment opened", "path", path, "flags", b.flags, "mapsize", b.mapSize, "maxreaders", b.maxReaders)
	return e, nil
}

// alignToSysPageSize rounds size up to a multiple of the system page size.
func alignToSysPageSize(size int64) int64 {
	pageSize := int64(os.Getpagesize())
	if size <= 0 {
		return pageSize
	}
	return (size + pageSize - 1) &^ (pageSize - 1)
}
