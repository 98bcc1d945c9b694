package mdbxkv

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/erigontech/mdbx-go/mdbx"
)

// ErrorCode is a status code reported by the storage engine. Negative values
// are MDBX conditions, positive values are host errno values.
//
// ErrorCode implements error so the constants can be used as errors.Is
// targets:
//
//	if errors.Is(err, mdbxkv.ErrNotFound) { ... }
type ErrorCode int

// Error codes - matching MDBX
const (
	// Success indicates the operation completed successfully
	Success ErrorCode = 0

	// ErrUnknown marks an error that carried no engine status code
	ErrUnknown ErrorCode = -1

	// ErrKeyExist indicates the key/data pair already exists
	ErrKeyExist ErrorCode = -30799

	// ErrNotFound indicates the key/data pair was not found (EOF)
	ErrNotFound ErrorCode = -30798

	// ErrPageNotFound indicates a requested page was not found (corruption)
	ErrPageNotFound ErrorCode = -30797

	// ErrCorrupted indicates the database is corrupted
	ErrCorrupted ErrorCode = -30796

	// ErrPanic indicates a fatal environment error
	ErrPanic ErrorCode = -30795

	// ErrVersionMismatch indicates DB version doesn't match library
	ErrVersionMismatch ErrorCode = -30794

	// ErrInvalid indicates the file is not a valid MDBX file
	ErrInvalid ErrorCode = -30793

	// ErrMapFull indicates the environment mapsize was reached
	ErrMapFull ErrorCode = -30792

	// ErrDBsFull indicates the environment maxdbs was reached
	ErrDBsFull ErrorCode = -30791

	// ErrReadersFull indicates the environment maxreaders was reached
	ErrReadersFull ErrorCode = -30790

	// ErrTxnFull indicates the transaction has too many dirty pages
	ErrTxnFull ErrorCode = -30788

	// ErrCursorFull indicates cursor stack overflow (corruption)
	ErrCursorFull ErrorCode = -30787

	// ErrPageFull indicates a page has no space (internal error)
	ErrPageFull ErrorCode = -30786

	// ErrUnableExtendMapsize indicates mapping couldn't be extended
	ErrUnableExtendMapsize ErrorCode = -30785

	// ErrIncompatible indicates incompatible operation or flags
	ErrIncompatible ErrorCode = -30784

	// ErrBadRSlot indicates reader slot was corrupted or reused
	ErrBadRSlot ErrorCode = -30783

	// ErrBadTxn indicates the transaction is invalid
	ErrBadTxn ErrorCode = -30782

	// ErrBadValSize indicates invalid key or data size
	ErrBadValSize ErrorCode = -30781

	// ErrBadDBI indicates the DBI handle is invalid
	ErrBadDBI ErrorCode = -30780

	// ErrProblem indicates an unexpected internal error
	ErrProblem ErrorCode = -30779

	// ErrBusy indicates another write transaction is running
	ErrBusy ErrorCode = -30778

	// ErrMultiVal indicates the key has multiple associated values
	ErrMultiVal ErrorCode = -30421

	// ErrBadSign indicates bad signature (memory corruption or ABI mismatch)
	ErrBadSign ErrorCode = -30420

	// ErrWannaRecovery indicates recovery is needed but DB is read-only
	ErrWannaRecovery ErrorCode = -30419

	// ErrKeyMismatch indicates key mismatch with cursor position
	ErrKeyMismatch ErrorCode = -30418

	// ErrTooLarge indicates database is too large for system
	ErrTooLarge ErrorCode = -30417

	// ErrThreadMismatch indicates thread attempted to use unowned object
	ErrThreadMismatch ErrorCode = -30416

	// ErrTxnOverlapping indicates overlapping read/write transactions
	ErrTxnOverlapping ErrorCode = -30415

	// ErrDanglingDBI indicates resources need closing before DBI can be reused
	ErrDanglingDBI ErrorCode = -30412
)

var codeNames = map[ErrorCode]string{
	Success:                "MDBX_SUCCESS",
	ErrUnknown:             "UNKNOWN",
	ErrKeyExist:            "MDBX_KEYEXIST",
	ErrNotFound:            "MDBX_NOTFOUND",
	ErrPageNotFound:        "MDBX_PAGE_NOTFOUND",
	ErrCorrupted:           "MDBX_CORRUPTED",
	ErrPanic:               "MDBX_PANIC",
	ErrVersionMismatch:     "MDBX_VERSION_MISMATCH",
	ErrInvalid:             "MDBX_INVALID",
	ErrMapFull:             "MDBX_MAP_FULL",
	ErrDBsFull:             "MDBX_DBS_FULL",
	ErrReadersFull:         "MDBX_READERS_FULL",
	ErrTxnFull:             "MDBX_TXN_FULL",
	ErrCursorFull:          "MDBX_CURSOR_FULL",
	ErrPageFull:            "MDBX_PAGE_FULL",
	ErrUnableExtendMapsize: "MDBX_UNABLE_EXTEND_MAPSIZE",
	ErrIncompatible:        "MDBX_INCOMPATIBLE",
	ErrBadRSlot:            "MDBX_BAD_RSLOT",
	ErrBadTxn:              "MDBX_BAD_TXN",
	ErrBadValSize:          "MDBX_BAD_VALSIZE",
	ErrBadDBI:              "MDBX_BAD_DBI",
	ErrProblem:             "MDBX_PROBLEM",
	ErrBusy:                "MDBX_BUSY",
	ErrMultiVal:            "MDBX_EMULTIVAL",
	ErrBadSign:             "MDBX_EBADSIGN",
	ErrWannaRecovery:       "MDBX_WANNA_RECOVERY",
	ErrKeyMismatch:         "MDBX_EKEYMISMATCH",
	ErrTooLarge:            "MDBX_TOO_LARGE",
	ErrThreadMismatch:      "MDBX_THREAD_MISMATCH",
	ErrTxnOverlapping:      "MDBX_TXN_OVERLAPPING",
	ErrDanglingDBI:         "MDBX_DANGLING_DBI",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	if c > 0 {
		return fmt.Sprintf("errno %d", int(c))
	}
	return fmt.Sprintf("code %d", int(c))
}

// Description returns the engine's human-readable message for the code.
func (c ErrorCode) Description() string {
	if c == ErrUnknown {
		return "unknown error"
	}
	return mdbx.Errno(c).Error()
}

// Error implements error.
func (c ErrorCode) Error() string {
	return c.Description()
}

// Kind groups error codes by what a caller can do about them.
type Kind uint8

const (
	// KindUnknown is an unrecognized code
	KindUnknown Kind = iota
	// KindExpected covers conditions callers branch on (not found, key exists)
	KindExpected
	// KindCapacity covers limits fixed at open or begin time
	KindCapacity
	// KindFatal covers corruption; abort and treat the environment as suspect
	KindFatal
	// KindMisuse covers API contract violations
	KindMisuse
	// KindOS covers host errors (permission, disk full, ...)
	KindOS
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindExpected: "expected",
	KindCapacity: "capacity",
	KindFatal:    "fatal",
	KindMisuse:   "misuse",
	KindOS:       "os",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kind classifies the code.
func (c ErrorCode) Kind() Kind {
	switch c {
	case ErrNotFound, ErrKeyExist:
		return KindExpected
	case ErrMapFull, ErrDBsFull, ErrReadersFull, ErrTxnFull, ErrUnableExtendMapsize, ErrTooLarge:
		return KindCapacity
	case ErrPageNotFound, ErrCorrupted, ErrPanic, ErrVersionMismatch, ErrInvalid,
		ErrCursorFull, ErrPageFull, ErrProblem, ErrBadSign, ErrWannaRecovery:
		return KindFatal
	case ErrIncompatible, ErrBadRSlot, ErrBadTxn, ErrBadValSize, ErrBadDBI, ErrBusy,
		ErrMultiVal, ErrKeyMismatch, ErrThreadMismatch, ErrTxnOverlapping, ErrDanglingDBI,
		errnoInvalid:
		return KindMisuse
	}
	if c > 0 {
		return KindOS
	}
	return KindUnknown
}

// Error is the error type returned by every fallible operation in this
// package.
type Error struct {
	Code ErrorCode
	Op   string // operation that failed, e.g. "put"
	Err  error  // engine error or a sentinel cause

	engine bool // Err came from the engine and carries no extra text
}

func (e *Error) Error() string {
	msg := e.Code.Description()
	if e.Err != nil && !e.engine {
		msg = e.Err.Error() + " (" + msg + ")"
	}
	if e.Op != "" {
		return "mdbxkv: " + e.Op + ": " + msg
	}
	return "mdbxkv: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an ErrorCode or *Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return t == e.Code
	case *Error:
		return t.Code == e.Code && (t.Err == nil || errors.Is(e.Err, t.Err))
	}
	return false
}

// Kind classifies the error.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Fatal reports whether the error indicates corruption. The only safe local
// action is to abort the transaction.
func (e *Error) Fatal() bool {
	return e.Code.Kind() == KindFatal
}

// Expected reports whether the error is a normal outcome such as a missing key.
func (e *Error) Expected() bool {
	return e.Code.Kind() == KindExpected
}

// Layer-detected misuse. These are wrapped in *Error with the code noted.
var (
	// ErrTxnDone: the transaction was committed, aborted or reset (ErrBadTxn)
	ErrTxnDone = errors.New("transaction has ended")

	// ErrChildActive: a nested transaction is active on this parent (ErrBadTxn)
	ErrChildActive = errors.New("nested transaction is active")

	// ErrCursorClosed: the cursor or its transaction is closed (ErrBadTxn)
	ErrCursorClosed = errors.New("cursor is closed")

	// ErrEnvClosed: the environment is closed or closing (ErrBadTxn)
	ErrEnvClosed = errors.New("environment is closed")

	// ErrStaleHandle: the database handle was closed (ErrBadDBI)
	ErrStaleHandle = errors.New("database handle is closed")

	// ErrForeignHandle: the database handle belongs to another environment (ErrBadDBI)
	ErrForeignHandle = errors.New("database handle belongs to another environment")

	// ErrReadOnlyEnv: write access requested on a read-only environment (EACCES)
	ErrReadOnlyEnv = errors.New("environment is read-only")

	// ErrWriterOnThread: the calling thread already holds the write transaction (ErrBadRSlot)
	ErrWriterOnThread = errors.New("calling thread owns the active write transaction")

	// ErrInvalidName: database name contains a NUL byte (EINVAL)
	ErrInvalidName = errors.New("database name contains a NUL byte")

	// ErrNotDupFixed: operation needs a DupSort|DupFixed database (ErrIncompatible)
	ErrNotDupFixed = errors.New("database is not DupSort|DupFixed")

	// ErrReserveDupSort: reserve was requested on a DupSort database (ErrIncompatible)
	ErrReserveDupSort = errors.New("reserve is not supported on DupSort databases")

	// ErrIterated: the cursor was already consumed by an iterator (ErrBadTxn)
	ErrIterated = errors.New("cursor iteration is single-pass")
)

func misuse(op string, code ErrorCode, cause error) error {
	return &Error{Code: code, Op: op, Err: cause}
}

// wrapErr translates an error returned by mdbx-go into *Error.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	code, ok := engineCode(err)
	if !ok {
		return &Error{Code: ErrUnknown, Op: op, Err: err}
	}
	return &Error{Code: code, Op: op, Err: err, engine: true}
}

func engineCode(err error) (ErrorCode, bool) {
	// mdbx-go reports NOTFOUND as a sentinel, not an Errno
	if errors.Is(err, mdbx.ErrNotFound) {
		return ErrNotFound, true
	}
	var op *mdbx.OpError
	if errors.As(err, &op) {
		err = op.Errno
	}
	var errno mdbx.Errno
	if errors.As(err, &errno) {
		return ErrorCode(errno), true
	}
	var sys syscall.Errno
	if errors.As(err, &sys) {
		return ErrorCode(sys), true
	}
	return 0, false
}

// Code returns the status code carried by err, Success for nil and
// ErrUnknown for errors without one.
func Code(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if code, ok := engineCode(err); ok {
		return code
	}
	return ErrUnknown
}

// KindOf classifies err. Nil errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	return Code(err).Kind()
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return Code(err) == ErrNotFound
}

// IsKeyExist returns true if the error is ErrKeyExist
func IsKeyExist(err error) bool {
	return Code(err) == ErrKeyExist
}

// IsMapFull returns true if the error is ErrMapFull
func IsMapFull(err error) bool {
	return Code(err) == ErrMapFull
}

// IsCorrupted returns true if the error indicates database corruption
func IsCorrupted(err error) bool {
	c := Code(err)
	return c == ErrCorrupted || c == ErrPageNotFound
}

// IsDiskFull reports a host out-of-space or quota error.
func IsDiskFull(err error) bool {
	return hasCode(err, diskFullCodes)
}

// IsPermission reports a host access-denied error.
func IsPermission(err error) bool {
	return hasCode(err, permissionCodes)
}

func hasCode(err error, codes []ErrorCode) bool {
	c := Code(err)
	for _, want := range codes {
		if c == want {
			return true
		}
	}
	return false
}
