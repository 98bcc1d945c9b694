package mdbxkv

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
)

// openTestEnv opens an environment in a temporary directory and closes it
// when the test ends.
func openTestEnv(t *testing.T, b *EnvBuilder) *Env {
	t.Helper()
	if b == nil {
		b = Configure()
	}
	env, err := b.Open(t.TempDir(), 0644)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}

// putAll writes pairs in one committed transaction.
func putAll(t *testing.T, env *Env, db DB, pairs ...string) {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("putAll needs key/value pairs")
	}
	err := env.Update(func(txn *WriteTxn) error {
		for i := 0; i < len(pairs); i += 2 {
			if err := txn.Put(db, []byte(pairs[i]), []byte(pairs[i+1]), Upsert); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

// inGoroutine runs fn on a separate goroutine and waits for it.
func inGoroutine(t *testing.T, fn func() error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func expectEntry(t *testing.T, op string, k, v []byte, err error, wantKey, wantVal string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", op, err)
	}
	if wantKey == "" {
		if k != nil {
			t.Errorf("%s: key = %q, want nil", op, k)
		}
	} else if !bytes.Equal(k, []byte(wantKey)) {
		t.Errorf("%s: key = %q, want %q", op, k, wantKey)
	}
	if !bytes.Equal(v, []byte(wantVal)) {
		t.Errorf("%s: value = %q, want %q", op, v, wantVal)
	}
}

func expectCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", code)
	}
	if got := Code(err); got != code {
		t.Fatalf("expected %v, got %v (%v)", code, got, err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %T is not *Error", err)
	}
}

func pageSizeForTest() int {
	return os.Getpagesize()
}

// recordLogger keeps every message it receives.
type recordLogger struct {
	mu  sync.Mutex
	msg []string
}

func (l *recordLogger) add(level, msg string, ctx []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = append(l.msg, level+" "+msg+" "+fmt.Sprint(ctx...))
}

func (l *recordLogger) Debug(msg string, ctx ...any) { l.add("debug", msg, ctx) }
func (l *recordLogger) Info(msg string, ctx ...any)  { l.add("info", msg, ctx) }
func (l *recordLogger) Warn(msg string, ctx ...any)  { l.add("warn", msg, ctx) }
func (l *recordLogger) Error(msg string, ctx ...any) { l.add("error", msg, ctx) }

func (l *recordLogger) has(level, msg string) bool {
	for _, m := range l.lines() {
		if strings.HasPrefix(m, level+" "+msg) {
			return true
		}
	}
	return false
}

func (l *recordLogger) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msg...)
}
