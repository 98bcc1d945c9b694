package mdbxkv

// Logger receives environment lifecycle and commit events.
type Logger interface {
	// Debug logs a message at the debug level with context key/value pairs
	Debug(msg string, ctx ...any)

	// Info logs a message at the info level with context key/value pairs
	Info(msg string, ctx ...any)

	// Warn logs a message at the warn level with context key/value pairs
	Warn(msg string, ctx ...any)

	// Error logs a message at the error level with context key/value pairs
	Error(msg string, ctx ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// logFatal reports err at the error level when it indicates corruption.
func (e *Env) logFatal(op string, err error) {
	if KindOf(err) == KindFatal {
		e.log.Error("storage engine reported corruption", "op", op, "path", e.path, "err", err)
	}
}
