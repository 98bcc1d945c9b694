//go:build !linux && !windows

package mdbxkv

// threadID is unavailable here; 0 disables the writer self-deadlock check
// and the engine's own ownership check applies instead.
func threadID() int64 {
	return 0
}
