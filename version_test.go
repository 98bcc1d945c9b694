package mdbxkv

import (
	"fmt"
	"testing"
)

func TestVersion(t *testing.T) {
	want := fmt.Sprintf("mdbxkv %d.%d.%d", Major, Minor, Patch)
	if got := Version(); got != want {
		t.Errorf("Version() = %q, want %q", got, want)
	}
	info := GetVersionInfo()
	if info.Binding != Binding || info.Major != Major || info.Minor != Minor || info.Patch != Patch {
		t.Errorf("GetVersionInfo() = %+v", info)
	}
}
