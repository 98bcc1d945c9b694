package mdbxkv

import "fmt"

const (
	Major = 0
	Minor = 1
	Patch = 0
)

// Binding names the mdbx-go release this layer is built and tested against.
const Binding = "mdbx-go v0.40.0"

// VersionInfo describes this build of the access layer.
type VersionInfo struct {
	Major, Minor, Patch int
	Binding             string
}

// String formats v as "mdbxkv X.Y.Z".
func (v VersionInfo) String() string {
	return fmt.Sprintf("mdbxkv %d.%d.%d", v.Major, v.Minor, v.Patch)
}

// GetVersionInfo returns the layer version and its engine binding.
func GetVersionInfo() VersionInfo {
	return VersionInfo{Major: Major, Minor: Minor, Patch: Patch, Binding: Binding}
}

// Version returns the version string of mdbxkv.
func Version() string {
	return GetVersionInfo().String()
}
