//go:build windows

package mdbxkv

import "golang.org/x/sys/windows"

const (
	errnoInvalid = ErrorCode(windows.ERROR_INVALID_PARAMETER)
	errnoAccess  = ErrorCode(windows.ERROR_ACCESS_DENIED)
)

var diskFullCodes = []ErrorCode{
	ErrorCode(windows.ERROR_DISK_FULL),
	ErrorCode(windows.ERROR_HANDLE_DISK_FULL),
}

var permissionCodes = []ErrorCode{
	ErrorCode(windows.ERROR_ACCESS_DENIED),
	ErrorCode(windows.ERROR_WRITE_PROTECT),
}
