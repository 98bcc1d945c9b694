//go:build unix

package mdbxkv

import "golang.org/x/sys/unix"

const (
	errnoInvalid = ErrorCode(unix.EINVAL)
	errnoAccess  = ErrorCode(unix.EACCES)
)

var diskFullCodes = []ErrorCode{
	ErrorCode(unix.ENOSPC),
	ErrorCode(unix.EDQUOT),
}

var permissionCodes = []ErrorCode{
	ErrorCode(unix.EACCES),
	ErrorCode(unix.EPERM),
	ErrorCode(unix.EROFS),
}
