//go:build amd64

package remotecall

import "golang.org/x/sys/unix"

// x86-64 syscall numbers, taken straight from golang.org/x/sys/unix's
// generated tables for this GOARCH.
const (
	sysLseek       = unix.SYS_LSEEK
	sysFcntl       = unix.SYS_FCNTL
	sysMprotect    = unix.SYS_MPROTECT
	sysRtSigaction = unix.SYS_RT_SIGACTION
	sysIoctl       = unix.SYS_IOCTL
	sysGetsockopt  = unix.SYS_GETSOCKOPT
)
