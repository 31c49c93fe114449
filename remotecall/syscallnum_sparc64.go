//go:build sparc64

package remotecall

// SPARC syscall numbers. golang.org/x/sys/unix does not generate a
// sparc64 syscall table, so these are carried directly from the
// published arch/sparc uapi syscall numbering
// (arch/sparc/include/uapi/asm/unistd.h) rather than a vendored
// constant; they are not re-verified against a running kernel here.
const (
	sysLseek       = 19
	sysFcntl       = 92
	sysMprotect    = 74
	sysRtSigaction = 102
	sysIoctl       = 54
	sysGetsockopt  = 118
)
