// Package errkind provides typed error handling for the cryopid-go
// checkpointing core.
//
// Every primitive that talks to ptrace or the kernel fails with a
// CoreError carrying a Kind, so callers can classify it and, at the
// orchestrator boundary, decide whether to abort the capture. All
// errors support the standard errors.Is() and errors.As() functions.
package errkind

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrAttachFailed indicates ptrace(PTRACE_ATTACH) failed.
	ErrAttachFailed ErrorKind = iota
	// ErrDetachFailed indicates ptrace(PTRACE_DETACH) failed.
	ErrDetachFailed
	// ErrPeekFailed indicates a PEEKTEXT/PEEKDATA failed.
	ErrPeekFailed
	// ErrPokeFailed indicates a POKETEXT/POKEDATA failed.
	ErrPokeFailed
	// ErrGetRegsFailed indicates PTRACE_GETREGS failed.
	ErrGetRegsFailed
	// ErrSetRegsFailed indicates PTRACE_SETREGS failed.
	ErrSetRegsFailed
	// ErrStepFailed indicates a single-step (or syscall-step pair) failed.
	ErrStepFailed
	// ErrWaitFailed indicates waitpid/wait4 on the target failed.
	ErrWaitFailed
	// ErrNoScribbleZone indicates the remote syscall engine was invoked
	// before any fetcher published a scribble zone.
	ErrNoScribbleZone
	// ErrRemoteSyscallFailed indicates the eight-step remote syscall
	// protocol could not complete: the step across the trap ended on a
	// stop other than SIGTRAP. On SPARC only the final syscall-exit
	// stop's signal is judged; a non-TRAP stop on the retried
	// syscall-entry is not reported by itself.
	ErrRemoteSyscallFailed
	// ErrKernelSyscallError indicates the remote syscall executed but the
	// kernel returned an error. Not fatal — this is the expected result
	// channel for the typed façade.
	ErrKernelSyscallError
	// ErrAlreadyRestored indicates a PageBackup was consumed twice.
	ErrAlreadyRestored
	// ErrInternal indicates an internal invariant violation.
	ErrInternal
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrAttachFailed:
		return "attach failed"
	case ErrDetachFailed:
		return "detach failed"
	case ErrPeekFailed:
		return "peek failed"
	case ErrPokeFailed:
		return "poke failed"
	case ErrGetRegsFailed:
		return "get regs failed"
	case ErrSetRegsFailed:
		return "set regs failed"
	case ErrStepFailed:
		return "step failed"
	case ErrWaitFailed:
		return "wait failed"
	case ErrNoScribbleZone:
		return "no scribble zone"
	case ErrRemoteSyscallFailed:
		return "remote syscall failed"
	case ErrKernelSyscallError:
		return "kernel syscall error"
	case ErrAlreadyRestored:
		return "page backup already restored"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// CoreError represents an error that occurred in the checkpointing core.
type CoreError struct {
	// Op is the operation that failed (e.g. "attach", "peek_word").
	Op string
	// PID is the target process ID, if applicable.
	PID int
	// Syscall is the syscall name, for KernelSyscallError/RemoteSyscallFailed.
	Syscall string
	// Errno is the kernel errno, for KernelSyscallError.
	Errno int
	// Err is the underlying error.
	Err error
	// Kind is the error classification.
	Kind ErrorKind
	// Detail provides additional context about the error.
	Detail string
}

// Error returns the error message.
func (e *CoreError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	if e.PID != 0 {
		msg = fmt.Sprintf("pid %d: ", e.PID)
	}
	if e.Op != "" {
		msg += fmt.Sprintf("%s: ", e.Op)
	}
	if e.Syscall != "" {
		msg += fmt.Sprintf("%s: ", e.Syscall)
	}
	if e.Detail != "" {
		msg += e.Detail
	} else {
		msg += e.Kind.String()
	}
	if e.Errno != 0 {
		msg += fmt.Sprintf(" (errno %d)", e.Errno)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the error matches the target.
// It matches if the target is a *CoreError with the same Kind,
// or if the underlying error matches.
func (e *CoreError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if t, ok := target.(*CoreError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new CoreError with the given kind.
func New(kind ErrorKind, op string, detail string) *CoreError {
	return &CoreError{
		Op:     op,
		Kind:   kind,
		Detail: detail,
	}
}

// Wrap wraps an error with core context.
func Wrap(err error, kind ErrorKind, op string) *CoreError {
	return &CoreError{
		Op:   op,
		Err:  err,
		Kind: kind,
	}
}

// WrapPID wraps an error with core context and a target PID.
func WrapPID(err error, kind ErrorKind, op string, pid int) *CoreError {
	return &CoreError{
		Op:   op,
		PID:  pid,
		Err:  err,
		Kind: kind,
	}
}

// SyscallError builds a KernelSyscallError for the typed façade: not
// fatal, the expected result channel for a remote syscall that the
// kernel rejected.
func SyscallError(pid int, name string, errno int) *CoreError {
	return &CoreError{
		Op:      "remote_syscall",
		PID:     pid,
		Syscall: name,
		Errno:   errno,
		Kind:    ErrKernelSyscallError,
		Detail:  fmt.Sprintf("%s returned errno %d", name, errno),
	}
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind ErrorKind) bool {
	var cerr *CoreError
	if errors.As(err, &cerr) {
		return cerr.Kind == kind
	}
	return false
}

// GetKind returns the error kind if the error is a CoreError.
func GetKind(err error) (ErrorKind, bool) {
	var cerr *CoreError
	if errors.As(err, &cerr) {
		return cerr.Kind, true
	}
	return 0, false
}

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
