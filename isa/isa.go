// Package isa holds the architectural constants and raw register-file
// access for each supported target architecture. No other package in
// this module may know a trap opcode, a register name, or a ptrace
// argument order directly — they go through a Descriptor instead.
package isa

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Regs is an opaque, architecture-specific register-file snapshot.
// Higher layers only touch it through Descriptor's accessors and
// through the positional slot methods below, which every backend
// must implement consistently with its own calling convention.
type Regs interface {
	// Clone returns an independent copy, so a caller can mutate one
	// snapshot while keeping another as the value to restore.
	Clone() Regs

	// PC returns the program counter.
	PC() uint64
	// SetPC sets the program counter.
	SetPC(pc uint64)

	// SetNr installs a syscall number into the number slot.
	SetNr(nr uintptr)
	// SetArg installs a value into argument slot i (0..4), only ever
	// called when the caller's use-mask says the slot is live.
	SetArg(i int, v uint64)

	// Result returns the raw value sitting in the return slot after a
	// step, before error-convention translation.
	Result() uint64
}

// Descriptor is a per-architecture constant table plus the small set
// of raw operations whose argument order or mechanism is genuinely
// architecture-specific (ptrace's GETREGS/SETREGS argument order is
// reversed between amd64 and SPARC; stepping across a trap has no
// single-step primitive on SPARC at all). Everything else in this
// module — attach/detach, word peek/poke, page backup — is ABI
// identical across backends and lives in package ptracer instead.
type Descriptor struct {
	// Name identifies the backend for logging ("amd64", "sparc64").
	Name string

	// WordSize is the size in bytes of one addressable word.
	WordSize int
	// PageSize is the target page size in bytes.
	PageSize int
	// ByteOrder is the backend's native byte order, used to pack and
	// unpack the word-granular peek/poke buffers ptrace exchanges.
	ByteOrder binary.ByteOrder

	// TrapInsn is the instruction word for a syscall trap.
	TrapInsn uint64
	// CompatTrapInsn is the legacy/compat trap instruction, if the
	// backend has one (amd64's `int 0x80`). HasCompatTrap is false on
	// backends without a second convention.
	CompatTrapInsn uint64
	HasCompatTrap  bool
	// TrapMask is applied to a peeked word before comparing it against
	// TrapInsn/CompatTrapInsn (amd64 only cares about the low 16 bits
	// of what PEEKDATA returns; SPARC compares the low 32 bits).
	TrapMask uint64

	// Poison is stamped over a page's words as BackupPage reads them.
	Poison uint64

	// LandingOffset is added to the scribble zone's base address to
	// get the landing address the engine writes its trap word to.
	LandingOffset uint64
	// SyscallPeekOffset is subtracted from PC to find the address of
	// the instruction that trapped, for IsInSyscall.
	SyscallPeekOffset uint64

	// NewRegs allocates a zero-valued Regs of this backend's concrete
	// type, for GetRegs to fill in.
	NewRegs func() Regs
	// GetRegs and SetRegs wrap PTRACE_GETREGS/PTRACE_SETREGS with this
	// backend's argument order.
	GetRegs func(pid int) (Regs, error)
	SetRegs func(pid int, r Regs) error
	// Step advances the target across exactly one trap-syscall and
	// returns the stop signal. On backends without single-step
	// (SPARC), this performs the syscall-entry/exit pair substitution
	// and the one permitted retry on a non-TRAP stop, per the
	// engine's step_once contract.
	Step func(pid int) (unix.Signal, error)

	// SyscallResult extracts (returnValue, errno, isError) from a
	// post-call Regs snapshot, applying this backend's error
	// convention (negative-return-value range, or a carry-bit flag).
	SyscallResult func(r Regs) (ret uint64, errno int, isErr bool)
	// SetSyscallReturn writes val into the return slot — used by
	// out-of-core register-chunk fetchers replaying a syscall result,
	// not by the engine itself.
	SetSyscallReturn func(r Regs, val uint64)
}

// IsInSyscall reports whether textWord — the word peeked from the
// target at PC-SyscallPeekOffset — is this backend's trap-syscall
// instruction (in either its primary or compat encoding).
func (d Descriptor) IsInSyscall(textWord uint64) bool {
	w := textWord & d.TrapMask
	if w == d.TrapInsn&d.TrapMask {
		return true
	}
	if d.HasCompatTrap && w == d.CompatTrapInsn&d.TrapMask {
		return true
	}
	return false
}
