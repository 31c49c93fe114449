//go:build amd64

package isa

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// AMD64Regs wraps the kernel's user_regs_struct for the x86-64 ABI.
type AMD64Regs struct {
	regs unix.PtraceRegs
}

func (r *AMD64Regs) Clone() Regs {
	c := *r
	return &c
}

func (r *AMD64Regs) PC() uint64     { return r.regs.Rip }
func (r *AMD64Regs) SetPC(pc uint64) { r.regs.Rip = pc }

func (r *AMD64Regs) SetNr(nr uintptr) { r.regs.Rax = uint64(nr) }

// SetArg installs argument i using the amd64 syscall calling
// convention: rdi, rsi, rdx, r10, r8.
func (r *AMD64Regs) SetArg(i int, v uint64) {
	switch i {
	case 0:
		r.regs.Rdi = v
	case 1:
		r.regs.Rsi = v
	case 2:
		r.regs.Rdx = v
	case 3:
		r.regs.R10 = v
	case 4:
		r.regs.R8 = v
	default:
		panic(fmt.Sprintf("isa: amd64 syscall argument slot %d out of range", i))
	}
}

func (r *AMD64Regs) Result() uint64 { return r.regs.Rax }

func amd64NewRegs() Regs {
	return &AMD64Regs{}
}

func amd64GetRegs(pid int) (Regs, error) {
	r := &AMD64Regs{}
	if err := unix.PtraceGetRegs(pid, &r.regs); err != nil {
		return nil, err
	}
	return r, nil
}

func amd64SetRegs(pid int, regs Regs) error {
	r, ok := regs.(*AMD64Regs)
	if !ok {
		return fmt.Errorf("isa: amd64 SetRegs given non-amd64 Regs (%T)", regs)
	}
	return unix.PtraceSetRegs(pid, &r.regs)
}

// amd64Step performs the single real PTRACE_SINGLESTEP the x86-64
// backend has available and blocks for the resulting stop.
func amd64Step(pid int) (unix.Signal, error) {
	if err := unix.PtraceSingleStep(pid); err != nil {
		return 0, err
	}
	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil {
		return 0, err
	}
	if !status.Stopped() {
		return 0, fmt.Errorf("isa: target did not stop after singlestep (status=%v)", status)
	}
	return status.StopSignal(), nil
}

// amd64SyscallResult implements the negative-return-value error
// convention: a result in [-4096, -1] is -errno.
func amd64SyscallResult(r Regs) (ret uint64, errno int, isErr bool) {
	ret = r.Result()
	signed := int64(ret)
	if signed >= -4096 && signed <= -1 {
		return ret, int(-signed), true
	}
	return ret, 0, false
}

func amd64SetSyscallReturn(r Regs, val uint64) {
	ar, ok := r.(*AMD64Regs)
	if !ok {
		panic(fmt.Sprintf("isa: amd64 SetSyscallReturn given non-amd64 Regs (%T)", r))
	}
	ar.regs.Rax = val
}

// AMD64 is the x86-64 ISA descriptor: `syscall` as the primary trap,
// `int 0x80` as the legacy compat trap, both checked against the low
// 16 bits of a word peeked from PC-2 (original_source's is_in_syscall).
var AMD64 = Descriptor{
	Name:      "amd64",
	WordSize:  8,
	PageSize:  4096,
	ByteOrder: binary.LittleEndian,

	TrapInsn:       0x050f, // `syscall`
	CompatTrapInsn: 0x80cd, // `int 0x80`
	HasCompatTrap:  true,
	TrapMask:       0xffff,

	Poison: 0xdeadbeef,

	LandingOffset:     0x10,
	SyscallPeekOffset: 2,

	NewRegs:          amd64NewRegs,
	GetRegs:          amd64GetRegs,
	SetRegs:          amd64SetRegs,
	Step:             amd64Step,
	SyscallResult:    amd64SyscallResult,
	SetSyscallReturn: amd64SetSyscallReturn,
}

// Current is the ISA descriptor for the architecture this binary was
// built for. Callers that don't care about cross-arch testing (the
// orchestrator, the CLI) use this instead of naming AMD64 or SPARC64
// directly, so the same source builds correctly on either GOARCH.
var Current = AMD64
