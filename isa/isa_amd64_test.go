//go:build amd64

package isa

import "testing"

func TestAMD64_IsInSyscall(t *testing.T) {
	tests := []struct {
		name string
		word uint64
		want bool
	}{
		{"syscall trap, clean word", 0x050f, true},
		{"syscall trap, garbage high bits", 0xdeadbeef00000000 | 0x050f, true},
		{"int 0x80 compat trap", 0x80cd, true},
		{"int 0x80 with garbage high bits", 0x1234567800000000 | 0x80cd, true},
		{"unrelated word", 0x9090, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AMD64.IsInSyscall(tt.word); got != tt.want {
				t.Errorf("IsInSyscall(%#x) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestAMD64Regs_ArgSlots(t *testing.T) {
	r := &AMD64Regs{}
	r.SetNr(59)
	r.SetArg(0, 1)
	r.SetArg(1, 2)
	r.SetArg(2, 3)
	r.SetArg(3, 4)
	r.SetArg(4, 5)

	if r.regs.Rax != 59 {
		t.Errorf("Rax = %d, want 59", r.regs.Rax)
	}
	if r.regs.Rdi != 1 || r.regs.Rsi != 2 || r.regs.Rdx != 3 || r.regs.R10 != 4 || r.regs.R8 != 5 {
		t.Errorf("argument registers not wired to the amd64 syscall convention: %+v", r.regs)
	}
}

func TestAMD64Regs_ArgSlotOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range argument slot")
		}
	}()
	(&AMD64Regs{}).SetArg(5, 0)
}

func TestAMD64Regs_Clone(t *testing.T) {
	r := &AMD64Regs{}
	r.SetPC(0x400000)
	clone := r.Clone()
	clone.SetPC(0x500000)

	if r.PC() == clone.PC() {
		t.Error("Clone should be independent of the original")
	}
}

func TestAMD64SyscallResult(t *testing.T) {
	tests := []struct {
		name      string
		result    uint64
		wantErrno int
		wantErr   bool
	}{
		{"success, zero", 0, 0, false},
		{"success, large positive", 4096, 0, false},
		{"ENOMEM", uint64(int64(-12)), 12, true},
		{"EPERM", uint64(int64(-1)), 1, true},
		{"boundary: -4096 still an errno", uint64(int64(-4096)), 4096, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AMD64Regs{}
			r.regs.Rax = tt.result
			_, errno, isErr := AMD64.SyscallResult(r)
			if isErr != tt.wantErr {
				t.Errorf("isErr = %v, want %v", isErr, tt.wantErr)
			}
			if isErr && errno != tt.wantErrno {
				t.Errorf("errno = %d, want %d", errno, tt.wantErrno)
			}
		})
	}
}

func TestAMD64SetSyscallReturn(t *testing.T) {
	r := &AMD64Regs{}
	AMD64.SetSyscallReturn(r, 42)
	if r.regs.Rax != 42 {
		t.Errorf("Rax = %d, want 42", r.regs.Rax)
	}
}
