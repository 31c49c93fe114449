//go:build linux && amd64

package ptracer

import (
	"bytes"
	"testing"

	"github.com/seanjensengrey/cryopid.dev/isa"
)

func TestCopyInto_CopyFrom_RoundTrip(t *testing.T) {
	requireRoot(t)
	cmd := spawnFixture(t)

	sess, err := Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer sess.Detach()

	regs, err := sess.GetRegs()
	if err != nil {
		t.Fatalf("GetRegs() error = %v", err)
	}
	addr := uintptr(regs.PC())

	orig, _, err := sess.CopyFrom(addr, 32)
	if err != nil {
		t.Fatalf("CopyFrom() (save) error = %v", err)
	}
	defer sess.CopyInto(addr, orig)

	payload := bytes.Repeat([]byte{0xAB}, 32)
	wordsCopied, err := sess.CopyInto(addr, payload)
	if err != nil {
		t.Fatalf("CopyInto() error = %v", err)
	}
	if wordsCopied != 4 {
		t.Errorf("wordsCopied = %d, want 4 (32 bytes / 8-byte words)", wordsCopied)
	}

	readBack, n, err := sess.CopyFrom(addr, 32)
	if err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if n != 4 {
		t.Errorf("CopyFrom() wordsCopied = %d, want 4", n)
	}
	if !bytes.Equal(readBack, payload) {
		t.Errorf("CopyFrom() = %x, want %x", readBack, payload)
	}
}

func TestCopyInto_TruncatesToWordMultiple(t *testing.T) {
	requireRoot(t)
	cmd := spawnFixture(t)

	sess, err := Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer sess.Detach()

	regs, err := sess.GetRegs()
	if err != nil {
		t.Fatalf("GetRegs() error = %v", err)
	}
	addr := uintptr(regs.PC())

	orig, _, err := sess.CopyFrom(addr, 8)
	if err != nil {
		t.Fatalf("CopyFrom() (save) error = %v", err)
	}
	defer sess.CopyInto(addr, orig)

	// 11 bytes truncates to 1 whole word (8 bytes); the trailing 3
	// bytes are simply not written. There is no sub-word fix-up.
	wordsCopied, err := sess.CopyInto(addr, make([]byte, 11))
	if err != nil {
		t.Fatalf("CopyInto() error = %v", err)
	}
	if wordsCopied != 1 {
		t.Errorf("wordsCopied = %d, want 1", wordsCopied)
	}
}
