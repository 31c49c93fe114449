//go:build linux && amd64

package ptracer

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/errkind"
	"github.com/seanjensengrey/cryopid.dev/isa"
)

func TestAttachDetach_RunningTarget(t *testing.T) {
	requireRoot(t)
	cmd := spawnFixture(t)

	sess, err := Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if sess.WasStopped() {
		t.Error("freshly spawned sleep should not have been pre-stopped")
	}

	if err := sess.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
}

func TestAttachDetach_AlreadyStopped(t *testing.T) {
	requireRoot(t)
	cmd := spawnFixture(t)

	if err := unix.Kill(cmd.Process.Pid, unix.SIGSTOP); err != nil {
		t.Fatalf("SIGSTOP fixture: %v", err)
	}

	sess, err := Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if !sess.WasStopped() {
		t.Error("expected WasStopped() to report the pre-existing SIGSTOP")
	}

	if err := sess.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
}

func TestPeekPokeWord_RoundTrip(t *testing.T) {
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

	orig, err := sess.PeekWord(addr)
	if err != nil {
		t.Fatalf("PeekWord() error = %v", err)
	}
	defer sess.PokeWord(addr, orig)

	if err := sess.PokeWord(addr, 0x4142434445464748); err != nil {
		t.Fatalf("PokeWord() error = %v", err)
	}
	got, err := sess.PeekWord(addr)
	if err != nil {
		t.Fatalf("PeekWord() after poke error = %v", err)
	}
	if got != 0x4142434445464748 {
		t.Errorf("PeekWord() after PokeWord() = %#x, want 0x4142434445464748", got)
	}
}

func TestDoubleRestorePage_ReturnsAlreadyRestored(t *testing.T) {
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
	pageAddr := uintptr(regs.PC()) &^ uintptr(sess.ISA().PageSize-1)

	backup, err := sess.BackupPage(pageAddr)
	if err != nil {
		t.Fatalf("BackupPage() error = %v", err)
	}
	if err := sess.RestorePage(backup); err != nil {
		t.Fatalf("first RestorePage() error = %v", err)
	}

	err = sess.RestorePage(backup)
	if !errors.Is(err, errkind.ErrBackupAlreadyRestored) {
		t.Errorf("second RestorePage() error = %v, want ErrBackupAlreadyRestored", err)
	}
}

func TestTransparency_RegistersUnchangedAfterDetach(t *testing.T) {
	requireRoot(t)
	cmd := spawnFixture(t)

	sess, err := Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	before, err := sess.GetRegs()
	if err != nil {
		t.Fatalf("GetRegs() error = %v", err)
	}

	// Simulate the engine's save/restore bracket without ever setting
	// the registers to anything, then confirm a fresh snapshot still
	// matches.
	if err := sess.SetRegs(before); err != nil {
		t.Fatalf("SetRegs() error = %v", err)
	}
	after, err := sess.GetRegs()
	if err != nil {
		t.Fatalf("GetRegs() error = %v", err)
	}
	if before.PC() != after.PC() {
		t.Errorf("PC changed across a no-op save/restore: %#x -> %#x", before.PC(), after.PC())
	}

	if err := sess.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
}
