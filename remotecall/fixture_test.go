//go:build linux && amd64

package remotecall

import (
	"os"
	"os/exec"
	"testing"

	"github.com/seanjensengrey/cryopid.dev/isa"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
	"github.com/seanjensengrey/cryopid.dev/scribble"
)

// requireRoot skips the calling test unless it is running as root, for
// the same reason ptracer's end-to-end tests do: attaching to another
// process needs root or matching-UID CAP_SYS_PTRACE, neither of which
// CI guarantees.
func requireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("remotecall: end-to-end tests require root (ptrace attach to another process)")
	}
}

// spawnFixture starts a long-sleeping child and arranges for it to be
// killed when the test finishes. Its stdio is left unset, so Go wires
// it to /dev/null — a predictably seekable, always-open fd the tests
// below use as a syscall target.
func spawnFixture(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start fixture child: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	return cmd
}

// attachWithZone attaches to pid and publishes a scribble zone at the
// page containing its current PC. That page belongs to the target's
// text segment, so it is already mapped executable — exactly what the
// remote syscall engine needs to land a trap instruction on, without
// first needing a working remote mprotect to get there. The page is
// backed up before use and restoration is registered via t.Cleanup.
func attachWithZone(t *testing.T) (*ptracer.Session, *Engine) {
	t.Helper()
	requireRoot(t)
	cmd := spawnFixture(t)

	sess, err := ptracer.Attach(cmd.Process.Pid, isa.AMD64)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	t.Cleanup(func() { _ = sess.Detach() })

	regs, err := sess.GetRegs()
	if err != nil {
		t.Fatalf("GetRegs() error = %v", err)
	}
	pageAddr := uintptr(regs.PC()) &^ uintptr(sess.ISA().PageSize-1)

	backup, err := sess.BackupPage(pageAddr)
	if err != nil {
		t.Fatalf("BackupPage() error = %v", err)
	}
	t.Cleanup(func() { _ = sess.RestorePage(backup) })

	sess.Zone().Set(scribble.Zone{Addr: uint64(pageAddr)})

	return sess, &Engine{Session: sess}
}
