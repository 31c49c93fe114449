//go:build linux && amd64

package ptracer

import (
	"os"
	"os/exec"
	"testing"
)

// requireRoot skips the calling test unless it is running as root.
// Attaching to another process via ptrace requires either owning it
// as the same UID with CAP_SYS_PTRACE semantics or running as root;
// CI and most dev sandboxes run these tests as an unprivileged user,
// so the end-to-end scenarios here are opt-in rather than part of the
// default test run.
func requireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("ptracer: end-to-end tests require root (ptrace attach to another process)")
	}
}

// spawnFixture starts a long-sleeping child process to attach to and
// arranges for it to be killed when the test finishes.
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
