// Package ptracer wraps the process-trace supervisory relationship
// with one target PID: attach/detach, word-granular peek/poke,
// register snapshot/restore, single-stepping, and the page
// backup/restore and memory-bridge operations built on top of them.
//
// Everything here is ABI-identical across architectures except
// GetRegs, SetRegs, and StepOnce, which delegate to the isa.Descriptor
// the Session was attached with.
package ptracer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/errkind"
	"github.com/seanjensengrey/cryopid.dev/isa"
	"github.com/seanjensengrey/cryopid.dev/scribble"
)

// Session is the exclusive supervisory handle on one target PID. At
// most one Session may be open on a given PID at a time; the zero
// value is not usable, construct with Attach.
type Session struct {
	pid        int
	isa        isa.Descriptor
	wasStopped bool
	zone       scribble.Handle
	syscallLoc uint64 // SPARC-only: shared trap-instruction site
}

// Attach opens a supervisory relationship with pid, using desc for
// any architecture-specific operation. It probes the target's
// kernel-reported run state before attaching (via /proc/pid/stat) so
// that, if the target is already trace-stopped (e.g. externally
// SIGSTOPped), the post-attach wait is skipped — waiting would block
// forever, since no further stop notification is coming.
func Attach(pid int, desc isa.Descriptor) (*Session, error) {
	wasStopped, err := processIsStopped(pid)
	if err != nil {
		return nil, errkind.WrapPID(err, errkind.ErrAttachFailed, "attach:probe_state", pid)
	}

	if err := unix.PtraceAttach(pid); err != nil {
		return nil, errkind.WrapPID(err, errkind.ErrAttachFailed, "attach", pid)
	}

	s := &Session{pid: pid, isa: desc, wasStopped: wasStopped}

	if wasStopped {
		return s, nil
	}

	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil {
		return nil, errkind.WrapPID(err, errkind.ErrAttachFailed, "attach:wait", pid)
	}
	if !status.Stopped() {
		return nil, errkind.New(errkind.ErrAttachFailed, "attach:wait",
			fmt.Sprintf("pid %d did not stop after attach (status=%v)", pid, status))
	}
	return s, nil
}

// processIsStopped reads /proc/pid/stat's third whitespace-delimited
// field and reports whether it is 'T' (traced/stopped).
func processIsStopped(pid int) (bool, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 4096), 4096)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		return false, fmt.Errorf("ptracer: empty /proc/%d/stat", pid)
	}

	// The second field is "(comm)" and may itself contain spaces, so
	// split on the closing paren rather than naive whitespace fields.
	line := scanner.Text()
	idx := strings.LastIndex(line, ")")
	if idx < 0 || idx+2 >= len(line) {
		return false, fmt.Errorf("ptracer: malformed /proc/%d/stat: %q", pid, line)
	}
	fields := strings.Fields(line[idx+1:])
	if len(fields) == 0 {
		return false, fmt.Errorf("ptracer: malformed /proc/%d/stat: %q", pid, line)
	}
	return fields[0] == "T", nil
}

// PID returns the target process ID.
func (s *Session) PID() int { return s.pid }

// WasStopped reports whether the target was already trace-stopped
// before this Session attached to it. The orchestrator propagates
// this into the register-chunk fetcher so the restore side can
// reproduce the target's pre-capture run state.
func (s *Session) WasStopped() bool { return s.wasStopped }

// Zone returns the Session's scribble-zone handle. It is unset until
// the VMA fetcher publishes one.
func (s *Session) Zone() *scribble.Handle { return &s.zone }

// Detach releases supervision of the target. It is mandatory on every
// exit path out of a capture, including after abort conditions;
// callers should `defer session.Detach()` immediately after a
// successful Attach.
func (s *Session) Detach() error {
	if err := unix.PtraceDetach(s.pid); err != nil {
		return errkind.WrapPID(err, errkind.ErrDetachFailed, "detach", s.pid)
	}
	return nil
}

// Close is an alias for Detach, so a Session satisfies io.Closer and
// can be used with the same scoped-cleanup idiom as any other
// acquired resource.
func (s *Session) Close() error { return s.Detach() }

// PeekWord reads one word from the target's text/data at addr. addr
// must already be word-aligned; PeekWord does no alignment fix-up.
//
// ptrace's PEEKTEXT/PEEKDATA convention signals failure only through
// errno, since -1 is also a legitimate peeked value; unix.PtracePeekText
// already clears and rechecks errno per word internally, which is the
// Go-idiomatic equivalent of the side-channel dance the original
// implementation does by hand.
func (s *Session) PeekWord(addr uintptr) (uint64, error) {
	buf := make([]byte, s.isa.WordSize)
	if _, err := unix.PtracePeekText(s.pid, addr, buf); err != nil {
		return 0, errkind.WrapPID(err, errkind.ErrPeekFailed, "peek_word", s.pid)
	}
	return s.isa.ByteOrder.Uint64(buf), nil
}

// PokeWord writes one word to the target's text/data at addr.
func (s *Session) PokeWord(addr uintptr, word uint64) error {
	buf := make([]byte, s.isa.WordSize)
	s.isa.ByteOrder.PutUint64(buf, word)
	if _, err := unix.PtracePokeText(s.pid, addr, buf); err != nil {
		return errkind.WrapPID(err, errkind.ErrPokeFailed, "poke_word", s.pid)
	}
	return nil
}

// GetRegs takes a full-frame register snapshot.
func (s *Session) GetRegs() (isa.Regs, error) {
	r, err := s.isa.GetRegs(s.pid)
	if err != nil {
		return nil, errkind.WrapPID(err, errkind.ErrGetRegsFailed, "get_regs", s.pid)
	}
	return r, nil
}

// SetRegs restores a full-frame register snapshot.
func (s *Session) SetRegs(r isa.Regs) error {
	if err := s.isa.SetRegs(s.pid, r); err != nil {
		return errkind.WrapPID(err, errkind.ErrSetRegsFailed, "set_regs", s.pid)
	}
	return nil
}

// StepOnce advances the target across exactly one trap-syscall and
// blocks for the resulting stop, returning the stop signal. On
// architectures with real single-step support (amd64) this is one
// PTRACE_SINGLESTEP; on architectures without it (SPARC) the
// Descriptor substitutes a syscall-entry/exit stop pair, including
// the one permitted retry on an unexpected non-TRAP stop.
func (s *Session) StepOnce() (unix.Signal, error) {
	sig, err := s.isa.Step(s.pid)
	if err != nil {
		return 0, errkind.WrapPID(err, errkind.ErrStepFailed, "step_once", s.pid)
	}
	return sig, nil
}

// ISA returns the architecture descriptor this Session was attached
// with.
func (s *Session) ISA() isa.Descriptor { return s.isa }

// SyscallLoc returns the SPARC-only shared syscall-instruction site.
// It is zero and unused on backends (like amd64) that stage their
// trap instruction fresh at the landing address on every call.
func (s *Session) SyscallLoc() uint64 { return s.syscallLoc }

// SetSyscallLoc publishes the SPARC-only syscall-instruction site.
// Like the scribble zone, it is set at most once per capture, before
// any remote-syscall use, and not mutated thereafter.
func (s *Session) SetSyscallLoc(addr uint64) { s.syscallLoc = addr }
