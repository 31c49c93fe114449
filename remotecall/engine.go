// Package remotecall implements the remote syscall engine: forcing
// the target of a ptracer.Session to execute exactly one system call
// in its own kernel context, with up to five arguments, and reporting
// its numeric result — restoring target text and registers regardless
// of outcome.
package remotecall

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/corelog"
	"github.com/seanjensengrey/cryopid.dev/errkind"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
)

// Call describes one target-side system call: its number, a name for
// diagnostics, up to five arguments, and a mask saying which argument
// slots are actually live — callers zero the rest, but the engine
// only ever writes a slot the mask marks as used.
type Call struct {
	Nr   uintptr
	Name string
	Args [5]uint64
	Use  [5]bool
}

// Engine executes Calls against one ptracer.Session's target.
type Engine struct {
	Session *ptracer.Session
	// Landing overrides the landing address the engine stages its
	// trap instruction at. The zero value means "derive it from the
	// session's scribble zone", which is the normal case; tests may
	// set it directly against a known-good address.
	Landing uint64
}

// landingAddr resolves the address the engine writes its trap word
// to: the scribble zone's base plus the ISA's fixed landing offset,
// chosen to avoid clobbering the zone's first word, which callers may
// use for data.
func (e *Engine) landingAddr() (uint64, error) {
	if e.Landing != 0 {
		return e.Landing, nil
	}
	zone, ok := e.Session.Zone().Get()
	if !ok {
		return 0, errkind.ErrNoZone
	}
	return zone.Addr + e.Session.ISA().LandingOffset, nil
}

// Do executes call against the engine's target and returns its
// result. ctx is checked once at entry — this layer has no internal
// suspension points to cancel mid-sequence; an already-canceled
// context simply skips the call. Implements the eight-step protocol:
// snapshot registers, compute the landing address, snapshot the word
// there, write the trap instruction, install the call's registers,
// step across the trap, read the result, then unconditionally restore
// the original registers and landing word before returning — cleanup
// runs on every exit path, including the error ones.
func (e *Engine) Do(ctx context.Context, call Call) (uintptr, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pid := e.Session.PID()
	log := corelog.Scope{PID: pid, Syscall: call.Name}.Logger(corelog.Default())

	landing, err := e.landingAddr()
	if err != nil {
		return 0, err
	}

	orig, err := e.Session.GetRegs()
	if err != nil {
		return 0, err
	}

	oldInsn, err := e.Session.PeekWord(uintptr(landing))
	if err != nil {
		return 0, err
	}

	// From here on every exit path must restore the original
	// registers and the landing word, in that order, regardless of
	// how it got here.
	var result uintptr
	var resultErr error
	defer func() {
		if restoreErr := e.Session.SetRegs(orig); restoreErr != nil && resultErr == nil {
			resultErr = restoreErr
		}
		if restoreErr := e.Session.PokeWord(uintptr(landing), oldInsn); restoreErr != nil && resultErr == nil {
			resultErr = restoreErr
		}
	}()

	if err := e.Session.PokeWord(uintptr(landing), e.Session.ISA().TrapInsn); err != nil {
		resultErr = err
		return 0, resultErr
	}

	call1 := orig.Clone()
	call1.SetNr(call.Nr)
	for i := 0; i < 5; i++ {
		if call.Use[i] {
			call1.SetArg(i, call.Args[i])
		}
	}
	call1.SetPC(landing)
	if err := e.Session.SetRegs(call1); err != nil {
		resultErr = err
		return 0, resultErr
	}

	sig, err := e.Session.StepOnce()
	if err != nil {
		resultErr = err
		return 0, resultErr
	}
	if sig != unix.SIGTRAP {
		// The ISA backend already spent its one permitted retry on a
		// spurious non-TRAP stop internally (SPARC's Step); seeing one
		// here means that retry didn't recover, so this is terminal.
		log.Debug("remote syscall did not stop on TRAP", "signal", sig)
		resultErr = errkind.ErrSyscallFailed
		return 0, resultErr
	}

	after, err := e.Session.GetRegs()
	if err != nil {
		resultErr = err
		return 0, resultErr
	}

	ret, errno, isErr := e.Session.ISA().SyscallResult(after)
	if isErr {
		log.Debug("remote syscall returned an error", "errno", errno)
		resultErr = errkind.SyscallError(pid, call.Name, errno)
		return ^uintptr(0), resultErr
	}

	result = uintptr(ret)
	return result, nil
}
