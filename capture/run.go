// Package capture implements the orchestrator: the nine-step sequence
// that attaches to a target, runs its chunk fetchers in the one order
// that is safe, and leaves the target exactly as it found it.
package capture

import (
	"context"
	"fmt"
	"runtime"

	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/corelog"
	"github.com/seanjensengrey/cryopid.dev/errkind"
	"github.com/seanjensengrey/cryopid.dev/fetch"
	"github.com/seanjensengrey/cryopid.dev/isa"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
)

// Fetchers groups the four collaborators get_process calls, in the
// fixed order the original implementation insists on: VMA first,
// because it is the only one that can publish a scribble zone; FD and
// SigHand next, since both need a working remote syscall engine; Regs
// last.
type Fetchers struct {
	VMA     fetch.Fetcher
	FD      fetch.Fetcher
	SigHand fetch.Fetcher
	Regs    fetch.Fetcher
}

// Run attaches to pid, runs fetchers against it, and deposits every
// chunk they find into sink. flags is opaque and forwarded to each
// fetcher unexamined. binOffset is whatever the VMA fetcher reported;
// every other fetcher's reported offset is ignored.
//
// The sequence, order, and cleanup guarantees mirror
// original_source's get_process exactly: save registers, fetch VMAs
// (this is what gives the session a scribble zone), abort if no zone
// was published, back up the zone's page, fetch fds, fetch signal
// handlers, fetch registers, then unconditionally restore the page
// and the registers before detaching — regardless of whether any
// fetcher failed partway through.
func Run(ctx context.Context, pid int, flags int, sink *chunk.List, fetchers Fetchers) (binOffset int64, err error) {
	log := corelog.Scope{PID: pid}.Logger(corelog.Default())

	// ptrace is thread-affine: every request must come from the OS
	// thread that attached, so the goroutine stays on it throughout.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sess, err := ptracer.Attach(pid, isa.Current)
	if err != nil {
		return 0, err
	}

	// From here on, every exit path detaches — the attach/detach
	// invariant holds even when a fetcher fails partway through.
	defer func() {
		if detachErr := sess.Detach(); detachErr != nil {
			log.Error("failed to detach from target", "error", detachErr)
			if err == nil {
				err = detachErr
			}
		}
	}()

	origRegs, err := sess.GetRegs()
	if err != nil {
		return 0, fmt.Errorf("capture: save registers: %w", err)
	}

	// The registers are restored on every exit path from here on; the
	// page restore deferred further down runs before this one.
	defer func() {
		if restoreErr := sess.SetRegs(origRegs); restoreErr != nil && err == nil {
			err = fmt.Errorf("capture: restore registers: %w", restoreErr)
		}
	}()

	// This is the step that matters most: the order below is load
	// bearing. The VMA fetcher is the only one that can publish a
	// scribble zone, and every remote syscall the later fetchers
	// issue depends on one existing.
	binOffset, err = fetchers.VMA.Fetch(ctx, sess, flags, sink)
	if err != nil {
		return 0, fmt.Errorf("capture: fetch vma chunks: %w", err)
	}

	zone, ok := sess.Zone().Get()
	if !ok {
		log.Error("no suitable scribble zone found, aborting")
		return 0, errkind.ErrNoZone
	}

	backup, err := sess.BackupPage(uintptr(zone.Addr))
	if err != nil {
		return binOffset, fmt.Errorf("capture: back up scribble zone page: %w", err)
	}

	// restore order mirrors get_process: the zone page first, then
	// the registers (deferred above), whether or not every fetcher
	// below succeeds.
	defer func() {
		if restoreErr := sess.RestorePage(backup); restoreErr != nil && err == nil {
			err = fmt.Errorf("capture: restore scribble zone page: %w", restoreErr)
		}
	}()

	if _, fetchErr := fetchers.FD.Fetch(ctx, sess, flags, sink); fetchErr != nil {
		return binOffset, fmt.Errorf("capture: fetch fd chunks: %w", fetchErr)
	}
	if _, fetchErr := fetchers.SigHand.Fetch(ctx, sess, flags, sink); fetchErr != nil {
		return binOffset, fmt.Errorf("capture: fetch sighand chunks: %w", fetchErr)
	}
	if _, fetchErr := fetchers.Regs.Fetch(ctx, sess, flags, sink); fetchErr != nil {
		return binOffset, fmt.Errorf("capture: fetch regs chunk: %w", fetchErr)
	}

	return binOffset, nil
}
