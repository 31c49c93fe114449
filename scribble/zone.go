// Package scribble holds the process-wide scratch-region handle the
// remote syscall engine stages its trap instructions and bounced
// argument buffers through.
//
// original_source keeps this as a bare global (`scribble_zone`); here
// it is carried as a field of ptracer.Session instead, set once by
// whichever fetcher locates a usable region and read thereafter by
// everything that needs a target-side landing pad.
package scribble

import "sync"

// Zone is a single target virtual address, page-aligned and at least
// 256 bytes of readable+writable+executable space in the target.
type Zone struct {
	Addr uint64
}

// Handle is a set-once holder for a Zone. The zero Handle is unset;
// only the first Set takes effect, and Set is safe for concurrent use,
// though a capture session never actually calls it concurrently —
// the guard exists so a second publish attempt is ignored rather
// than overwriting the address.
type Handle struct {
	once sync.Once
	zone Zone
	set  bool
}

// Set publishes the zone. Calling Set a second time is a no-op: the
// first publish wins, matching the "set once, read-only thereafter"
// lifecycle original_source's bare global only enforced by convention.
func (h *Handle) Set(z Zone) {
	h.once.Do(func() {
		h.zone = z
		h.set = true
	})
}

// Get returns the published zone and whether one has been set.
func (h *Handle) Get() (Zone, bool) {
	return h.zone, h.set
}
