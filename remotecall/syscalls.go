package remotecall

import (
	"context"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/errkind"
)

// zoneDataOffset is where the typed façade starts laying out scratch
// structures inside the scribble zone, clear of the landing word at
// LandingOffset (0x10).
const zoneDataOffset = 0x100

// dataAddr resolves the base address the façade uses for bouncing
// structures through the target, failing the same way Engine.Do does
// when no zone has been published yet.
func (e *Engine) dataAddr() (uint64, error) {
	zone, ok := e.Session.Zone().Get()
	if !ok {
		return 0, errkind.ErrNoZone
	}
	return zone.Addr + zoneDataOffset, nil
}

// Lseek repositions fd's file offset in the target and returns the
// resulting absolute offset.
func (e *Engine) Lseek(ctx context.Context, fd int, offset int64, whence int) (int64, error) {
	ret, err := e.Do(ctx, Call{
		Nr:   sysLseek,
		Name: "lseek",
		Args: [5]uint64{uint64(fd), uint64(offset), uint64(whence)},
		Use:  [5]bool{true, true, true},
	})
	if err != nil {
		return -1, err
	}
	return int64(ret), nil
}

// Fcntl issues fcntl(fd, cmd, arg) against the target.
func (e *Engine) Fcntl(ctx context.Context, fd int, cmd int, arg uintptr) (int, error) {
	ret, err := e.Do(ctx, Call{
		Nr:   sysFcntl,
		Name: "fcntl",
		Args: [5]uint64{uint64(fd), uint64(cmd), uint64(arg)},
		Use:  [5]bool{true, true, true},
	})
	if err != nil {
		return -1, err
	}
	return int(ret), nil
}

// Mprotect changes the protection of one page range in the target.
func (e *Engine) Mprotect(ctx context.Context, addr uintptr, length uintptr, prot int) error {
	_, err := e.Do(ctx, Call{
		Nr:   sysMprotect,
		Name: "mprotect",
		Args: [5]uint64{uint64(addr), uint64(length), uint64(prot)},
		Use:  [5]bool{true, true, true},
	})
	return err
}

// Ioctl issues ioctl(fd, request, arg) against the target. arg is
// passed through verbatim; callers bouncing a structure through it
// are responsible for writing it into the zone themselves first.
func (e *Engine) Ioctl(ctx context.Context, fd int, request uintptr, arg uintptr) (int, error) {
	ret, err := e.Do(ctx, Call{
		Nr:   sysIoctl,
		Name: "ioctl",
		Args: [5]uint64{uint64(fd), uint64(request), uint64(arg)},
		Use:  [5]bool{true, true, true},
	})
	if err != nil {
		return -1, err
	}
	return int(ret), nil
}

// sigsetSize is the kernel's rt_sigaction sigset_t size argument. Every
// supported architecture here uses an 8-byte mask word.
const sigsetSize = 8

// sigactionBytes views a host unix.Sigaction as the raw bytes the
// kernel's rt_sigaction expects, matching the struct layout the x/sys
// package already built for this GOARCH.
func sigactionBytes(sa *unix.Sigaction) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(sa)), unsafe.Sizeof(*sa))
}

// RtSigaction installs act as the target's handler for signum and, if
// oldact is non-nil, fills it in with the previous handler. Both
// k_sigaction structures are bounced through the scribble zone: act at
// zoneDataOffset, the kernel's returned old action one struct further
// on, since rt_sigaction needs real target-side addresses for both.
func (e *Engine) RtSigaction(ctx context.Context, signum int, act, oldact *unix.Sigaction) error {
	base, err := e.dataAddr()
	if err != nil {
		return err
	}
	size := uint64(unsafe.Sizeof(unix.Sigaction{}))
	actAddr := base
	oldAddr := base + size

	if act != nil {
		if _, err := e.Session.CopyInto(uintptr(actAddr), sigactionBytes(act)); err != nil {
			return err
		}
	}

	newArg, newUse := uint64(0), false
	if act != nil {
		newArg, newUse = actAddr, true
	}
	oldArg, oldUse := uint64(0), false
	if oldact != nil {
		oldArg, oldUse = oldAddr, true
	}

	_, err = e.Do(ctx, Call{
		Nr:   sysRtSigaction,
		Name: "rt_sigaction",
		Args: [5]uint64{uint64(signum), newArg, oldArg, sigsetSize},
		Use:  [5]bool{true, newUse, oldUse, true},
	})
	if err != nil {
		return err
	}

	if oldact != nil {
		raw, _, err := e.Session.CopyFrom(uintptr(oldAddr), int(size))
		if err != nil {
			return err
		}
		copy(sigactionBytes(oldact), raw)
	}
	return nil
}

// GetsockoptInt reads an int-sized socket option from fd. optval and
// its accompanying socklen_t both live in the zone: getsockopt needs
// real target addresses for the pointer arguments, and the kernel
// writes the actual option length back into the socklen_t word.
func (e *Engine) GetsockoptInt(ctx context.Context, fd, level, optname int) (int, error) {
	base, err := e.dataAddr()
	if err != nil {
		return 0, err
	}
	// CopyInto/CopyFrom only move whole words (8 bytes on every ISA
	// this package supports), so optval and optlen each get a full
	// word slot even though the values that matter are 4 bytes wide.
	optvalAddr := base
	optlenAddr := base + uint64(e.Session.ISA().WordSize)

	var lenBuf [8]byte
	e.Session.ISA().ByteOrder.PutUint32(lenBuf[:4], 4)
	if _, err := e.Session.CopyInto(uintptr(optlenAddr), lenBuf[:]); err != nil {
		return 0, err
	}

	_, err = e.Do(ctx, Call{
		Nr:   sysGetsockopt,
		Name: "getsockopt",
		Args: [5]uint64{uint64(fd), uint64(level), uint64(optname), optvalAddr, optlenAddr},
		Use:  [5]bool{true, true, true, true, true},
	})
	if err != nil {
		return -1, err
	}

	raw, _, err := e.Session.CopyFrom(uintptr(optvalAddr), 8)
	if err != nil {
		return 0, err
	}
	return int(int32(e.Session.ISA().ByteOrder.Uint32(raw[:4]))), nil
}
