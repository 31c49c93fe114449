package fetch

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
	"github.com/seanjensengrey/cryopid.dev/remotecall"
)

// maxSignal is Linux's NSIG: signal numbers 1..64, with SIGKILL (9)
// and SIGSTOP (19) excluded below since the kernel never lets their
// disposition be anything but the default.
const maxSignal = 64

// SigHandChunk describes one non-default signal disposition.
type SigHandChunk struct {
	Signal  int    `json:"signal"`
	Handler uint64 `json:"handler"`
	Flags   uint64 `json:"flags"`
}

// SigHandFetcher walks every catchable signal number and records the
// ones the target has installed a non-default handler for, using the
// same RtSigaction the typed façade exposes for installing handlers —
// reading the current disposition is just calling it with a nil new
// action.
type SigHandFetcher struct{}

func (f *SigHandFetcher) Fetch(ctx context.Context, sess *ptracer.Session, flags int, sink *chunk.List) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	eng := &remotecall.Engine{Session: sess}

	for sig := 1; sig <= maxSignal; sig++ {
		if sig == int(unix.SIGKILL) || sig == int(unix.SIGSTOP) {
			continue
		}

		var cur unix.Sigaction
		if err := eng.RtSigaction(ctx, sig, nil, &cur); err != nil {
			continue
		}
		if cur.Handler == 0 { // SIG_DFL
			continue
		}

		sink.Append(chunk.Record{
			Kind: chunk.KindSigHand,
			Data: SigHandChunk{
				Signal:  sig,
				Handler: uint64(cur.Handler),
				Flags:   cur.Flags,
			},
		})
	}

	return 0, nil
}
