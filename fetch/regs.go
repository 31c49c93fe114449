package fetch

import (
	"context"

	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
)

// RegsChunk is the target's register snapshot at attach time, plus
// whether it was already stopped before the capture attached — the
// restore side needs to know that to decide whether to leave the
// process stopped or resume it.
type RegsChunk struct {
	PC         uint64 `json:"pc"`
	WasStopped bool   `json:"was_stopped"`
}

// RegsFetcher records the register snapshot capture.Run's caller will
// want for the image. It can run at any point in the fetcher sequence:
// every remote syscall the other fetchers issue restores the target's
// registers before returning, so the live register state never
// actually diverges from what it was at attach time.
type RegsFetcher struct{}

func (f *RegsFetcher) Fetch(ctx context.Context, sess *ptracer.Session, flags int, sink *chunk.List) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	regs, err := sess.GetRegs()
	if err != nil {
		return 0, err
	}

	sink.Append(chunk.Record{
		Kind: chunk.KindRegs,
		Data: RegsChunk{PC: regs.PC(), WasStopped: sess.WasStopped()},
	})
	return 0, nil
}
