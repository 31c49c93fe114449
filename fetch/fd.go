package fetch

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/corelog"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
	"github.com/seanjensengrey/cryopid.dev/remotecall"
)

// FDChunk describes one open file descriptor in the target.
type FDChunk struct {
	FD    int    `json:"fd"`
	Path  string `json:"path"`
	Flags int    `json:"flags"`
}

// FDFetcher walks /proc/<pid>/fd and, for each descriptor, reads its
// open flags back out of the target itself via a remote fcntl rather
// than trusting /proc/<pid>/fdinfo — the same descriptor the fetcher
// is about to record is exactly the one the remote syscall engine can
// already reach, and a real F_GETFL answers questions fdinfo parsing
// can't (e.g. whether O_APPEND survived a reopen).
type FDFetcher struct{}

func (f *FDFetcher) Fetch(ctx context.Context, sess *ptracer.Session, flags int, sink *chunk.List) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pid := sess.PID()
	dir := fmt.Sprintf("/proc/%d/fd", pid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("fetch: read %s: %w", dir, err)
	}

	eng := &remotecall.Engine{Session: sess}

	for _, entry := range entries {
		fdNum, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		target, err := os.Readlink(dir + "/" + entry.Name())
		if err != nil {
			continue
		}

		getFlags, err := eng.Fcntl(ctx, fdNum, unix.F_GETFL, 0)
		if err != nil {
			corelog.Scope{PID: pid, Op: "fd_fetch", Path: target}.Logger(corelog.Default()).
				Debug("remote fcntl(F_GETFL) failed, skipping descriptor", "fd", fdNum, "error", err)
			continue
		}

		sink.Append(chunk.Record{
			Kind: chunk.KindFD,
			Data: FDChunk{FD: fdNum, Path: target, Flags: getFlags},
		})
	}

	return 0, nil
}
