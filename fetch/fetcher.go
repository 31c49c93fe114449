// Package fetch defines the chunk-fetcher boundary the checkpointing
// core is built around, and supplies minimal, real implementations so
// that core package can be exercised end to end instead of only
// against fakes. Chunk enumeration — the actual interpretation of VMA
// permissions, fd types, and signal dispositions into a restorable
// image — is explicitly a collaborator's job, not the core's.
package fetch

import (
	"context"

	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/ptracer"
)

// Fetcher walks one aspect of a ptrace-attached target and deposits
// what it finds into sink. flags is opaque to the core — it is
// whatever the caller passed to capture.Run, forwarded verbatim so a
// fetcher can vary what it captures (e.g. skip file contents) without
// the orchestrator needing to know what the bits mean.
//
// binOffset is only meaningful for the VMA fetcher, which is the one
// fetcher that can determine where the target's main binary was
// loaded; every other fetcher returns 0, and capture.Run only looks at
// the value the VMA fetcher returns.
type Fetcher interface {
	Fetch(ctx context.Context, sess *ptracer.Session, flags int, sink *chunk.List) (binOffset int64, err error)
}
