// Package chunk is the image sink: the append-only container that
// fetchers deposit records into as they walk a target process.
package chunk

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Kind identifies what a Record describes.
type Kind string

const (
	// KindVMA is one mapped memory region, plus its contents when the
	// fetcher was asked to copy them.
	KindVMA Kind = "vma"
	// KindFD is one open file descriptor.
	KindFD Kind = "fd"
	// KindSigHand is one non-default signal disposition.
	KindSigHand Kind = "sighand"
	// KindRegs is the target's saved register snapshot.
	KindRegs Kind = "regs"
)

// Record is one self-contained piece of process image state. Data
// carries the kind-specific payload (a VMA's bytes, an fd's path and
// flags, a sigaction, a register snapshot) as a plain value so the
// sink stays agnostic to what fetchers actually produce.
type Record struct {
	Kind Kind   `json:"kind"`
	Data any    `json:"data"`
	Note string `json:"note,omitempty"`
}

// List is a concurrency-safe, append-only sequence of Records. Several
// fetchers may run one after another against the same target within a
// single capture; the mutex exists so a future fetcher that fans out
// internally doesn't have to learn the hard way that List isn't safe
// to share.
type List struct {
	mu      sync.Mutex
	records []Record
}

// NewList returns an empty sink.
func NewList() *List {
	return &List{}
}

// Append adds one record to the sink.
func (l *List) Append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Len reports how many records the sink holds.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a snapshot copy of the sink's contents, safe for the
// caller to range over without holding any lock.
func (l *List) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// WriteTo serializes every record as newline-delimited JSON, one
// object per line: plain structs through encoding/json, no custom
// binary framing.
func (l *List) WriteTo(w io.Writer) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	enc := json.NewEncoder(w)
	var n int64
	for _, r := range l.records {
		if err := enc.Encode(r); err != nil {
			return n, fmt.Errorf("chunk: encode %s record: %w", r.Kind, err)
		}
		n++
	}
	return n, nil
}
