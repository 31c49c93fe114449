package chunk

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestList_AppendAndLen(t *testing.T) {
	l := NewList()
	l.Append(Record{Kind: KindFD, Data: 3})
	l.Append(Record{Kind: KindRegs, Data: "snapshot"})

	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestList_Records_ReturnsSnapshotCopy(t *testing.T) {
	l := NewList()
	l.Append(Record{Kind: KindVMA})

	snap := l.Records()
	l.Append(Record{Kind: KindFD})

	if len(snap) != 1 {
		t.Errorf("snapshot len = %d, want 1 (unaffected by later Append)", len(snap))
	}
	if l.Len() != 2 {
		t.Errorf("Len() after second Append = %d, want 2", l.Len())
	}
}

func TestList_WriteTo_NDJSON(t *testing.T) {
	l := NewList()
	l.Append(Record{Kind: KindFD, Data: map[string]any{"fd": 1, "path": "/dev/null"}})
	l.Append(Record{Kind: KindRegs, Data: map[string]any{"pc": 4096}})

	var buf bytes.Buffer
	n, err := l.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != 2 {
		t.Errorf("WriteTo() n = %d, want 2", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var first Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.Kind != KindFD {
		t.Errorf("first record kind = %q, want %q", first.Kind, KindFD)
	}
}
