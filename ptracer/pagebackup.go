package ptracer

import "github.com/seanjensengrey/cryopid.dev/errkind"

// PageBackup is a snapshot of one target page, consumed exactly once
// by RestorePage. It is linear: Go has no linear types, so a second
// RestorePage call on the same backup is checked at runtime instead of
// at compile time, and fails loudly with errkind.ErrBackupAlreadyRestored
// rather than silently re-poking stale words.
type PageBackup struct {
	addr     uintptr
	words    []uint64
	restored bool
}

// BackupPage reads every word of the page at addr into a fresh
// PageBackup and, word-by-word as it reads, overwrites the target's
// copy with the ISA's poison pattern. The poisoning is intentional:
// it guarantees that any execution of that page by another task
// sharing the address space faults loudly, and it leaves the scribble
// zone in a known-invalid state before the engine writes its trap
// instruction there.
func (s *Session) BackupPage(addr uintptr) (*PageBackup, error) {
	pageSize := s.isa.PageSize
	wordSize := s.isa.WordSize
	nWords := pageSize / wordSize

	words := make([]uint64, 0, nWords)
	for i := 0; i < nWords; i++ {
		wordAddr := addr + uintptr(i*wordSize)
		v, err := s.PeekWord(wordAddr)
		if err != nil {
			return nil, err
		}
		words = append(words, v)
		if err := s.PokeWord(wordAddr, s.isa.Poison); err != nil {
			return nil, err
		}
	}
	return &PageBackup{addr: addr, words: words}, nil
}

// RestorePage writes every backed-up word back to the target in
// order, then consumes the backup. A second call on the same backup
// returns errkind.ErrBackupAlreadyRestored instead of re-poking words
// that no longer reflect anything meaningful.
func (s *Session) RestorePage(b *PageBackup) error {
	if b.restored {
		return errkind.ErrBackupAlreadyRestored
	}
	wordSize := s.isa.WordSize
	for i, v := range b.words {
		wordAddr := b.addr + uintptr(i*wordSize)
		if err := s.PokeWord(wordAddr, v); err != nil {
			b.restored = true
			return err
		}
	}
	b.restored = true
	return nil
}
