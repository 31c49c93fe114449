package ptracer

// CopyInto copies src into the target's address space starting at
// dst, iterating in word strides. n is truncated to a multiple of
// the session's word size; callers needing a sub-word tail must pad
// it themselves. Returns the number of whole words copied before any
// failure, so a caller can report partial progress.
func (s *Session) CopyInto(dst uintptr, src []byte) (wordsCopied int, err error) {
	word := s.isa.WordSize
	n := len(src) / word * word
	for off := 0; off < n; off += word {
		v := s.isa.ByteOrder.Uint64(src[off : off+word])
		if err := s.PokeWord(dst+uintptr(off), v); err != nil {
			return off / word, err
		}
		wordsCopied++
	}
	return wordsCopied, nil
}

// CopyFrom copies n bytes (truncated to a word multiple) out of the
// target's address space starting at src, into a freshly allocated
// buffer.
func (s *Session) CopyFrom(src uintptr, n int) (dst []byte, wordsCopied int, err error) {
	word := s.isa.WordSize
	n = n / word * word
	dst = make([]byte, n)
	for off := 0; off < n; off += word {
		v, err := s.PeekWord(src + uintptr(off))
		if err != nil {
			return dst[:off], off / word, err
		}
		s.isa.ByteOrder.PutUint64(dst[off:off+word], v)
		wordsCopied++
	}
	return dst, wordsCopied, nil
}
