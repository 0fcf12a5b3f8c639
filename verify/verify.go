// Package verify compares two byte streams, typically an original input and
// the result of compressing and decompressing it.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/pierrec/xxHash/xxHash32"
)

// pieceSize is the amount of data read from each side per comparison step
const pieceSize = 64 << 10

// Report describes the outcome of a comparison
type Report struct {
	Equal bool

	SizeA int64
	SizeB int64

	// Mismatch is the offset of the first differing byte, or -1 if the
	// streams are equal. If one stream is a prefix of the other, it is the
	// length of the shorter one.
	Mismatch int64

	// xxHash32 digests (seed 0) of the complete streams
	DigestA uint32
	DigestB uint32
}

func (r Report) String() string {
	if r.Equal {
		return fmt.Sprintf("equal: %d bytes, xxh32 %08x", r.SizeA, r.DigestA)
	}
	return fmt.Sprintf("differ at offset %d: %d bytes (xxh32 %08x) vs %d bytes (xxh32 %08x)",
		r.Mismatch, r.SizeA, r.DigestA, r.SizeB, r.DigestB)
}

type side struct {
	r    io.Reader
	h    hash.Hash32
	buf  []byte
	size int64
	eof  bool
}

func newSide(r io.Reader) *side {
	return &side{r: r, h: xxHash32.New(0), buf: make([]byte, pieceSize)}
}

// next reads the next piece; a short piece is only returned at the end.
func (s *side) next() ([]byte, error) {
	if s.eof {
		return nil, nil
	}
	n, err := io.ReadFull(s.r, s.buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.eof, err = true, nil
	}
	if err != nil {
		return nil, err
	}
	piece := s.buf[:n]
	s.size += int64(n)
	s.h.Write(piece)
	return piece, nil
}

// Compare reads a and b to the end and reports whether they hold the same
// bytes. Both streams are consumed completely, so sizes and digests cover
// everything even after a mismatch was found.
func Compare(a, b io.Reader) (Report, error) {
	sa, sb := newSide(a), newSide(b)
	rep := Report{Mismatch: -1}

	var offset int64
	for !sa.eof || !sb.eof {
		pa, err := sa.next()
		if err != nil {
			return rep, fmt.Errorf("reading first stream: %w", err)
		}
		pb, err := sb.next()
		if err != nil {
			return rep, fmt.Errorf("reading second stream: %w", err)
		}

		if rep.Mismatch < 0 {
			n := min(len(pa), len(pb))
			if i := firstDiff(pa[:n], pb[:n]); i >= 0 {
				rep.Mismatch = offset + int64(i)
			} else if len(pa) != len(pb) {
				rep.Mismatch = offset + int64(n)
			}
		}
		offset += int64(max(len(pa), len(pb)))
	}

	rep.SizeA, rep.SizeB = sa.size, sb.size
	rep.DigestA, rep.DigestB = sa.h.Sum32(), sb.h.Sum32()
	rep.Equal = rep.Mismatch < 0
	return rep, nil
}

func firstDiff(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
