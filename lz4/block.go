package lz4

import (
	"encoding/binary"

	"github.com/andybalholm/blockstream"
)

const (
	minMatch = 4

	// the LZ4 end-of-block rules: the last 5 bytes are literals, and the
	// last match starts at least mfLimit bytes before the end
	lastLiterals = 5
)

// A BlockEncoder writes matches in the LZ4 block format.
type BlockEncoder struct{}

// Encode appends the LZ4 block for src, described by matches, to dst. A match
// that would break the end-of-block rules is shortened, or turned back into
// literals along with everything after it.
func (BlockEncoder) Encode(dst []byte, src []byte, matches []blockstream.Match) []byte {
	pos := 0 // start of the pending literals
	next := 0
	for _, m := range matches {
		start := next + m.Unmatched
		next = start + m.Length
		if m.Length == 0 {
			continue
		}
		if len(src)-start < mfLimit {
			break
		}

		length := min(m.Length, len(src)-lastLiterals-start)
		dst = appendSequence(dst, src[pos:start], length)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(m.Distance))
		if length-minMatch >= 15 {
			dst = appendInt(dst, length-minMatch-15)
		}
		pos = start + length
		if length < m.Length {
			break
		}
	}

	// The block ends with a literals-only sequence.
	return appendSequence(dst, src[pos:], minMatch)
}

// appendSequence appends the token and literals of one sequence; the match
// part (offset and extra length bytes) is left to the caller.
func appendSequence(dst, literals []byte, matchLen int) []byte {
	litLen := len(literals)
	token := byte(min(litLen, 15)<<4) | byte(min(matchLen-minMatch, 15))
	dst = append(dst, token)
	if litLen >= 15 {
		dst = appendInt(dst, litLen-15)
	}
	return append(dst, literals...)
}

// appendInt appends n to dst in LZ4's variable-length integer format.
func appendInt(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}
	return append(dst, byte(n))
}
