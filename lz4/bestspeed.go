package lz4

import "github.com/andybalholm/blockstream"

// This file is based on code from github.com/golang/snappy (see match.go for
// the license).

// BestSpeed is a blockstream.MatchFinder modeled on snappy's compressor: a
// single table of 4-byte hashes, with the search skipping ahead faster the
// longer it goes without a match. The table survives from one block to the
// next, so matches can reach back into the history passed with each block.
type BestSpeed struct {
	table [tableSize]uint32
}

func (q *BestSpeed) Reset() {
	q.table = [tableSize]uint32{}
}

// FindMatches looks for matches in src and in the tail of history, appends
// them to dst, and returns dst.
func (q *BestSpeed) FindMatches(dst []blockstream.Match, src, history []byte) []blockstream.Match {
	// sLimit is when to stop looking for offset/length copies.
	sLimit := len(src) - mfLimit

	// nextEmit is where in src the next literal run starts.
	nextEmit := 0

	// A table entry of 0 means empty, so the search starts at 1.
	s := 1
	if s > sLimit {
		goto emitRemainder
	}

	for {
		nextHash := hash4(load32(src, s))

		// Heuristic match skipping, as in snappy: after 32 bytes without a
		// match, only every other byte is looked at, after 32 more every
		// third byte, and so on. A match resets the step to 1.
		skip := 32

		nextS := s
		candidate := 0
		for {
			s = nextS
			step := skip >> 5
			nextS = s + step
			skip += step
			if nextS > sLimit {
				goto emitRemainder
			}

			raw := q.table[nextHash&tableMask]
			q.table[nextHash&tableMask] = uint32(s)
			nextHash = hash4(load32(src, nextS))

			p, ok := position(raw, s, len(history))
			if ok && s-p <= maxDistance && matches4(src, s, history, p) {
				candidate = p
				break
			}
		}

		// src[nextEmit:s] is unmatched; extend the 4-byte match forward.
		base := s
		if candidate > 0 {
			s = extendMatch(src, candidate+4, s+4)
		} else {
			s = extendHistoryMatch(history, candidate+len(history)+4, src, s+4)
		}

		dst = append(dst, blockstream.Match{
			Unmatched: base - nextEmit,
			Length:    s - base,
			Distance:  base - candidate,
		})
		nextEmit = s
		if s >= sLimit {
			goto emitRemainder
		}

		// Index s-1 so the next search can find a continuation right away.
		q.table[hash4(load32(src, s-1))&tableMask] = uint32(s - 1)
	}

emitRemainder:
	if nextEmit < len(src) {
		dst = append(dst, blockstream.Match{
			Unmatched: len(src) - nextEmit,
		})
	}
	return dst
}

// position converts the table entry raw, looked up at position s, into a
// position relative to the start of the current block. Positions in history
// are negative. Entries at or after s cannot have been added for the current
// block yet, so they are taken to be history positions. ok is false for empty
// and stale entries.
func position(raw uint32, s, histLen int) (p int, ok bool) {
	p = int(raw)
	if p == 0 {
		return 0, false
	}
	if p < s {
		return p, true
	}
	p -= histLen
	return p, p < 0
}

// matches4 reports whether the 4 bytes at src[s] equal those at position p.
func matches4(src []byte, s int, history []byte, p int) bool {
	if p > 0 {
		return load32(src, s) == load32(src, p)
	}
	i := p + len(history)
	return i+4 <= len(history) && load32(src, s) == load32(history, i)
}
