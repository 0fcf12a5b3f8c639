package lz4

import "github.com/andybalholm/blockstream"

// This file is based on code from github.com/golang/snappy (see match.go for
// the license).

const (
	lazyTableBits = 18
	lazyTableSize = 1 << lazyTableBits
	lazyTableMask = lazyTableSize - 1
)

// Lazy is a blockstream.MatchFinder that does lazy matching and uses two hash
// lengths (4-byte and 8-byte), sharing one table. Like BestSpeed, it keeps
// the table from one block to the next and finds matches in the history.
type Lazy struct {
	table [lazyTableSize]uint32
}

func (q *Lazy) Reset() {
	q.table = [lazyTableSize]uint32{}
}

// FindMatches looks for matches in src and in the tail of history, appends
// them to dst, and returns dst.
func (q *Lazy) FindMatches(dst []blockstream.Match, src, history []byte) []blockstream.Match {
	// sLimit is when to stop looking for offset/length copies. It leaves room
	// for the 8-byte loads.
	sLimit := len(src) - mfLimit

	// nextEmit is where in src the next literal run starts.
	nextEmit := 0

	// A table entry of 0 means empty, so the search starts at 1.
	s := 1
	if s > sLimit {
		goto emitRemainder
	}

	for {
		// Heuristic match skipping, as in BestSpeed.
		skip := 32

		nextS := s
		var match, matchLen int
		for {
			s = nextS
			nextHash := lazyHash(load32(src, s))
			step := skip >> 5
			nextS = s + step
			skip += step
			if nextS > sLimit {
				goto emitRemainder
			}

			raw := q.table[nextHash&lazyTableMask]
			q.table[nextHash&lazyTableMask] = uint32(s)
			match, matchLen = checkMatch(src, history, s, raw)
			if matchLen >= minMatch {
				break
			}
		}

		base := s

		// See if we can find a longer match using an 8-byte hash.
		h := hash8(load64(src, base))
		raw8 := q.table[h&lazyTableMask]
		q.table[h&lazyTableMask] = uint32(base)
		if match8, matchLen8 := checkMatch(src, history, base, raw8); matchLen8 > matchLen {
			match, matchLen = match8, matchLen8
		}

		origBase := base

		// Now try lazy matching.
		if base+1 < sLimit {
			i := base + 1
			h := hash8(load64(src, i))
			raw := q.table[h&lazyTableMask]
			q.table[h&lazyTableMask] = uint32(i)
			if lazyMatch, lazyLen := checkMatch(src, history, i, raw); lazyLen > matchLen {
				base, match, matchLen = i, lazyMatch, lazyLen
			}
		}

		s = base + matchLen
		dst = append(dst, blockstream.Match{
			Unmatched: base - nextEmit,
			Length:    matchLen,
			Distance:  base - match,
		})
		nextEmit = s
		if s >= sLimit {
			goto emitRemainder
		}

		// Update the hash table before searching on.
		for i := origBase + 1; i < s; i++ {
			x := load64(src, i)
			q.table[lazyHash(uint32(x))&lazyTableMask] = uint32(i)
			q.table[hash8(x)&lazyTableMask] = uint32(i)
		}
	}

emitRemainder:
	if nextEmit < len(src) {
		dst = append(dst, blockstream.Match{
			Unmatched: len(src) - nextEmit,
		})
	}
	return dst
}

func hash8(u uint64) uint32 {
	return uint32((u * 0x1FE35A7BD3579BD3) >> (64 - lazyTableBits))
}

func lazyHash(u uint32) uint32 {
	return (u * hashMul32) >> (32 - lazyTableBits)
}

// checkMatch checks whether there is a usable match for pos at the table
// entry raw. It returns the match position (negative if it is in history)
// and the length of the match.
func checkMatch(src, history []byte, pos int, raw uint32) (matchPos, matchLen int) {
	p, ok := position(raw, pos, len(history))
	if !ok || pos-p > maxDistance || !matches4(src, pos, history, p) {
		return 0, 0
	}
	if p > 0 {
		return p, extendMatch(src, p+4, pos+4) - pos
	}
	return p, extendHistoryMatch(history, p+len(history)+4, src, pos+4) - pos
}
