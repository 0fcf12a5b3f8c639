package lz4

import "github.com/andybalholm/blockstream"

// This file is based on code from github.com/golang/snappy (see match.go for
// the license).

// HashChain is a blockstream.MatchFinder that finds longer matches than
// BestSpeed by following chains of earlier positions with the same hash.
// Chains extend into the history block.
type HashChain struct {
	// SearchLen is the number of chain links followed per match.
	SearchLen int

	table [tableSize]uint32

	// chain[i] is the distance from position i of the current block to the
	// previous position with the same hash (0 if there is none); histChain
	// holds the same for the history block.
	chain     []uint16
	histChain []uint16
}

func (q *HashChain) Reset() {
	q.table = [tableSize]uint32{}
	q.chain = q.chain[:0]
	q.histChain = q.histChain[:0]
}

// FindMatches looks for matches in src and in the tail of history, appends
// them to dst, and returns dst.
func (q *HashChain) FindMatches(dst []blockstream.Match, src, history []byte) []blockstream.Match {
	if len(q.histChain) != len(history) {
		// history that was not indexed by the previous call (e.g. a seed
		// dictionary) has no chain links
		q.histChain = resizeZero(q.histChain, len(history))
	}
	q.chain = resizeZero(q.chain, len(src))

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

		// Heuristic match skipping, as in BestSpeed.
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
			if !ok {
				continue
			}
			q.link(s, p)
			if s-p <= maxDistance && matches4(src, s, history, p) {
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
		match := candidate

		// Follow the chain to see if we can find a longer match.
		for i := 0; i < q.SearchLen; i++ {
			var next int
			if candidate >= 0 {
				next = candidate - int(q.chain[candidate])
			} else {
				next = candidate - int(q.histChain[candidate+len(history)])
			}
			if next == candidate || next < -len(history) || base-next > maxDistance {
				break
			}

			var end int
			if next >= 0 {
				end = extendMatch(src, next, base)
			} else {
				end = extendHistoryMatch(history, next+len(history), src, base)
			}
			if end > s {
				s, match = end, next
			}
			candidate = next
		}

		dst = append(dst, blockstream.Match{
			Unmatched: base - nextEmit,
			Length:    s - base,
			Distance:  base - match,
		})
		nextEmit = s
		if s >= sLimit {
			goto emitRemainder
		}

		// Index the positions covered by the match before searching on.
		for i := base + 1; i < s; i++ {
			h := hash4(load32(src, i)) & tableMask
			raw := q.table[h]
			q.table[h] = uint32(i)
			if p, ok := position(raw, i, len(history)); ok {
				q.link(i, p)
			}
		}
	}

emitRemainder:
	if nextEmit < len(src) {
		dst = append(dst, blockstream.Match{
			Unmatched: len(src) - nextEmit,
		})
	}
	q.chain, q.histChain = q.histChain[:0], q.chain
	return dst
}

// link records p as the predecessor of position i in the current block.
func (q *HashChain) link(i, p int) {
	if i-p <= maxDistance {
		q.chain[i] = uint16(i - p)
	}
}

func resizeZero(s []uint16, n int) []uint16 {
	if cap(s) < n {
		return make([]uint16, n)
	}
	s = s[:n]
	clear(s)
	return s
}
