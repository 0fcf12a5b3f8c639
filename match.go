// Package blockstream compresses a byte stream as a sequence of fixed-size
// blocks without losing the redundancy between them.
//
// Each chunk of input is compressed on its own, but the codec is allowed to
// refer back into the previous chunk, so a block is only decodable together
// with the plaintext of the block before it. Both directions therefore keep
// exactly two plaintext buffers and alternate between them: while block N is
// being filled, block N-1 stays untouched and serves as the dictionary.
//
// The compressed stream is a sequence of length-prefixed blocks:
//
//	stream     := block* terminator
//	block      := length:uint32le (length > 0), payload:byte[length]
//	terminator := length:uint32le (== 0)
//
// The block compression itself is pluggable (see Codec). Codecs built on
// LZ77 share the Match and MatchFinder types defined here.
package blockstream

// A Match is the basic unit of LZ77 compression.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input
	Distance  int // how far back in the stream to copy from
}

// A MatchFinder performs the LZ77 stage of compression, looking for matches.
type MatchFinder interface {
	// FindMatches looks for matches in src, appends them to dst, and returns
	// dst. history holds the bytes that immediately precede src in the
	// stream; matches may reach back into it. The MatchFinder may keep a
	// reference to src, so src must not be modified until the next call,
	// where it will be passed back as history.
	FindMatches(dst []Match, src, history []byte) []Match

	// Reset clears any internal state, preparing the MatchFinder to be used with
	// a new stream.
	Reset()
}
