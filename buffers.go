package blockstream

// blockBuffers holds the two plaintext buffers a stream alternates between.
// Block K is placed in buf[cur]; the previous block stays in the other buffer
// and is handed to the codec as its dictionary, so it must not be written
// until block K has been processed. Switching to a single buffer would let
// block K overwrite its own dictionary.
type blockBuffers struct {
	buf  [2][]byte
	cur  int
	hist []byte
}

func newBlockBuffers(size, start int, seed []byte) *blockBuffers {
	b := &blockBuffers{buf: [2][]byte{make([]byte, size), make([]byte, size)}}
	b.reset(start, seed)
	return b
}

// reset starts over with block 0 going to buf[start&1] and seed as history.
func (b *blockBuffers) reset(start int, seed []byte) {
	b.cur = start & 1
	b.hist = seed
}

// current returns the writable buffer for the next block.
func (b *blockBuffers) current() []byte {
	return b.buf[b.cur]
}

// history returns the plaintext of the previous block (or the seed
// dictionary before the first block).
func (b *blockBuffers) history() []byte {
	return b.hist
}

// advance marks the first n bytes of the current buffer as the latest block,
// makes them the history and switches to the other buffer.
func (b *blockBuffers) advance(n int) []byte {
	block := b.buf[b.cur][:n]
	b.hist = block
	b.cur ^= 1
	return block
}
