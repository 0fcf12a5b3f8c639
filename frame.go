package blockstream

import (
	"encoding/binary"
	"errors"
	"io"
)

// lengthSize is the size of a block's length prefix.
const lengthSize = 4

// sentinel is the zero-length block that terminates a stream.
var sentinel [lengthSize]byte

// beginBlock returns buf truncated to an empty length prefix, ready for a
// codec to append the payload.
func beginBlock(buf []byte) []byte {
	return append(buf[:0], sentinel[:]...)
}

// finishBlock fills in the length prefix of a block started by beginBlock.
func finishBlock(block []byte) []byte {
	binary.LittleEndian.PutUint32(block, uint32(len(block)-lengthSize))
	return block
}

// writeSentinel writes the end-of-stream marker.
func writeSentinel(w io.Writer) error {
	_, err := w.Write(sentinel[:])
	return err
}

// readBlockLength reads a length prefix. A stream that ends before or inside
// the prefix has lost its end-of-stream marker and is reported as truncated.
func readBlockLength(r io.Reader, scratch []byte) (uint32, error) {
	scratch = scratch[:lengthSize]
	if _, err := io.ReadFull(r, scratch); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return binary.LittleEndian.Uint32(scratch), nil
}

// readBlockPayload reads exactly len(dst) bytes of block payload.
func readBlockPayload(r io.Reader, dst []byte) error {
	if _, err := io.ReadFull(r, dst); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

// BlockInfo describes one block of a compressed stream.
type BlockInfo struct {
	Index  int   // position of the block in the stream
	Offset int64 // offset of the length prefix
	Length int   // payload length
}

// Scan walks the block structure of a compressed stream without decompressing
// it, calling fn for every block. It stops at the end-of-stream marker, which
// is not passed to fn, and reports ErrTruncated if the marker is missing.
func Scan(r io.Reader, fn func(BlockInfo) error) (Result, error) {
	var (
		res     = Result{Status: StatusOK}
		scratch [lengthSize]byte
	)
	for {
		info := BlockInfo{Index: res.Blocks, Offset: res.BytesIn}
		length, err := readBlockLength(r, scratch[:])
		if err != nil {
			return res.fail(&BlockError{Block: info.Index, Offset: info.Offset, Err: err})
		}
		res.BytesIn += lengthSize
		if length == 0 {
			res.Status = StatusEndOfStream
			return res, nil
		}

		n, err := io.CopyN(io.Discard, r, int64(length))
		res.BytesIn += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrTruncated
			}
			return res.fail(&BlockError{Block: info.Index, Offset: info.Offset, Err: err})
		}

		info.Length = int(length)
		if fn != nil {
			if err := fn(info); err != nil {
				return res.fail(err)
			}
		}
		res.Blocks++
	}
}
