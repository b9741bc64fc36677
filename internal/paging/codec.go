package paging

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Shared coders; EncodeAll and DecodeAll are safe for concurrent use.
var (
	blockEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	blockDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// encodeBlock compresses cells as little-endian int64s.
func encodeBlock(cells []int64) []byte {
	raw := make([]byte, 8*len(cells))
	for i, v := range cells {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
	}
	return blockEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))
}

func decodeBlock(data []byte) ([]int64, error) {
	raw, err := blockDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockUnavailable, err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("%w: truncated block of %d bytes", ErrBlockUnavailable, len(raw))
	}
	cells := make([]int64, len(raw)/8)
	for i := range cells {
		cells[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return cells, nil
}
