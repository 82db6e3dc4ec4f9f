package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

const (
	mozLz4HeaderSize = 12 // 8 magic + 4 size

	// Values smaller than this are stored as plain JSON.
	compressThreshold = 1 << 10
)

// CompressMozLz4 wraps data in Mozilla's mozlz4 format: the 8-byte magic,
// a 4-byte LE uint32 uncompressed size and one lz4 block.
func CompressMozLz4(data []byte) ([]byte, error) {
	var c lz4.Compressor
	block := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := c.CompressBlock(data, block)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: compress failed: %w", err)
	}

	out := make([]byte, mozLz4HeaderSize, mozLz4HeaderSize+n)
	copy(out, mozLz4Magic)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(data)))
	return append(out, block[:n]...), nil
}

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format.
func DecompressMozLz4(data []byte) ([]byte, error) {
	if len(data) < mozLz4HeaderSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(mozLz4Magic)], mozLz4Magic) {
		return nil, fmt.Errorf("mozlz4: invalid header magic")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:12])
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[mozLz4HeaderSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

// encodeValue compresses values above the threshold.
func encodeValue(data []byte) ([]byte, error) {
	if len(data) < compressThreshold {
		return data, nil
	}
	return CompressMozLz4(data)
}

// decodeValue accepts both compressed and plain stored values.
func decodeValue(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, mozLz4Magic) {
		return DecompressMozLz4(data)
	}
	return data, nil
}
