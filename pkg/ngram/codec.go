package ngram

import (
	"encoding/binary"
	"fmt"
)

// Records of one order encode to a fixed stride so a byte slab can be
// treated as an indexable record array by the spill layer.
// Format: [word:4]*order [count:8], little-endian.

// EncodedSize returns the byte stride of one encoded record of the
// given order.
func EncodedSize(order int) int {
	return order*4 + 8
}

// PutRecord encodes words and count into dst, which must be at least
// EncodedSize(len(words)) bytes.
func PutRecord(dst []byte, words []WordID, count uint64) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(w))
	}
	binary.LittleEndian.PutUint64(dst[len(words)*4:], count)
}

// GetRecord decodes one record from src into words, returning the count.
// len(words) determines the order being decoded.
func GetRecord(src []byte, words []WordID) uint64 {
	for i := range words {
		words[i] = WordID(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return binary.LittleEndian.Uint64(src[len(words)*4:])
}

// CheckSlab validates that a byte slab holds a whole number of records
// of the given order, returning the record count.
func CheckSlab(slab []byte, order int) (int, error) {
	if order < 1 {
		return 0, fmt.Errorf("invalid order %d", order)
	}
	stride := EncodedSize(order)
	if len(slab)%stride != 0 {
		return 0, fmt.Errorf("slab of %d bytes is not a multiple of record stride %d", len(slab), stride)
	}
	return len(slab) / stride, nil
}
