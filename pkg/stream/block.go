// Package stream implements the bounded, block-structured record chains
// that connect the counting pipeline's stages, plus the snappy-compressed
// spill files used when a chain is parked on disk between runs.
package stream

import (
	"github.com/dd0wney/cluso-ngram/pkg/ngram"
)

// Block holds a fixed-capacity run of same-order records in contiguous
// storage. Word sequences live in one flat slab so a record view is just
// an index, never a copy.
type Block struct {
	order  int
	words  []ngram.WordID // len == n*order, cap == capacity*order
	counts []uint64
	n      int
}

// NewBlock creates an empty block for records of the given order.
func NewBlock(order, capacity int) *Block {
	return &Block{
		order:  order,
		words:  make([]ngram.WordID, 0, capacity*order),
		counts: make([]uint64, 0, capacity),
	}
}

// Order returns the record order this block holds.
func (b *Block) Order() int { return b.order }

// Len returns the number of valid records.
func (b *Block) Len() int { return b.n }

// Cap returns the record capacity.
func (b *Block) Cap() int { return cap(b.counts) }

// Full reports whether another record can be appended.
func (b *Block) Full() bool { return b.n == cap(b.counts) }

// Append adds a record, reporting false if the block is full. The word
// sequence is copied into block storage.
func (b *Block) Append(words []ngram.WordID, count uint64) bool {
	if b.Full() {
		return false
	}
	b.words = append(b.words, words...)
	b.counts = append(b.counts, count)
	b.n++
	return true
}

// Words returns the word sequence of record i, aliasing block storage.
func (b *Block) Words(i int) []ngram.WordID {
	return b.words[i*b.order : (i+1)*b.order : (i+1)*b.order]
}

// WordAt returns word pos of record i.
func (b *Block) WordAt(i, pos int) ngram.WordID {
	return b.words[i*b.order+pos]
}

// Count returns the occurrence count of record i.
func (b *Block) Count(i int) uint64 { return b.counts[i] }

// SetCount overwrites the occurrence count of record i.
func (b *Block) SetCount(i int, count uint64) { b.counts[i] = count }

// CopyRecord overwrites record dst with record src in place.
func (b *Block) CopyRecord(dst, src int) {
	copy(b.words[dst*b.order:(dst+1)*b.order], b.words[src*b.order:(src+1)*b.order])
	b.counts[dst] = b.counts[src]
}

// Truncate shrinks the valid record count to n. It never grows a block.
func (b *Block) Truncate(n int) {
	if n >= b.n {
		return
	}
	b.words = b.words[:n*b.order]
	b.counts = b.counts[:n]
	b.n = n
}
