package stream

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-ngram/pkg/ngram"
)

// Chain is a bounded producer/consumer queue of blocks for one record
// order. A full buffer blocks the producer and an empty buffer blocks
// the consumer, which is what provides backpressure across pipeline
// stages running on separate goroutines.
//
// End-of-stream is an explicit terminal marker rather than channel
// closure, so a blocked consumer can distinguish "temporarily empty"
// from "permanently finished".
type Chain struct {
	order        int
	blockRecords int
	blocks       chan *Block
}

// endMarker is the terminal block every producer sends exactly once.
// It carries no records and is never handed to callers.
var endMarker = &Block{}

var (
	ErrInvalidOrder  = errors.New("order must be at least 1")
	ErrInvalidBuffer = errors.New("block size and buffer depth must be at least 1")
)

// NewChain creates a chain carrying blocks of blockRecords records of
// the given order, buffering at most bufferBlocks blocks in flight.
func NewChain(order, blockRecords, bufferBlocks int) (*Chain, error) {
	if order < 1 {
		return nil, fmt.Errorf("new chain: %w (got %d)", ErrInvalidOrder, order)
	}
	if blockRecords < 1 || bufferBlocks < 1 {
		return nil, fmt.Errorf("new chain: %w (records=%d, blocks=%d)", ErrInvalidBuffer, blockRecords, bufferBlocks)
	}
	return &Chain{
		order:        order,
		blockRecords: blockRecords,
		blocks:       make(chan *Block, bufferBlocks),
	}, nil
}

// Order returns the record order this chain carries.
func (c *Chain) Order() int { return c.order }

// BlockRecords returns the configured records-per-block.
func (c *Chain) BlockRecords() int { return c.blockRecords }

// Send queues a block, blocking while the buffer is full.
func (c *Chain) Send(b *Block) {
	c.blocks <- b
}

// Recv dequeues the next block, blocking while the buffer is empty.
// It reports false once the terminal marker has been received; the
// returned block is nil in that case.
func (c *Chain) Recv() (*Block, bool) {
	b := <-c.blocks
	if b == endMarker {
		return nil, false
	}
	return b, true
}

// Poison sends the terminal marker. The producer must call it exactly
// once, after all data blocks.
func (c *Chain) Poison() {
	c.blocks <- endMarker
}

// Writer appends records one at a time, flushing full blocks into the
// chain.
type Writer struct {
	chain    *Chain
	cur      *Block
	poisoned bool
}

// NewWriter creates a record-level writer for the chain. A chain must
// have a single producer.
func (c *Chain) NewWriter() *Writer {
	return &Writer{chain: c}
}

// Append adds one record, sending the current block downstream when it
// fills.
func (w *Writer) Append(words []ngram.WordID, count uint64) {
	if w.poisoned {
		panic("stream: append after poison")
	}
	if w.cur == nil {
		w.cur = NewBlock(w.chain.order, w.chain.blockRecords)
	}
	w.cur.Append(words, count)
	if w.cur.Full() {
		w.chain.Send(w.cur)
		w.cur = nil
	}
}

// Poison flushes any partial block and terminates the chain. A second
// call panics: double termination means two stages think they own the
// producer side.
func (w *Writer) Poison() {
	if w.poisoned {
		panic("stream: chain poisoned twice")
	}
	if w.cur != nil && w.cur.Len() > 0 {
		w.chain.Send(w.cur)
		w.cur = nil
	}
	w.poisoned = true
	w.chain.Poison()
}

// Reader iterates records across the blocks of a chain.
type Reader struct {
	chain *Chain
	cur   *Block
	i     int
	done  bool
}

// NewReader creates a record-level reader for the chain. A chain must
// have a single consumer.
func (c *Chain) NewReader() *Reader {
	return &Reader{chain: c, i: -1}
}

// Next advances to the next record, reporting false at end-of-stream.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	r.i++
	for r.cur == nil || r.i >= r.cur.Len() {
		b, ok := r.chain.Recv()
		if !ok {
			r.done = true
			r.cur = nil
			return false
		}
		r.cur = b
		r.i = 0
	}
	return true
}

// Words returns the current record's word sequence, aliasing block
// storage. Valid until block storage is released by the caller.
func (r *Reader) Words() []ngram.WordID {
	return r.cur.Words(r.i)
}

// Count returns the current record's occurrence count.
func (r *Reader) Count() uint64 {
	return r.cur.Count(r.i)
}
