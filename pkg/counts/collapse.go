package counts

import (
	"github.com/dd0wney/cluso-ngram/pkg/ngram"
	"github.com/dd0wney/cluso-ngram/pkg/stream"
)

// collapseCursor reads a top-order chain, removing records that carry
// the sentence-start marker in position 1. Gaps are refilled in place
// from the unconsumed tail of the same block, so each valid record is
// yielded exactly once; the refill disturbs relative order only for the
// relocated records, which the engine tolerates because suffix
// adjacency among the surviving records is unaffected.
//
// Requires order >= 2; the engine's unigram path bypasses it.
type collapseCursor struct {
	in       *stream.Chain
	block    *stream.Block
	blockLen int
	i        int // forward cursor
	copyFrom int // backward fill source: last usable valid record
	removed  uint64
	done     bool
}

func newCollapseCursor(in *stream.Chain) *collapseCursor {
	return &collapseCursor{in: in}
}

// Next advances to the next valid record, reporting false at
// end-of-stream.
func (c *collapseCursor) Next() bool {
	if c.done {
		return false
	}
	if c.block != nil {
		c.i++
		if c.i <= c.copyFrom {
			c.fill()
			return true
		}
		c.finishBlock()
	}
	return c.nextBlock()
}

// Words returns the current record's word sequence, aliasing block
// storage. Slots behind the forward cursor are never rewritten, so the
// alias stays valid for the rest of the run.
func (c *collapseCursor) Words() []ngram.WordID {
	return c.block.Words(c.i)
}

// Count returns the current record's raw count.
func (c *collapseCursor) Count() uint64 {
	return c.block.Count(c.i)
}

// Removed returns how many records the filter has dropped so far.
func (c *collapseCursor) Removed() uint64 {
	return c.removed
}

// fill patches the forward slot from the tail if it holds an invalid
// record. The caller guarantees i <= copyFrom; an invalid slot at the
// copyFrom position itself is impossible because copyFrom always
// addresses a valid record.
func (c *collapseCursor) fill() {
	if c.block.WordAt(c.i, 1) != ngram.BOS {
		return
	}
	c.block.CopyRecord(c.i, c.copyFrom)
	// Retreat past any invalid records; stopping at i is fine since
	// slot i now holds the copied (valid) record.
	for c.copyFrom--; c.copyFrom > c.i; c.copyFrom-- {
		if c.block.WordAt(c.copyFrom, 1) != ngram.BOS {
			break
		}
	}
}

// finishBlock shrinks the block to the records actually yielded and
// accounts for the removals.
func (c *collapseCursor) finishBlock() {
	c.block.Truncate(c.i)
	c.removed += uint64(c.blockLen - c.i)
	c.block = nil
}

// nextBlock positions the cursor on the first valid record of the next
// non-empty block.
func (c *collapseCursor) nextBlock() bool {
	for {
		b, ok := c.in.Recv()
		if !ok {
			c.done = true
			return false
		}
		if b.Len() == 0 {
			continue
		}

		c.block = b
		c.blockLen = b.Len()
		c.i = 0
		c.copyFrom = b.Len() - 1
		for c.copyFrom >= 0 && b.WordAt(c.copyFrom, 1) == ngram.BOS {
			c.copyFrom--
		}
		if c.copyFrom < 0 {
			// Nothing valid in this block.
			c.finishBlock()
			continue
		}
		c.fill()
		return true
	}
}
