package stream

import (
	"testing"
	"time"

	"github.com/dd0wney/cluso-ngram/pkg/ngram"
)

func TestBlockAppendAndViews(t *testing.T) {
	b := NewBlock(2, 3)

	if !b.Append([]ngram.WordID{3, 4}, 7) {
		t.Fatal("append to empty block failed")
	}
	if !b.Append([]ngram.WordID{5, 6}, 1) {
		t.Fatal("second append failed")
	}

	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
	if w := b.Words(1); w[0] != 5 || w[1] != 6 {
		t.Errorf("Words(1) = %v", w)
	}
	if b.WordAt(0, 1) != 4 {
		t.Errorf("WordAt(0,1) = %d, want 4", b.WordAt(0, 1))
	}
	if b.Count(0) != 7 {
		t.Errorf("Count(0) = %d, want 7", b.Count(0))
	}

	b.Append([]ngram.WordID{8, 9}, 2)
	if !b.Full() {
		t.Error("block should be full at capacity")
	}
	if b.Append([]ngram.WordID{1, 1}, 1) {
		t.Error("append past capacity should fail")
	}
}

func TestBlockCopyRecordAndTruncate(t *testing.T) {
	b := NewBlock(2, 4)
	b.Append([]ngram.WordID{1, 2}, 10)
	b.Append([]ngram.WordID{3, 4}, 20)
	b.Append([]ngram.WordID{5, 6}, 30)

	b.CopyRecord(0, 2)
	if w := b.Words(0); w[0] != 5 || w[1] != 6 || b.Count(0) != 30 {
		t.Errorf("after CopyRecord: words=%v count=%d", b.Words(0), b.Count(0))
	}

	b.Truncate(1)
	if b.Len() != 1 {
		t.Errorf("Len after truncate = %d, want 1", b.Len())
	}
	b.Truncate(5)
	if b.Len() != 1 {
		t.Error("Truncate must never grow a block")
	}
}

func TestChainWriterReaderRoundtrip(t *testing.T) {
	c, err := NewChain(2, 2, 8)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	records := []ngram.Record{
		{Words: []ngram.WordID{3, 4}, Count: 2},
		{Words: []ngram.WordID{5, 4}, Count: 1},
		{Words: []ngram.WordID{4, 5}, Count: 9},
	}

	w := c.NewWriter()
	for _, r := range records {
		w.Append(r.Words, r.Count)
	}
	w.Poison() // flushes the partial second block

	r := c.NewReader()
	for i, want := range records {
		if !r.Next() {
			t.Fatalf("stream ended early at record %d", i)
		}
		got := ngram.Record{Words: r.Words(), Count: r.Count()}
		if got.Count != want.Count || got.Words[0] != want.Words[0] || got.Words[1] != want.Words[1] {
			t.Errorf("record %d = %v, want %v", i, got, want)
		}
	}
	if r.Next() {
		t.Error("reader should report end after terminal marker")
	}
	if r.Next() {
		t.Error("reader must stay terminated")
	}
}

func TestChainEmptyPoisonOnly(t *testing.T) {
	c, err := NewChain(1, 4, 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	w := c.NewWriter()
	w.Poison()

	r := c.NewReader()
	if r.Next() {
		t.Error("empty chain should yield no records")
	}
}

func TestChainBackpressure(t *testing.T) {
	// Buffer of one block: the producer must block on the second block
	// until the consumer drains the first.
	c, err := NewChain(1, 1, 1)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	sentSecond := make(chan struct{})
	go func() {
		w := c.NewWriter()
		w.Append([]ngram.WordID{3}, 1)
		w.Append([]ngram.WordID{4}, 1)
		close(sentSecond)
		w.Poison()
	}()

	select {
	case <-sentSecond:
		t.Fatal("producer was not blocked by full buffer")
	case <-time.After(20 * time.Millisecond):
	}

	r := c.NewReader()
	var got []ngram.WordID
	for r.Next() {
		got = append(got, r.Words()[0])
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("records = %v, want [3 4]", got)
	}
}

func TestWriterDoublePoisonPanics(t *testing.T) {
	c, _ := NewChain(1, 1, 4)
	w := c.NewWriter()
	w.Poison()

	defer func() {
		if recover() == nil {
			t.Error("second Poison should panic")
		}
	}()
	w.Poison()
}

func TestNewChainValidation(t *testing.T) {
	if _, err := NewChain(0, 4, 2); err == nil {
		t.Error("order 0 should be rejected")
	}
	if _, err := NewChain(2, 0, 2); err == nil {
		t.Error("zero block size should be rejected")
	}
	if _, err := NewChain(2, 4, 0); err == nil {
		t.Error("zero buffer should be rejected")
	}
}
