package stream

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/cluso-ngram/pkg/ngram"
)

func writeTestSpill(t *testing.T, path string) []ngram.Record {
	t.Helper()

	records := []ngram.Record{
		{Words: []ngram.WordID{ngram.BOS, 3}, Count: 2},
		{Words: []ngram.WordID{3, 4}, Count: 5},
		{Words: []ngram.WordID{4, 3}, Count: 1},
		{Words: []ngram.WordID{4, 4}, Count: 11},
		{Words: []ngram.WordID{3, ngram.EOS}, Count: 2},
	}

	w, err := NewSpillWriter(path, 2)
	if err != nil {
		t.Fatalf("NewSpillWriter: %v", err)
	}

	// Two frames: 3 records + 2 records.
	b1 := NewBlock(2, 3)
	for _, r := range records[:3] {
		b1.Append(r.Words, r.Count)
	}
	b2 := NewBlock(2, 3)
	for _, r := range records[3:] {
		b2.Append(r.Words, r.Count)
	}
	if err := w.WriteBlock(b1); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := w.WriteBlock(b2); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	stats := w.Stats()
	if stats.Blocks != 2 || stats.Records != 5 {
		t.Errorf("stats = %+v, want 2 blocks / 5 records", stats)
	}
	if stats.BytesRaw == 0 || stats.BytesCompressed == 0 {
		t.Errorf("byte counters not tracked: %+v", stats)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return records
}

func readAllBlocks(t *testing.T, read func() (*Block, error)) []ngram.Record {
	t.Helper()
	var got []ngram.Record
	for {
		b, err := read()
		if err == io.EOF {
			return got
		}
		if err != nil {
			t.Fatalf("ReadBlock: %v", err)
		}
		for i := 0; i < b.Len(); i++ {
			got = append(got, ngram.Record{Words: b.Words(i), Count: b.Count(i)}.Clone())
		}
	}
}

func checkRecords(t *testing.T, got, want []ngram.Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("record %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSpillRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order2.spill")
	want := writeTestSpill(t, path)

	r, err := NewSpillReader(path, 2)
	if err != nil {
		t.Fatalf("NewSpillReader: %v", err)
	}
	defer r.Close()

	checkRecords(t, readAllBlocks(t, r.ReadBlock), want)
}

func TestMmapSpillRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order2.spill")
	want := writeTestSpill(t, path)

	m, err := NewMmapSpillReader(path, 2)
	if err != nil {
		t.Fatalf("NewMmapSpillReader: %v", err)
	}
	defer m.Close()

	checkRecords(t, readAllBlocks(t, m.ReadBlock), want)

	// Reset rewinds for a second pass.
	m.Reset()
	checkRecords(t, readAllBlocks(t, m.ReadBlock), want)
}

func TestSpillCorruptionDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order2.spill")
	writeTestSpill(t, path)

	// Flip a byte inside the first frame's payload.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[spillHeaderSize] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewSpillReader(path, 2)
	if err != nil {
		t.Fatalf("NewSpillReader: %v", err)
	}
	defer r.Close()

	_, err = r.ReadBlock()
	if !errors.Is(err, ErrCorruptSpill) {
		t.Errorf("err = %v, want ErrCorruptSpill", err)
	}
}

func TestDrainAndFillSpill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.spill")

	src, err := NewChain(2, 2, 8)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	w := src.NewWriter()
	w.Append([]ngram.WordID{3, 4}, 2)
	w.Append([]ngram.WordID{5, 4}, 1)
	w.Append([]ngram.WordID{4, 5}, 3)
	w.Poison()

	stats, err := DrainToSpill(src, path)
	if err != nil {
		t.Fatalf("DrainToSpill: %v", err)
	}
	if stats.Records != 3 {
		t.Errorf("drained %d records, want 3", stats.Records)
	}

	dst, err := NewChain(2, 2, 8)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := FillFromSpill(dst, path); err != nil {
		t.Fatalf("FillFromSpill: %v", err)
	}

	r := dst.NewReader()
	var counts []uint64
	for r.Next() {
		counts = append(counts, r.Count())
	}
	if len(counts) != 3 || counts[0] != 2 || counts[1] != 1 || counts[2] != 3 {
		t.Errorf("counts = %v, want [2 1 3]", counts)
	}
}

func TestSpillOrderMismatchRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order2.spill")
	w, err := NewSpillWriter(path, 2)
	if err != nil {
		t.Fatalf("NewSpillWriter: %v", err)
	}
	defer w.Close()

	b := NewBlock(3, 1)
	b.Append([]ngram.WordID{1, 2, 3}, 1)
	if err := w.WriteBlock(b); err == nil {
		t.Error("order mismatch should be rejected")
	}
}
