// Package ngram defines the n-gram record data model shared by the
// counting pipeline: word ids, fixed-order records, suffix ordering and
// the fixed-stride byte codec used by the disk spill layer.
package ngram

import (
	"fmt"
	"strings"
)

// WordID identifies a vocabulary token. The counting pipeline only ever
// sees resolved ids; the word-to-id mapping lives in the vocabulary stage.
type WordID uint32

// Reserved vocabulary ids, in the layout the corpus counter assigns them.
const (
	// UNK is the unknown-word token.
	UNK WordID = 0
	// BOS is the sentence-start marker. It is only valid in position 0
	// of a record; the boundary filter removes records that violate this.
	BOS WordID = 1
	// EOS is the sentence-end marker.
	EOS WordID = 2
)

// Record is an n-gram observation: a fixed-length word sequence plus an
// occurrence count. Words may alias block storage; callers that retain a
// Record across stream advances must Clone it.
type Record struct {
	Words []WordID
	Count uint64
}

// Order returns the number of words in the record.
func (r Record) Order() int {
	return len(r.Words)
}

// Clone returns a Record with its own backing storage.
func (r Record) Clone() Record {
	words := make([]WordID, len(r.Words))
	copy(words, r.Words)
	return Record{Words: words, Count: r.Count}
}

// String renders the record for logs and test failures.
func (r Record) String() string {
	parts := make([]string, len(r.Words))
	for i, w := range r.Words {
		parts[i] = fmt.Sprintf("%d", w)
	}
	return fmt.Sprintf("[%s]=%d", strings.Join(parts, " "), r.Count)
}
