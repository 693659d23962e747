package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-ngram/pkg/ngram"
)

// Spill files park a chain's blocks on disk between pipeline runs.
// Each block is one snappy-compressed frame:
//
//	[rawLen:4][compLen:4][crc32(comp):4][compressed bytes]
//
// with lengths little-endian and records encoded by the ngram codec.

const spillHeaderSize = 12

// ErrCorruptSpill is returned when a frame fails its checksum or does
// not decode to whole records.
var ErrCorruptSpill = errors.New("corrupt spill frame")

// SpillStats reports what a spill writer put on disk.
type SpillStats struct {
	Blocks          int
	Records         uint64
	BytesRaw        uint64
	BytesCompressed uint64
}

// CompressionRatio returns compressed/raw, or 0 before any write.
func (s SpillStats) CompressionRatio() float64 {
	if s.BytesRaw == 0 {
		return 0
	}
	return float64(s.BytesCompressed) / float64(s.BytesRaw)
}

// SpillWriter writes blocks of one order to a spill file.
type SpillWriter struct {
	f     *os.File
	w     *bufio.Writer
	order int
	stats SpillStats
}

// NewSpillWriter creates (or truncates) a spill file for records of the
// given order.
func NewSpillWriter(path string, order int) (*SpillWriter, error) {
	if order < 1 {
		return nil, fmt.Errorf("spill writer: %w (got %d)", ErrInvalidOrder, order)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("spill writer: %w", err)
	}
	return &SpillWriter{f: f, w: bufio.NewWriter(f), order: order}, nil
}

// WriteBlock appends one block as a compressed frame. Empty blocks are
// skipped.
func (s *SpillWriter) WriteBlock(b *Block) error {
	if b.Order() != s.order {
		return fmt.Errorf("spill writer: block order %d, file order %d", b.Order(), s.order)
	}
	if b.Len() == 0 {
		return nil
	}

	stride := ngram.EncodedSize(s.order)
	raw := make([]byte, b.Len()*stride)
	for i := 0; i < b.Len(); i++ {
		ngram.PutRecord(raw[i*stride:], b.Words(i), b.Count(i))
	}

	comp := snappy.Encode(nil, raw)

	var header [spillHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(header[4:], uint32(len(comp)))
	binary.LittleEndian.PutUint32(header[8:], crc32.ChecksumIEEE(comp))
	if _, err := s.w.Write(header[:]); err != nil {
		return fmt.Errorf("spill write header: %w", err)
	}
	if _, err := s.w.Write(comp); err != nil {
		return fmt.Errorf("spill write frame: %w", err)
	}

	s.stats.Blocks++
	s.stats.Records += uint64(b.Len())
	s.stats.BytesRaw += uint64(len(raw))
	s.stats.BytesCompressed += uint64(len(comp))
	return nil
}

// Stats returns what has been written so far.
func (s *SpillWriter) Stats() SpillStats { return s.stats }

// Close flushes and closes the file.
func (s *SpillWriter) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("spill flush: %w", err)
	}
	return s.f.Close()
}

// SpillReader streams blocks back from a spill file in write order.
type SpillReader struct {
	f     *os.File
	r     *bufio.Reader
	order int
}

// NewSpillReader opens a spill file holding records of the given order.
func NewSpillReader(path string, order int) (*SpillReader, error) {
	if order < 1 {
		return nil, fmt.Errorf("spill reader: %w (got %d)", ErrInvalidOrder, order)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spill reader: %w", err)
	}
	return &SpillReader{f: f, r: bufio.NewReader(f), order: order}, nil
}

// ReadBlock reads the next frame, returning io.EOF cleanly at the end
// of the file.
func (s *SpillReader) ReadBlock() (*Block, error) {
	var header [spillHeaderSize]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("spill read header: %w", err)
	}

	rawLen := binary.LittleEndian.Uint32(header[0:])
	compLen := binary.LittleEndian.Uint32(header[4:])
	sum := binary.LittleEndian.Uint32(header[8:])

	comp := make([]byte, compLen)
	if _, err := io.ReadFull(s.r, comp); err != nil {
		return nil, fmt.Errorf("spill read frame: %w", err)
	}
	return decodeSpillFrame(comp, rawLen, sum, s.order)
}

// Close closes the file.
func (s *SpillReader) Close() error { return s.f.Close() }

// decodeSpillFrame verifies and decompresses one frame into a block.
func decodeSpillFrame(comp []byte, rawLen, sum uint32, order int) (*Block, error) {
	if crc32.ChecksumIEEE(comp) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSpill)
	}
	raw, err := snappy.Decode(nil, comp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSpill, err)
	}
	if uint32(len(raw)) != rawLen {
		return nil, fmt.Errorf("%w: raw length %d, header says %d", ErrCorruptSpill, len(raw), rawLen)
	}
	n, err := ngram.CheckSlab(raw, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSpill, err)
	}

	stride := ngram.EncodedSize(order)
	b := NewBlock(order, n)
	words := make([]ngram.WordID, order)
	for i := 0; i < n; i++ {
		count := ngram.GetRecord(raw[i*stride:], words)
		b.Append(words, count)
	}
	return b, nil
}

// DrainToSpill consumes a chain to its terminal marker, writing every
// block to a spill file.
func DrainToSpill(c *Chain, path string) (SpillStats, error) {
	w, err := NewSpillWriter(path, c.Order())
	if err != nil {
		return SpillStats{}, err
	}
	for {
		b, ok := c.Recv()
		if !ok {
			break
		}
		if err := w.WriteBlock(b); err != nil {
			w.Close()
			return w.Stats(), err
		}
	}
	stats := w.Stats()
	return stats, w.Close()
}

// FillFromSpill replays a spill file into a chain and terminates it.
func FillFromSpill(c *Chain, path string) error {
	r, err := NewSpillReader(path, c.Order())
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		b, err := r.ReadBlock()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		c.Send(b)
	}
	c.Poison()
	return nil
}
