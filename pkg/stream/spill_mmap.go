package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// MmapSpillReader reads a finished spill file through a memory map.
// The kernel pages frames in on demand, which makes re-reading a large
// spill cheap compared to a buffered file reader.
type MmapSpillReader struct {
	r     *mmap.ReaderAt
	off   int64
	order int
}

// NewMmapSpillReader maps a spill file holding records of the given
// order.
func NewMmapSpillReader(path string, order int) (*MmapSpillReader, error) {
	if order < 1 {
		return nil, fmt.Errorf("mmap spill reader: %w (got %d)", ErrInvalidOrder, order)
	}
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap spill reader: %w", err)
	}
	return &MmapSpillReader{r: r, order: order}, nil
}

// Reset rewinds the reader to the first frame.
func (m *MmapSpillReader) Reset() { m.off = 0 }

// ReadBlock reads the next frame, returning io.EOF at the end of the
// mapping.
func (m *MmapSpillReader) ReadBlock() (*Block, error) {
	if m.off >= int64(m.r.Len()) {
		return nil, io.EOF
	}

	var header [spillHeaderSize]byte
	if _, err := m.r.ReadAt(header[:], m.off); err != nil {
		return nil, fmt.Errorf("mmap spill header: %w", err)
	}
	rawLen := binary.LittleEndian.Uint32(header[0:])
	compLen := binary.LittleEndian.Uint32(header[4:])
	sum := binary.LittleEndian.Uint32(header[8:])

	comp := make([]byte, compLen)
	if _, err := m.r.ReadAt(comp, m.off+spillHeaderSize); err != nil {
		return nil, fmt.Errorf("mmap spill frame: %w", err)
	}
	m.off += spillHeaderSize + int64(compLen)

	return decodeSpillFrame(comp, rawLen, sum, m.order)
}

// Close unmaps the file.
func (m *MmapSpillReader) Close() error { return m.r.Close() }
