package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Mapped yields lines from a byte region holding the whole input,
// normally a read-only memory mapping. Lines are sub-slices of the region.
type Mapped struct {
	data       []byte
	off        int
	lineNumber int
	release    func() error
}

// NewBytes returns a Mapped source over an in-memory buffer.
func NewBytes(data []byte) *Mapped {
	return &Mapped{data: data}
}

// OpenMapped maps path read-only. Compressed files are not decoded.
func OpenMapped(path string) (*Mapped, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vcf file: %w", err)
	}
	return mapFile(file, info.Size())
}

// MapFile maps the file at path and returns the bytes with a release
// function. It is shared with the reference loader.
func MapFile(path string) ([]byte, func() error, error) {
	m, err := OpenMapped(path)
	if err != nil {
		return nil, nil, err
	}
	return m.data, m.Close, nil
}

// Next returns the next line. bytes.IndexByte is backed by the runtime's
// vectorized byte search on the platforms that have one.
func (m *Mapped) Next() ([]byte, error) {
	if m.off >= len(m.data) {
		return nil, io.EOF
	}
	rest := m.data[m.off:]
	var line []byte
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
		m.off += i + 1
	} else {
		line = rest
		m.off = len(m.data)
	}
	m.lineNumber++
	return trimEOL(line), nil
}

// LineNumber returns the number of the last line returned by Next.
func (m *Mapped) LineNumber() int {
	return m.lineNumber
}

// Close unmaps the region. It is safe to call more than once.
func (m *Mapped) Close() error {
	release := m.release
	m.release = nil
	m.data = nil
	if release != nil {
		return release()
	}
	return nil
}
