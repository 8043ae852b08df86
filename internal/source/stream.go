package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const defaultBufferSize = 256 * 1024

// Stream reads lines from a buffered reader. Gzip (including BGZF, which
// is a series of gzip members) and zstd input is decoded transparently.
type Stream struct {
	reader      *bufio.Reader
	closers     []io.Closer
	buf         []byte
	lineNumber  int
	compression Compression
}

// NewStream creates a Stream over r. The caller keeps ownership of r.
func NewStream(r io.Reader) (*Stream, error) {
	return newStream(r, nil, defaultBufferSize)
}

func newStream(r io.Reader, owned io.Closer, size int) (*Stream, error) {
	s := &Stream{}
	if owned != nil {
		s.closers = append(s.closers, owned)
	}

	raw := bufio.NewReaderSize(r, size)
	magic, err := raw.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("peek input: %w", err)
	}

	s.compression = Detect(magic)
	switch s.compression {
	case Gzip:
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		s.closers = append(s.closers, gz)
		s.reader = bufio.NewReaderSize(gz, size)
	case Zstd:
		dec, err := zstd.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		rc := dec.IOReadCloser()
		s.closers = append(s.closers, rc)
		s.reader = bufio.NewReaderSize(rc, size)
	default:
		s.reader = raw
	}
	return s, nil
}

// Compression returns the encoding detected on the underlying input.
func (s *Stream) Compression() Compression {
	return s.compression
}

// Next returns the next line. Lines longer than the read buffer are
// assembled into an internal scratch buffer that is reused across calls.
func (s *Stream) Next() ([]byte, error) {
	s.buf = s.buf[:0]
	for {
		chunk, err := s.reader.ReadSlice('\n')
		switch {
		case err == nil:
			s.lineNumber++
			if len(s.buf) == 0 {
				return trimEOL(chunk), nil
			}
			s.buf = append(s.buf, chunk...)
			return trimEOL(s.buf), nil
		case errors.Is(err, bufio.ErrBufferFull):
			s.buf = append(s.buf, chunk...)
		case errors.Is(err, io.EOF):
			if len(chunk) == 0 && len(s.buf) == 0 {
				return nil, io.EOF
			}
			s.lineNumber++
			s.buf = append(s.buf, chunk...)
			return trimEOL(s.buf), nil
		default:
			return nil, fmt.Errorf("read line %d: %w", s.lineNumber+1, err)
		}
	}
}

// LineNumber returns the number of the last line returned by Next.
func (s *Stream) LineNumber() int {
	return s.lineNumber
}

// Close closes decoders and any file opened by Open, innermost first.
func (s *Stream) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
