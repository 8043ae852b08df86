// Package source yields the logical lines of a VCF input, either from a
// buffered (optionally compressed) stream or from a read-only memory
// mapping of the whole file. Both implementations satisfy Source so the
// validator is written once against the interface.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source produces successive lines with the line terminator and any
// trailing carriage returns removed.
type Source interface {
	// Next returns the next line, or io.EOF after the last one.
	// The returned slice is only valid until the following call and must
	// not be modified.
	Next() ([]byte, error)

	// LineNumber returns the 1-based number of the last line returned.
	LineNumber() int

	// Close releases the underlying file, decoder or mapping.
	Close() error
}

// Options control how Open chooses a Source implementation.
type Options struct {
	// NoMmap forces streaming even for plain regular files.
	NoMmap bool
	// S3 configures access for s3:// inputs.
	S3 S3Config
}

// Compression identifies the encoding detected at the start of a stream.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	}
	return "none"
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the compression signature at the start of b.
func Detect(b []byte) Compression {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		return Gzip
	case bytes.HasPrefix(b, zstdMagic):
		return Zstd
	}
	return None
}

// Open returns a Source for path. An empty path or "-" reads standard
// input, "s3://bucket/key" streams an S3 object, a compressed file is
// streamed through a decoder and any other regular file is memory-mapped
// unless opts.NoMmap is set.
func Open(ctx context.Context, path string, opts Options) (Source, error) {
	if path == "" || path == "-" {
		return NewStream(os.Stdin)
	}
	if strings.HasPrefix(path, "s3://") {
		return OpenS3(ctx, path, opts.S3)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat vcf file: %w", err)
	}

	magic := make([]byte, 4)
	n, err := io.ReadFull(file, magic)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if opts.NoMmap || !info.Mode().IsRegular() || Detect(magic[:n]) != None {
		s, err := newStream(file, file, defaultBufferSize)
		if err != nil {
			file.Close()
			return nil, err
		}
		return s, nil
	}

	m, err := mapFile(file, info.Size())
	file.Close()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// trimEOL removes one trailing newline and any carriage returns before it.
func trimEOL(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	for n := len(line); n > 0 && line[n-1] == '\r'; n-- {
		line = line[:n-1]
	}
	return line
}
