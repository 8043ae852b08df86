package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "##fileformat=VCFv4.2\r\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n\n1\t100\t.\tA\tG\t30\tPASS\t."

var sampleLines = []string{
	"##fileformat=VCFv4.2",
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	"",
	"1\t100\t.\tA\tG\t30\tPASS\t.",
}

func drain(t *testing.T, s Source) []string {
	t.Helper()
	var lines []string
	for {
		line, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
	return lines
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStream_Lines(t *testing.T) {
	s, err := NewStream(strings.NewReader(sample))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, sampleLines, drain(t, s))
	assert.Equal(t, 4, s.LineNumber())
	assert.Equal(t, None, s.Compression())
}

func TestStream_LongLine(t *testing.T) {
	long := strings.Repeat("A", 100)
	input := long + "\n" + long + "\r\n"

	s, err := newStream(strings.NewReader(input), nil, 16)
	require.NoError(t, err)

	assert.Equal(t, []string{long, long}, drain(t, s))
}

func TestStream_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	s, err := NewStream(&buf)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, Gzip, s.Compression())
	assert.Equal(t, sampleLines, drain(t, s))
}

func TestStream_MultiMemberGzip(t *testing.T) {
	var buf bytes.Buffer
	for _, part := range []string{"a\nb\n", "c\n"} {
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte(part))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}

	s, err := NewStream(&buf)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"a", "b", "c"}, drain(t, s))
}

func TestStream_Zstd(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	s, err := NewStream(&buf)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, Zstd, s.Compression())
	assert.Equal(t, sampleLines, drain(t, s))
}

func TestStream_Empty(t *testing.T) {
	s, err := NewStream(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, drain(t, s))
}

func TestMapped_MatchesStream(t *testing.T) {
	m := NewBytes([]byte(sample))
	assert.Equal(t, sampleLines, drain(t, m))
	assert.Equal(t, 4, m.LineNumber())
	require.NoError(t, m.Close())
}

func TestOpen_PlainFileIsMapped(t *testing.T) {
	path := writeFile(t, "in.vcf", []byte(sample))

	s, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*Mapped)
	assert.True(t, ok, "expected a mapped source, got %T", s)
	assert.Equal(t, sampleLines, drain(t, s))
}

func TestOpen_NoMmapStreams(t *testing.T) {
	path := writeFile(t, "in.vcf", []byte(sample))

	s, err := Open(context.Background(), path, Options{NoMmap: true})
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*Stream)
	assert.True(t, ok, "expected a stream source, got %T", s)
	assert.Equal(t, sampleLines, drain(t, s))
}

func TestOpen_CompressedFileStreams(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := writeFile(t, "in.vcf.gz", buf.Bytes())

	s, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, sampleLines, drain(t, s))
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.vcf", nil)

	s, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, drain(t, s))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.vcf"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMapFile(t *testing.T) {
	path := writeFile(t, "ref.fa", []byte(">1\nACGT\n"))

	data, release, err := MapFile(path)
	require.NoError(t, err)
	assert.Equal(t, ">1\nACGT\n", string(data))
	require.NoError(t, release())
}

func TestDetect(t *testing.T) {
	assert.Equal(t, Gzip, Detect([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, Zstd, Detect([]byte{0x28, 0xb5, 0x2f, 0xfd}))
	assert.Equal(t, None, Detect([]byte("##fi")))
	assert.Equal(t, None, Detect(nil))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://my-bucket/path/to/in.vcf.gz")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/in.vcf.gz", key)

	_, _, err = ParseS3URL("s3://my-bucket/")
	assert.Error(t, err)
	_, _, err = ParseS3URL("https://my-bucket/x")
	assert.Error(t, err)
}
