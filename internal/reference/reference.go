// Package reference indexes a FASTA reference collection for REF allele
// checks. The index stores offsets into a read-only mapping of the file
// rather than copies of the sequences.
package reference

import (
	"bytes"
	"fmt"

	"github.com/inodb/vcfcheck/internal/source"
	"github.com/inodb/vcfcheck/internal/vcf"
)

// Result is the outcome of comparing a REF allele with the reference.
type Result int

const (
	Match Result = iota
	Mismatch
	UnknownContig
	OutOfRange
)

func (r Result) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case UnknownContig:
		return "unknown contig"
	case OutOfRange:
		return "out of range"
	}
	return "unknown"
}

// sequence locates one record in the mapped file. Uniformly wrapped
// sequences are addressed arithmetically like a .fai entry; anything else
// is compacted into packed.
type sequence struct {
	name      string
	offset    int
	end       int
	length    int
	lineBases int
	lineWidth int
	packed    []byte
}

func (s *sequence) base(data []byte, i int) byte {
	if s.packed != nil {
		return s.packed[i]
	}
	return data[s.offset+(i/s.lineBases)*s.lineWidth+i%s.lineBases]
}

// Index maps contig names to sequences in a FASTA buffer.
type Index struct {
	data      []byte
	release   func() error
	sequences map[string]*sequence
	names     []string
	resolved  map[string]*sequence
}

// Open maps the FASTA file at path and indexes it. Compressed files are
// not supported.
func Open(path string) (*Index, error) {
	data, release, err := source.MapFile(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	if source.Detect(data) != source.None {
		release()
		return nil, fmt.Errorf("open reference %s: compressed FASTA is not supported", path)
	}
	x, err := Build(data)
	if err != nil {
		release()
		return nil, fmt.Errorf("index reference %s: %w", path, err)
	}
	x.release = release
	return x, nil
}

// Build indexes an in-memory FASTA buffer. The buffer must outlive the
// index.
func Build(data []byte) (*Index, error) {
	x := &Index{
		data:      data,
		sequences: make(map[string]*sequence),
		resolved:  make(map[string]*sequence),
	}

	var b *builder
	finish := func(end int) error {
		if b == nil {
			return nil
		}
		s := b.finish(data, end)
		if _, dup := x.sequences[s.name]; dup {
			return fmt.Errorf("duplicate sequence name %q", s.name)
		}
		x.sequences[s.name] = s
		x.names = append(x.names, s.name)
		return nil
	}

	off := 0
	for off < len(data) {
		next := len(data)
		line := data[off:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = off + i + 1
		}
		bases := len(bytes.TrimRight(line, "\r"))

		switch {
		case len(line) > 0 && line[0] == '>':
			if err := finish(off); err != nil {
				return nil, err
			}
			name := sequenceName(line[1:])
			if name == "" {
				return nil, fmt.Errorf("sequence header without a name at byte %d", off)
			}
			b = &builder{seq: sequence{name: name, offset: next}}
		case b == nil:
			if bases > 0 {
				return nil, fmt.Errorf("sequence data before the first header")
			}
		default:
			b.addLine(bases, next-off)
		}
		off = next
	}
	if err := finish(len(data)); err != nil {
		return nil, err
	}
	return x, nil
}

// sequenceName returns the first whitespace-delimited token of a header.
func sequenceName(desc []byte) string {
	desc = bytes.TrimRight(desc, "\r")
	if i := bytes.IndexAny(desc, " \t"); i >= 0 {
		desc = desc[:i]
	}
	return string(desc)
}

type builder struct {
	seq       sequence
	lines     int
	ended     bool
	irregular bool
}

func (b *builder) addLine(bases, width int) {
	b.seq.length += bases
	if b.irregular {
		return
	}
	if b.lines == 0 {
		b.seq.lineBases = bases
		b.seq.lineWidth = width
		b.lines++
		b.ended = bases == 0
		return
	}
	b.lines++
	switch {
	case bases == 0:
		b.ended = true
	case b.ended || bases > b.seq.lineBases:
		b.irregular = true
	case bases < b.seq.lineBases || width != b.seq.lineWidth:
		b.ended = true
	}
}

func (b *builder) finish(data []byte, end int) *sequence {
	s := b.seq
	s.end = end
	if b.irregular || (s.lineBases == 0 && s.length > 0) {
		s.packed = pack(data[s.offset:end], s.length)
	}
	return &s
}

// pack copies the bases of a record, dropping line terminators.
func pack(region []byte, length int) []byte {
	out := make([]byte, 0, length)
	for len(region) > 0 {
		line := region
		if i := bytes.IndexByte(region, '\n'); i >= 0 {
			line = region[:i]
			region = region[i+1:]
		} else {
			region = nil
		}
		out = append(out, bytes.TrimRight(line, "\r")...)
	}
	return out
}

// Names returns the sequence names in file order.
func (x *Index) Names() []string {
	return x.names
}

// Len returns the number of indexed sequences.
func (x *Index) Len() int {
	return len(x.sequences)
}

// lookup finds a contig, falling back to toggling the "chr" prefix.
// Results, including misses, are memoized per queried name.
func (x *Index) lookup(contig []byte) *sequence {
	if s, ok := x.resolved[string(contig)]; ok {
		return s
	}
	name := string(contig)
	s, ok := x.sequences[name]
	if !ok {
		s = x.sequences[vcf.ToggleChrPrefix(name)]
	}
	x.resolved[name] = s
	return s
}

// Compare checks ref against the reference at the 1-based position pos,
// ignoring case.
func (x *Index) Compare(contig []byte, pos int64, ref []byte) Result {
	s := x.lookup(contig)
	if s == nil {
		return UnknownContig
	}
	start := int(pos - 1)
	if pos < 1 || start+len(ref) > s.length {
		return OutOfRange
	}
	for i, c := range ref {
		if upper(s.base(x.data, start+i)) != upper(c) {
			return Mismatch
		}
	}
	return Match
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// Close releases the mapping. It is safe to call more than once.
func (x *Index) Close() error {
	release := x.release
	x.release = nil
	if release != nil {
		return release()
	}
	return nil
}
