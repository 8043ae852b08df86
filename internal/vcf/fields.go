package vcf

import (
	"bytes"
)

// Fixed column indices of a data line.
const (
	ColChrom    = 0
	ColPos      = 1
	ColID       = 2
	ColRef      = 3
	ColAlt      = 4
	ColQual     = 5
	ColFilter   = 6
	ColInfo     = 7
	ColFormat   = 8
	FirstSample = 9
	MinColumns  = 8
)

// Missing is the missing-value marker.
const Missing = "."

// NonRefAllele marks a reference-confidence block in gVCF.
const NonRefAllele = "<NON_REF>"

// UnspecifiedAllele is the VCF 4.3 spelling of the gVCF block allele.
const UnspecifiedAllele = "<*>"

var nucleotide [256]bool

func init() {
	for _, c := range []byte("ACGTNacgtn") {
		nucleotide[c] = true
	}
}

// Split appends the sep-delimited fields of line to dst[:0] and returns
// it. Fields alias line.
func Split(dst [][]byte, line []byte, sep byte) [][]byte {
	dst = dst[:0]
	for {
		i := bytes.IndexByte(line, sep)
		if i < 0 {
			return append(dst, line)
		}
		dst = append(dst, line[:i])
		line = line[i+1:]
	}
}

// Count returns the number of sep-delimited fields in b.
func Count(b []byte, sep byte) int {
	return bytes.Count(b, []byte{sep}) + 1
}

// IsMissing reports whether b is the single missing-value marker.
func IsMissing(b []byte) bool {
	return len(b) == 1 && b[0] == '.'
}

// IsNucleotides reports whether b is a non-empty run of A, C, G, T or N
// in either case.
func IsNucleotides(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !nucleotide[c] {
			return false
		}
	}
	return true
}

// IsSymbolic reports whether b is a bracket-delimited symbolic allele.
func IsSymbolic(b []byte) bool {
	return len(b) > 2 && b[0] == '<' && b[len(b)-1] == '>'
}

// IsCoverageBlockAllele reports whether b is the gVCF non-reference allele.
func IsCoverageBlockAllele(b []byte) bool {
	return string(b) == NonRefAllele || string(b) == UnspecifiedAllele
}

// ParsePosition parses a strictly positive base-10 integer.
func ParsePosition(b []byte) (int64, bool) {
	n, ok := parseUint(b)
	if !ok || n == 0 {
		return 0, false
	}
	return n, true
}

// ParseCount parses a non-negative base-10 integer.
func ParseCount(b []byte) (int64, bool) {
	return parseUint(b)
}

const maxUint = 1<<62 - 1

func parseUint(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
		if n > maxUint {
			return 0, false
		}
	}
	return n, true
}

// ValidQuality reports whether b is "." or a non-negative decimal number,
// optionally with an exponent (e.g. 30, 1.5, .5, 3e2, 2.5E-3).
func ValidQuality(b []byte) bool {
	if IsMissing(b) {
		return true
	}
	i := 0
	if i < len(b) && b[i] == '+' {
		i++
	}
	intDigits := 0
	for i < len(b) && isDigit(b[i]) {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && isDigit(b[i]) {
			i++
			fracDigits++
		}
	}
	if intDigits+fracDigits == 0 {
		return false
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(b) && isDigit(b[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// AppendGenotype validates a GT value and appends its allele indices to
// dst. A valid value is "." alone, or non-negative integers joined by a
// single separator used uniformly, either '/' or '|'. A missing allele
// inside a list ("./.", "0/.") is invalid.
func AppendGenotype(dst []int, gt []byte) ([]int, bool) {
	if len(gt) == 0 {
		return dst, false
	}
	if IsMissing(gt) {
		return dst, true
	}

	var sep byte
	start := len(dst)
	for {
		i := 0
		for i < len(gt) && gt[i] != '/' && gt[i] != '|' {
			i++
		}
		n, ok := parseUint(gt[:i])
		if !ok || n > 1<<31 {
			return dst[:start], false
		}
		dst = append(dst, int(n))
		if i == len(gt) {
			return dst, true
		}
		if sep == 0 {
			sep = gt[i]
		} else if gt[i] != sep {
			return dst[:start], false
		}
		gt = gt[i+1:]
	}
}
