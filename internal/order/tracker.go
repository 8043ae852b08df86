// Package order tracks sort order and gVCF block contiguity across the
// records of one input.
package order

// Coverage is the outcome of a coverage-block check.
type Coverage int

const (
	CoverageOK Coverage = iota
	// CoverageGap means the block starts after the previous block's end + 1.
	CoverageGap
	// CoverageRegress means the block ends before the previous block's end.
	CoverageRegress
)

func (c Coverage) String() string {
	switch c {
	case CoverageOK:
		return "ok"
	case CoverageGap:
		return "gap"
	case CoverageRegress:
		return "regress"
	}
	return "unknown"
}

// Tracker holds the ordering state of one run. It only moves forward: the
// last position on a contig never decreases, and after a revisited contig
// is reported the tracker continues from it.
type Tracker struct {
	contig  string
	lastPos int64
	seen    map[string]int

	coverageContig string
	lastEnd        int64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]int)}
}

// CheckOrder reports whether (contig, pos) keeps the input sorted. The
// first record of a contig seats it as current; later records of the
// current contig need pos >= the last position; returning to a contig
// that was already left is a violation.
func (t *Tracker) CheckOrder(contig []byte, pos int64) bool {
	if t.contig != "" && string(contig) == t.contig {
		if pos < t.lastPos {
			return false
		}
		t.lastPos = pos
		return true
	}

	name := string(contig)
	_, revisited := t.seen[name]
	if !revisited {
		t.seen[name] = len(t.seen)
	}
	t.contig = name
	t.lastPos = pos
	return !revisited
}

// ContigIndex returns the first-seen index of a contig.
func (t *Tracker) ContigIndex(contig string) (int, bool) {
	i, ok := t.seen[contig]
	return i, ok
}

// Contigs returns the number of distinct contigs seen by CheckOrder.
func (t *Tracker) Contigs() int {
	return len(t.seen)
}

// CheckCoverage checks a block [start, end] against the previous block on
// the same contig. A new contig starts a fresh run of blocks.
func (t *Tracker) CheckCoverage(contig []byte, start, end int64) Coverage {
	if string(contig) != t.coverageContig {
		t.coverageContig = string(contig)
		t.lastEnd = end
		return CoverageOK
	}

	result := CoverageOK
	switch {
	case end < t.lastEnd:
		result = CoverageRegress
	case start > t.lastEnd+1:
		result = CoverageGap
	}
	if end > t.lastEnd {
		t.lastEnd = end
	}
	return result
}

// LastCoverageEnd returns the end of the last block seen.
func (t *Tracker) LastCoverageEnd() int64 {
	return t.lastEnd
}
