package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrder_SameContig(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.CheckOrder([]byte("1"), 50))
	assert.True(t, tr.CheckOrder([]byte("1"), 100))
	assert.True(t, tr.CheckOrder([]byte("1"), 100), "equal positions are allowed")

	tr = NewTracker()
	assert.True(t, tr.CheckOrder([]byte("1"), 100))
	assert.False(t, tr.CheckOrder([]byte("1"), 50))
}

func TestCheckOrder_PositionNeverRegresses(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.CheckOrder([]byte("1"), 100))
	assert.False(t, tr.CheckOrder([]byte("1"), 50))
	assert.False(t, tr.CheckOrder([]byte("1"), 60), "last position never moves backwards")
	assert.True(t, tr.CheckOrder([]byte("1"), 120))
}

func TestCheckOrder_RevisitedContig(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.CheckOrder([]byte("1"), 100))
	assert.True(t, tr.CheckOrder([]byte("2"), 5))
	assert.False(t, tr.CheckOrder([]byte("1"), 200))
	assert.True(t, tr.CheckOrder([]byte("1"), 300))

	assert.Equal(t, 2, tr.Contigs())
	i, ok := tr.ContigIndex("2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestCheckCoverage(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, CoverageOK, tr.CheckCoverage([]byte("1"), 1, 100))
	assert.Equal(t, CoverageOK, tr.CheckCoverage([]byte("1"), 101, 150))
	assert.Equal(t, CoverageGap, tr.CheckCoverage([]byte("1"), 200, 250))
	assert.Equal(t, CoverageRegress, tr.CheckCoverage([]byte("1"), 240, 245))
	assert.Equal(t, int64(250), tr.LastCoverageEnd())

	assert.Equal(t, CoverageOK, tr.CheckCoverage([]byte("2"), 1, 10), "new contig resets")
	assert.Equal(t, int64(10), tr.LastCoverageEnd())
}

func TestCheckCoverage_Overlap(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, CoverageOK, tr.CheckCoverage([]byte("1"), 1, 100))
	assert.Equal(t, CoverageOK, tr.CheckCoverage([]byte("1"), 100, 100), "variant inside the previous block end")
}
