package vcf

import (
	"strconv"
	"strings"
)

// ToggleChrPrefix adds "chr" to a bare name and strips it from a prefixed
// one. It is a naming heuristic, not a guaranteed mapping between
// assemblies (e.g. "MT" and "chrM" are not related by it).
func ToggleChrPrefix(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return "chr" + chrom
}

// DuplicateKey appends the identity of a record (contig, position,
// reference and alternate alleles) to dst in a tab-joined form. The
// position is written in canonical decimal form.
func DuplicateKey(dst, chrom []byte, pos int64, ref, alt []byte) []byte {
	dst = append(dst[:0], chrom...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, pos, 10)
	dst = append(dst, '\t')
	dst = append(dst, ref...)
	dst = append(dst, '\t')
	return append(dst, alt...)
}
