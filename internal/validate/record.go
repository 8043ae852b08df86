package validate

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/inodb/vcfcheck/internal/order"
	"github.com/inodb/vcfcheck/internal/reference"
	"github.com/inodb/vcfcheck/internal/vcf"
)

// formatSlot caches the header definition of one FORMAT key.
type formatSlot struct {
	def      vcf.FieldDef
	declared bool
}

func (v *Validator) dataLine(line []byte) error {
	if !v.headerSeen {
		return v.fatal(CodeStructure, "data line before the #CHROM line")
	}
	v.dataLines++

	v.cols = vcf.Split(v.cols, line, '\t')
	cols := v.cols
	if len(cols) < vcf.MinColumns {
		return v.fatal(CodeStructure, "expected at least %d columns, found %d", vcf.MinColumns, len(cols))
	}
	if len(cols) != v.header.Columns {
		if err := v.warn(CodeStructure, "found %d columns, the #CHROM line has %d", len(cols), v.header.Columns); err != nil {
			return err
		}
	}

	chrom := cols[vcf.ColChrom]
	if len(chrom) == 0 {
		return v.fatal(CodeGrammar, "CHROM is empty")
	}
	pos, ok := vcf.ParsePosition(cols[vcf.ColPos])
	if !ok {
		return v.fatal(CodeGrammar, "POS %q is not a positive integer", cols[vcf.ColPos])
	}

	inOrder := v.tracker.CheckOrder(chrom, pos)
	if !v.opts.NoSortCheck && !inOrder {
		if err := v.warn(CodeOrder, "record %s:%d is out of sort order", chrom, pos); err != nil {
			return err
		}
	}

	if err := v.checkIDs(cols[vcf.ColID]); err != nil {
		return err
	}

	ref := cols[vcf.ColRef]
	if len(ref) == 0 {
		return v.fatal(CodeGrammar, "REF is empty")
	}
	if !vcf.IsNucleotides(ref) {
		return v.fatal(CodeGrammar, "REF %q contains characters other than A, C, G, T, N", ref)
	}
	if err := v.checkReference(chrom, pos, ref); err != nil {
		return err
	}

	alt := cols[vcf.ColAlt]
	if len(alt) == 0 {
		return v.fatal(CodeGrammar, "ALT is empty")
	}
	v.alts = vcf.Split(v.alts, alt, ',')
	block := false
	for _, a := range v.alts {
		if vcf.IsSymbolic(a) {
			if vcf.IsCoverageBlockAllele(a) {
				block = true
			}
			continue
		}
		if !vcf.IsNucleotides(a) {
			return v.fatal(CodeGrammar, "ALT allele %q is neither symbolic nor a base sequence", a)
		}
	}

	if !vcf.ValidQuality(cols[vcf.ColQual]) {
		return v.fatal(CodeGrammar, "QUAL %q is neither '.' nor a non-negative number", cols[vcf.ColQual])
	}
	if len(cols[vcf.ColFilter]) == 0 {
		return v.fatal(CodeGrammar, "FILTER is empty")
	}

	if v.opts.GVCF {
		if err := v.checkCoverage(chrom, pos, cols[vcf.ColInfo], block); err != nil {
			return err
		}
	}

	if err := v.checkInfo(cols[vcf.ColInfo]); err != nil {
		return err
	}

	if v.header.HasFormat {
		if len(cols) <= vcf.ColFormat {
			return v.fatal(CodeStructure, "FORMAT column is missing")
		}
		if err := v.checkSamples(cols[vcf.ColFormat], cols[vcf.FirstSample:]); err != nil {
			return err
		}
	} else if len(cols) > vcf.MinColumns {
		if err := v.warn(CodeStructure, "data line has %d columns but the header declares no FORMAT column", len(cols)); err != nil {
			return err
		}
	}

	if v.dups != nil {
		return v.checkDuplicate(chrom, pos, ref, alt)
	}
	return nil
}

func (v *Validator) checkIDs(id []byte) error {
	if v.known == nil || vcf.IsMissing(id) {
		return nil
	}
	for len(id) > 0 {
		one := id
		if i := bytes.IndexByte(id, ';'); i >= 0 {
			one, id = id[:i], id[i+1:]
		} else {
			id = nil
		}
		if len(one) == 0 || v.known.MayContain(one) {
			continue
		}
		if err := v.warn(CodeKnownID, "ID %s is not in the known-ID catalog", one); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkReference(chrom []byte, pos int64, ref []byte) error {
	if v.ref == nil {
		return nil
	}
	switch v.ref.Compare(chrom, pos, ref) {
	case reference.Match:
		return nil
	case reference.UnknownContig:
		if v.unresolved[string(chrom)] {
			return nil
		}
		v.unresolved[string(chrom)] = true
		return v.warn(CodeReference, "contig %s is not in the reference", chrom)
	case reference.OutOfRange:
		return v.fatal(CodeReference, "REF %s at %s:%d extends past the end of the contig", ref, chrom, pos)
	}
	return v.fatal(CodeReference, "REF %s does not match the reference at %s:%d", ref, chrom, pos)
}

func (v *Validator) checkCoverage(chrom []byte, pos int64, info []byte, block bool) error {
	if !block {
		return v.fatal(CodeCoverage, "gVCF record lacks a %s allele", vcf.NonRefAllele)
	}
	end := pos
	if raw, ok := infoValue(info, "END"); ok {
		n, ok := vcf.ParsePosition(raw)
		if !ok {
			return v.fatal(CodeGrammar, "END %q is not a positive integer", raw)
		}
		if n < pos {
			return v.fatal(CodeCoverage, "END %d is before POS %d", n, pos)
		}
		end = n
	}

	prev := v.tracker.LastCoverageEnd()
	switch v.tracker.CheckCoverage(chrom, pos, end) {
	case order.CoverageGap:
		return v.warn(CodeCoverage, "gap before block %s:%d-%d, previous block ended at %d",
			chrom, pos, end, prev)
	case order.CoverageRegress:
		return v.warn(CodeCoverage, "block %s:%d-%d ends before the previous block",
			chrom, pos, end)
	}
	return nil
}

// infoValue returns the value of key in an INFO column.
func infoValue(info []byte, key string) ([]byte, bool) {
	for len(info) > 0 {
		tok := info
		if i := bytes.IndexByte(info, ';'); i >= 0 {
			tok, info = info[:i], info[i+1:]
		} else {
			info = nil
		}
		if len(tok) > len(key) && tok[len(key)] == '=' && string(tok[:len(key)]) == key {
			return tok[len(key)+1:], true
		}
	}
	return nil, false
}

func (v *Validator) checkInfo(info []byte) error {
	if vcf.IsMissing(info) {
		return nil
	}

	var ac, an []byte
	valid := 0
	v.tokens = vcf.Split(v.tokens, info, ';')
	for _, tok := range v.tokens {
		if len(tok) == 0 {
			continue
		}
		key, value, hasValue := tok, []byte(nil), false
		if i := bytes.IndexByte(tok, '='); i >= 0 {
			key, value, hasValue = tok[:i], tok[i+1:], true
		}
		if len(key) == 0 {
			return v.fatal(CodeGrammar, "INFO entry %q has an empty key", tok)
		}
		valid++

		def, ok := v.schema.Info[string(key)]
		if !ok {
			if err := v.warn(CodeSchema, "INFO key %s is not declared in the header", key); err != nil {
				return err
			}
		} else if hasValue && def.Number.Kind == vcf.Fixed && !vcf.IsMissing(value) {
			if n := vcf.Count(value, ','); n != def.Number.Fixed {
				if err := v.warn(CodeSchema, "INFO key %s has %d values, the header declares %d", key, n, def.Number.Fixed); err != nil {
					return err
				}
			}
		}

		switch string(key) {
		case "AC":
			ac = value
		case "AN":
			an = value
		}
	}
	if valid == 0 {
		return v.fatal(CodeGrammar, "INFO column %q has no valid entries", info)
	}

	if !v.opts.NoAlleleCountCheck && ac != nil && an != nil {
		return v.checkAlleleCount(ac, an)
	}
	return nil
}

func (v *Validator) checkAlleleCount(ac, an []byte) error {
	if vcf.IsMissing(an) {
		return nil
	}
	total, ok := vcf.ParseCount(an)
	if !ok {
		return v.warn(CodeAlleleCount, "AN %q is not a non-negative integer", an)
	}
	var sum int64
	for len(ac) > 0 {
		one := ac
		if i := bytes.IndexByte(ac, ','); i >= 0 {
			one, ac = ac[:i], ac[i+1:]
		} else {
			ac = nil
		}
		if vcf.IsMissing(one) {
			continue
		}
		n, ok := vcf.ParseCount(one)
		if !ok {
			return v.warn(CodeAlleleCount, "AC value %q is not a non-negative integer", one)
		}
		sum += n
	}
	if sum > total {
		return v.warn(CodeAlleleCount, "AC sums to %d, more than AN=%d", sum, total)
	}
	return nil
}

func (v *Validator) checkSamples(format []byte, samples [][]byte) error {
	v.layout = vcf.Split(v.layout, format, ':')
	v.slots = v.slots[:0]
	gt := -1
	for i, key := range v.layout {
		if string(key) == "GT" && gt < 0 {
			gt = i
		}
		def, ok := v.schema.Format[string(key)]
		v.slots = append(v.slots, formatSlot{def: def, declared: ok})
		if !ok {
			if err := v.warn(CodeSchema, "FORMAT key %s is not declared in the header", key); err != nil {
				return err
			}
		}
	}

	nAlts := len(v.alts)
	if cap(v.observed) < nAlts+1 {
		v.observed = make([]bool, nAlts+1)
	}
	v.observed = v.observed[:nAlts+1]
	clear(v.observed)

	if len(v.layout) == 1 && gt == 0 {
		for i, s := range samples {
			if len(s) == 0 {
				continue
			}
			if err := v.checkGenotype(s, i); err != nil {
				return err
			}
		}
	} else {
		for i, s := range samples {
			if len(s) == 0 || vcf.IsMissing(s) {
				continue
			}
			if err := v.checkSample(s, i, gt); err != nil {
				return err
			}
		}
	}

	if gt < 0 || len(samples) == 0 {
		return nil
	}
	for i, a := range v.alts {
		if v.observed[i+1] || vcf.IsCoverageBlockAllele(a) {
			continue
		}
		if err := v.warn(CodeAlleles, "ALT allele %d (%s) is not observed in any sample genotype", i+1, a); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkSample(sample []byte, index, gt int) error {
	v.parts = vcf.Split(v.parts, sample, ':')
	if len(v.parts) != len(v.layout) {
		if err := v.warn(CodeStructure, "sample %d has %d fields, FORMAT declares %d",
			index+1, len(v.parts), len(v.layout)); err != nil {
			return err
		}
	}

	for j := 0; j < len(v.parts) && j < len(v.layout); j++ {
		value := v.parts[j]
		if j == gt {
			if err := v.checkGenotype(value, index); err != nil {
				return err
			}
			continue
		}
		slot := v.slots[j]
		if !slot.declared || slot.def.Number.Kind != vcf.Fixed || vcf.IsMissing(value) {
			continue
		}
		if n := vcf.Count(value, ','); n != slot.def.Number.Fixed {
			if err := v.warn(CodeSchema, "sample %d FORMAT key %s has %d values, the header declares %d",
				index+1, v.layout[j], n, slot.def.Number.Fixed); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Validator) checkGenotype(value []byte, index int) error {
	var ok bool
	v.alleles, ok = vcf.AppendGenotype(v.alleles[:0], value)
	if !ok {
		return v.warn(CodeGenotype, "sample %d has invalid genotype %q", index+1, value)
	}
	nAlts := len(v.alts)
	for _, a := range v.alleles {
		if a > nAlts {
			return v.warn(CodeGenotype, "sample %d genotype %q refers to allele %d, only %d ALT alleles are declared",
				index+1, value, a, nAlts)
		}
		v.observed[a] = true
	}
	return nil
}

func (v *Validator) checkDuplicate(chrom []byte, pos int64, ref, alt []byte) error {
	v.key = vcf.DuplicateKey(v.key[:0], chrom, pos, ref, alt)
	if !v.dups.TestAndAdd(v.key) {
		return nil
	}
	v.duplicates++
	if v.opts.ReportDuplicates {
		v.logger.Warn("duplicate record",
			zap.Int("line", v.line),
			zap.ByteString("key", v.key),
			zap.Int("duplicates", v.duplicates),
		)
	}
	return v.warn(CodeDuplicate, "probable duplicate record %s:%d %s>%s", chrom, pos, ref, alt)
}
