package validate

import (
	"go.uber.org/zap"

	"github.com/inodb/vcfcheck/internal/bloom"
	"github.com/inodb/vcfcheck/internal/reference"
)

// Options select which checks run and how findings are classified.
type Options struct {
	// Strict promotes warnings to fatal errors.
	Strict bool
	// ReportDuplicates additionally logs the key of every duplicate.
	ReportDuplicates bool
	// SkipDuplicateCheck disables duplicate detection.
	SkipDuplicateCheck bool
	// AllowEmpty accepts input with a header but no data lines.
	AllowEmpty bool
	// BloomSizeMB sizes the duplicate filter; 0 selects bloom.DefaultSizeMB.
	BloomSizeMB int
	// GVCF enables coverage-block checks.
	GVCF bool
	// NoSortCheck disables the sort-order check.
	NoSortCheck bool
	// NoAlleleCountCheck disables the AC/AN consistency check.
	NoAlleleCountCheck bool
	// Input names the input in the report.
	Input string
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{BloomSizeMB: bloom.DefaultSizeMB}
}

// ReferenceChecker compares REF alleles with a reference sequence.
type ReferenceChecker interface {
	Compare(contig []byte, pos int64, ref []byte) reference.Result
}

// IDSet answers membership queries for known identifiers.
type IDSet interface {
	MayContain(key []byte) bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger that receives warnings.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithReference enables REF checks against ref.
func WithReference(ref ReferenceChecker) Option {
	return func(v *Validator) {
		v.ref = ref
	}
}

// WithKnownIDs enables ID checks against ids.
func WithKnownIDs(ids IDSet) Option {
	return func(v *Validator) {
		v.known = ids
	}
}
