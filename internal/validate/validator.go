// Package validate checks VCF input line by line in a single pass.
package validate

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vcfcheck/internal/bloom"
	"github.com/inodb/vcfcheck/internal/order"
	"github.com/inodb/vcfcheck/internal/report"
	"github.com/inodb/vcfcheck/internal/source"
	"github.com/inodb/vcfcheck/internal/vcf"
)

// Validator holds the state of one validation run. Run resets it, so a
// Validator can check several inputs in turn but is not safe for
// concurrent use.
type Validator struct {
	opts   Options
	logger *zap.Logger
	ref    ReferenceChecker
	known  IDSet

	schema     *vcf.Schema
	header     vcf.ColumnHeader
	headerSeen bool
	dups       *bloom.Filter
	tracker    *order.Tracker
	unresolved map[string]bool

	line       int
	totalLines int
	metaLines  int
	dataLines  int
	warnings   int
	duplicates int

	// Scratch buffers reused across lines.
	cols     [][]byte
	alts     [][]byte
	tokens   [][]byte
	layout   [][]byte
	parts    [][]byte
	slots    []formatSlot
	alleles  []int
	observed []bool
	key      []byte
}

// New creates a Validator.
func New(opts Options, options ...Option) *Validator {
	if opts.BloomSizeMB <= 0 {
		opts.BloomSizeMB = bloom.DefaultSizeMB
	}
	v := &Validator{
		opts:   opts,
		logger: zap.NewNop(),
	}
	for _, o := range options {
		o(v)
	}
	return v
}

func (v *Validator) reset() {
	v.schema = vcf.NewSchema()
	v.header = vcf.ColumnHeader{}
	v.headerSeen = false
	v.tracker = order.NewTracker()
	v.unresolved = make(map[string]bool)
	v.dups = nil
	if !v.opts.SkipDuplicateCheck {
		v.dups = bloom.New(v.opts.BloomSizeMB)
	}
	v.line = 0
	v.totalLines = 0
	v.metaLines = 0
	v.dataLines = 0
	v.warnings = 0
	v.duplicates = 0
}

// Run reads src to the end and validates it. A fatal finding stops the
// run and is returned as an *Error; read failures are returned wrapped.
// On success the returned report summarizes the input.
func (v *Validator) Run(src source.Source) (*report.Report, error) {
	v.reset()

	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		v.line = src.LineNumber()
		v.totalLines++

		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			err = v.headerLine(line)
		} else {
			err = v.dataLine(line)
		}
		if err != nil {
			return nil, err
		}
	}

	v.line = 0
	if !v.headerSeen {
		return nil, v.fatal(CodeStructure, "no #CHROM header line found")
	}
	if v.dataLines == 0 && !v.opts.AllowEmpty {
		return nil, v.fatal(CodeStructure, "no data lines found")
	}
	return v.report(), nil
}

func (v *Validator) report() *report.Report {
	return &report.Report{
		Input:        v.opts.Input,
		Valid:        true,
		TotalLines:   v.totalLines,
		HeaderLines:  v.metaLines + 1,
		MetaLines:    v.metaLines,
		DataLines:    v.dataLines,
		Samples:      v.header.Samples,
		Contigs:      v.tracker.Contigs(),
		InfoFields:   len(v.schema.Info),
		FormatFields: len(v.schema.Format),
		Warnings:     v.warnings,
		Duplicates:   v.duplicates,
		Checks:       report.OrderChecks(v.enabledChecks()),
	}
}

func (v *Validator) enabledChecks() map[string]bool {
	return map[string]bool{
		report.CheckStructure:       true,
		report.CheckHeaderSchema:    true,
		report.CheckFixedColumns:    true,
		report.CheckInfoSchema:      true,
		report.CheckFormatSchema:    v.header.HasFormat,
		report.CheckGenotypes:       v.header.HasFormat,
		report.CheckAllelesObserved: v.header.HasFormat && v.header.Samples > 0,
		report.CheckAlleleCount:     !v.opts.NoAlleleCountCheck,
		report.CheckSortOrder:       !v.opts.NoSortCheck,
		report.CheckDuplicates:      !v.opts.SkipDuplicateCheck,
		report.CheckReference:       v.ref != nil,
		report.CheckKnownIDs:        v.known != nil,
		report.CheckCoverage:        v.opts.GVCF,
		report.CheckStrict:          v.opts.Strict,
	}
}

func (v *Validator) fatal(code Code, format string, args ...any) error {
	return &Error{Line: v.line, Code: code, Message: fmt.Sprintf(format, args...)}
}

// warn records a non-fatal finding, or returns it as fatal in strict mode.
func (v *Validator) warn(code Code, format string, args ...any) error {
	if v.opts.Strict {
		return v.fatal(code, format, args...)
	}
	v.warnings++
	v.logger.Warn(fmt.Sprintf(format, args...),
		zap.Int("line", v.line),
		zap.String("code", string(code)),
	)
	return nil
}

func (v *Validator) headerLine(line []byte) error {
	if v.headerSeen {
		return v.fatal(CodeStructure, "header line after #CHROM")
	}

	text := string(line)
	switch {
	case strings.HasPrefix(text, "##"):
		v.metaLines++
		if _, err := v.schema.AddMetaLine(text); err != nil {
			return v.fatal(CodeSchema, "%v", err)
		}
		return nil
	case strings.HasPrefix(text, "#CHROM"):
		h, err := vcf.ParseColumnHeader(text)
		if err != nil {
			return v.fatal(CodeStructure, "%v", err)
		}
		v.header = h
		v.headerSeen = true
		v.logger.Debug("column header",
			zap.Int("line", v.line),
			zap.Int("samples", h.Samples),
			zap.Int("info_fields", len(v.schema.Info)),
			zap.Int("format_fields", len(v.schema.Format)),
		)
		if !h.FormatColumnValid() {
			return v.warn(CodeSchema, "column 9 of the #CHROM line is %q, expected FORMAT", h.FormatLabel)
		}
		return nil
	}
	return v.fatal(CodeStructure, "line starts with '#' but is neither a meta line nor the #CHROM line")
}
