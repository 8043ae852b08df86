// Package report formats the summary of a successful validation run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Check names, listed in the order they are reported.
const (
	CheckStructure       = "structure"
	CheckHeaderSchema    = "header-schema"
	CheckFixedColumns    = "fixed-columns"
	CheckInfoSchema      = "info-schema"
	CheckFormatSchema    = "format-schema"
	CheckGenotypes       = "genotypes"
	CheckAllelesObserved = "alleles-observed"
	CheckAlleleCount     = "allele-count"
	CheckSortOrder       = "sort-order"
	CheckDuplicates      = "duplicates"
	CheckReference       = "reference"
	CheckKnownIDs        = "known-ids"
	CheckCoverage        = "gvcf-coverage"
	CheckStrict          = "strict"
)

var checkOrder = []string{
	CheckStructure,
	CheckHeaderSchema,
	CheckFixedColumns,
	CheckInfoSchema,
	CheckFormatSchema,
	CheckGenotypes,
	CheckAllelesObserved,
	CheckAlleleCount,
	CheckSortOrder,
	CheckDuplicates,
	CheckReference,
	CheckKnownIDs,
	CheckCoverage,
	CheckStrict,
}

// OrderChecks returns the enabled checks in reporting order, dropping
// unknown and repeated names.
func OrderChecks(enabled map[string]bool) []string {
	out := make([]string, 0, len(enabled))
	for _, name := range checkOrder {
		if enabled[name] {
			out = append(out, name)
		}
	}
	return out
}

// Report summarizes a run that ended without a fatal condition.
type Report struct {
	Input        string   `json:"input" yaml:"input"`
	Valid        bool     `json:"valid" yaml:"valid"`
	TotalLines   int      `json:"total_lines" yaml:"total_lines"`
	HeaderLines  int      `json:"header_lines" yaml:"header_lines"`
	MetaLines    int      `json:"meta_lines" yaml:"meta_lines"`
	DataLines    int      `json:"data_lines" yaml:"data_lines"`
	Samples      int      `json:"samples" yaml:"samples"`
	Contigs      int      `json:"contigs" yaml:"contigs"`
	InfoFields   int      `json:"info_fields" yaml:"info_fields"`
	FormatFields int      `json:"format_fields" yaml:"format_fields"`
	Warnings     int      `json:"warnings" yaml:"warnings"`
	Duplicates   int      `json:"duplicates" yaml:"duplicates"`
	Checks       []string `json:"checks" yaml:"checks"`
}

// Format selects a report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
}

// Write encodes r to w.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return writeText(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func writeText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	input := r.Input
	if input == "" {
		input = "-"
	}
	fmt.Fprintln(tw, "VCF file is valid.")
	fmt.Fprintf(tw, "Input:\t%s\n", input)
	fmt.Fprintf(tw, "Total lines:\t%d\n", r.TotalLines)
	fmt.Fprintf(tw, "Header lines:\t%d\n", r.HeaderLines)
	fmt.Fprintf(tw, "Data lines:\t%d\n", r.DataLines)
	fmt.Fprintf(tw, "Samples:\t%d\n", r.Samples)
	fmt.Fprintf(tw, "Contigs:\t%d\n", r.Contigs)
	fmt.Fprintf(tw, "INFO fields:\t%d\n", r.InfoFields)
	fmt.Fprintf(tw, "FORMAT fields:\t%d\n", r.FormatFields)
	fmt.Fprintf(tw, "Warnings:\t%d\n", r.Warnings)
	fmt.Fprintf(tw, "Duplicates:\t%d\n", r.Duplicates)
	fmt.Fprintf(tw, "Checks:\t%s\n", strings.Join(r.Checks, ", "))
	return tw.Flush()
}
