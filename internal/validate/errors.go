package validate

import "fmt"

// Code classifies a finding.
type Code string

const (
	CodeStructure   Code = "structure"
	CodeGrammar     Code = "grammar"
	CodeSchema      Code = "schema"
	CodeOrder       Code = "order"
	CodeDuplicate   Code = "duplicate"
	CodeReference   Code = "reference"
	CodeKnownID     Code = "known-id"
	CodeCoverage    Code = "coverage"
	CodeGenotype    Code = "genotype"
	CodeAlleles     Code = "alleles"
	CodeAlleleCount Code = "allele-count"
)

// Error is a fatal validation finding. Line is 0 for conditions detected
// at end of input.
type Error struct {
	Line    int
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("vcf validation error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("vcf validation error: %s", e.Message)
}
