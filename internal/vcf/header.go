// Package vcf provides VCF header parsing and allocation-free helpers for
// the fixed data columns.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the declared value type of an INFO or FORMAT field.
type Type string

const (
	TypeInteger   Type = "Integer"
	TypeFloat     Type = "Float"
	TypeFlag      Type = "Flag"
	TypeCharacter Type = "Character"
	TypeString    Type = "String"
)

// ParseType accepts exactly one of the five declared value types.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeInteger, TypeFloat, TypeFlag, TypeCharacter, TypeString:
		return t, nil
	}
	return "", fmt.Errorf("invalid Type %q", s)
}

// CardinalityKind distinguishes fixed from symbolic Number values.
type CardinalityKind int

const (
	Fixed       CardinalityKind = iota // a non-negative integer
	PerAlt                             // A: one value per alternate allele
	PerAllele                          // R: one value per allele including REF
	PerGenotype                        // G: one value per possible genotype
	Variable                           // .: unknown or unbounded
)

// Cardinality is a parsed Number attribute.
type Cardinality struct {
	Kind  CardinalityKind
	Fixed int
}

// ParseCardinality accepts a non-negative integer or one of A, R, G, ".".
func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "A":
		return Cardinality{Kind: PerAlt}, nil
	case "R":
		return Cardinality{Kind: PerAllele}, nil
	case "G":
		return Cardinality{Kind: PerGenotype}, nil
	case ".":
		return Cardinality{Kind: Variable}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || s[0] == '+' || s[0] == '-' {
		return Cardinality{}, fmt.Errorf("invalid Number %q", s)
	}
	return Cardinality{Kind: Fixed, Fixed: n}, nil
}

func (c Cardinality) String() string {
	switch c.Kind {
	case PerAlt:
		return "A"
	case PerAllele:
		return "R"
	case PerGenotype:
		return "G"
	case Variable:
		return "."
	}
	return strconv.Itoa(c.Fixed)
}

// FieldDef is one ##INFO or ##FORMAT declaration.
type FieldDef struct {
	ID          string
	Number      Cardinality
	Type        Type
	Description string
}

// MetaKind classifies a ## line.
type MetaKind int

const (
	MetaOther MetaKind = iota
	MetaInfo
	MetaFormat
)

// Schema holds the field declarations of one header.
type Schema struct {
	Info   map[string]FieldDef
	Format map[string]FieldDef
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{
		Info:   make(map[string]FieldDef),
		Format: make(map[string]FieldDef),
	}
}

// AddMetaLine parses a ## line and records INFO and FORMAT declarations.
// Other meta lines are accepted unchanged.
func (s *Schema) AddMetaLine(line string) (MetaKind, error) {
	kind, def, err := ParseMetaLine(line)
	if err != nil {
		return kind, err
	}
	switch kind {
	case MetaInfo:
		s.Info[def.ID] = def
	case MetaFormat:
		s.Format[def.ID] = def
	}
	return kind, nil
}

// ParseMetaLine parses a meta-information line. For ##INFO and ##FORMAT
// lines the ID must be non-empty, Type one of the five value types and
// Number an integer or a symbolic count.
func ParseMetaLine(line string) (MetaKind, FieldDef, error) {
	if !strings.HasPrefix(line, "##") {
		return MetaOther, FieldDef{}, fmt.Errorf("meta line must start with ##")
	}

	var kind MetaKind
	switch {
	case strings.HasPrefix(line, "##INFO="):
		kind = MetaInfo
	case strings.HasPrefix(line, "##FORMAT="):
		kind = MetaFormat
	default:
		return MetaOther, FieldDef{}, nil
	}

	start := strings.IndexByte(line, '<')
	end := strings.LastIndexByte(line, '>')
	if start < 0 || end <= start {
		return kind, FieldDef{}, fmt.Errorf("malformed header declaration")
	}

	attrs, err := parseAttributes(line[start+1 : end])
	if err != nil {
		return kind, FieldDef{}, err
	}

	def := FieldDef{
		ID:          attrs["ID"],
		Description: attrs["Description"],
	}
	if def.ID == "" {
		return kind, def, fmt.Errorf("header declaration missing ID")
	}
	if def.Number, err = ParseCardinality(attrs["Number"]); err != nil {
		return kind, def, fmt.Errorf("field %s: %w", def.ID, err)
	}
	if def.Type, err = ParseType(attrs["Type"]); err != nil {
		return kind, def, fmt.Errorf("field %s: %w", def.ID, err)
	}
	return kind, def, nil
}

// parseAttributes splits key=value pairs separated by commas. Quoted
// values may contain commas and backslash-escaped characters.
func parseAttributes(s string) (map[string]string, error) {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			// A trailing bare token carries no attribute.
			break
		}
		key := strings.TrimSpace(s[i : i+eq])
		i += eq + 1
		for i < len(s) && s[i] == ' ' {
			i++
		}

		var value string
		if i < len(s) && s[i] == '"' {
			var b strings.Builder
			i++
			closed := false
			for ; i < len(s); i++ {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					i++
					b.WriteByte(s[i])
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				b.WriteByte(c)
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted value for %s", key)
			}
			value = b.String()
			if j := strings.IndexByte(s[i:], ','); j >= 0 {
				i += j + 1
			} else {
				i = len(s)
			}
		} else {
			j := strings.IndexByte(s[i:], ',')
			if j < 0 {
				value = strings.TrimSpace(s[i:])
				i = len(s)
			} else {
				value = strings.TrimSpace(s[i : i+j])
				i += j + 1
			}
		}
		if _, dup := attrs[key]; !dup {
			attrs[key] = value
		}
	}
	return attrs, nil
}

// ColumnHeader describes the #CHROM line.
type ColumnHeader struct {
	Columns     int
	HasFormat   bool
	Samples     int
	SampleNames []string
	// FormatLabel is the text of column 9 when HasFormat is set.
	FormatLabel string
}

// ParseColumnHeader parses the #CHROM line. It requires at least eight
// columns starting with #CHROM. The caller decides how to treat a ninth
// column that is not FORMAT.
func ParseColumnHeader(line string) (ColumnHeader, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < MinColumns {
		return ColumnHeader{}, fmt.Errorf("#CHROM line has %d columns, need at least %d", len(cols), MinColumns)
	}
	if cols[0] != "#CHROM" {
		return ColumnHeader{}, fmt.Errorf("column header must start with #CHROM, found %q", cols[0])
	}

	h := ColumnHeader{Columns: len(cols)}
	if len(cols) > MinColumns {
		h.HasFormat = true
		h.FormatLabel = cols[ColFormat]
		if len(cols) > FirstSample {
			h.Samples = len(cols) - FirstSample
			h.SampleNames = cols[FirstSample:]
		}
	}
	return h, nil
}

// FormatColumnValid reports whether column 9, when present, is FORMAT.
func (h ColumnHeader) FormatColumnValid() bool {
	return !h.HasFormat || h.FormatLabel == "FORMAT"
}
