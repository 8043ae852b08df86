package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	return &Report{
		Input:       "in.vcf",
		Valid:       true,
		TotalLines:  3,
		HeaderLines: 2,
		MetaLines:   1,
		DataLines:   1,
		InfoFields:  1,
		Checks:      []string{CheckStructure, CheckDuplicates},
	}
}

func TestOrderChecks(t *testing.T) {
	got := OrderChecks(map[string]bool{
		CheckDuplicates: true,
		CheckStructure:  true,
		CheckReference:  false,
		"bogus":         true,
	})
	assert.Equal(t, []string{CheckStructure, CheckDuplicates}, got)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatText))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "VCF file is valid.\n"))
	assert.Contains(t, out, "Data lines:")
	assert.Contains(t, out, "structure, duplicates")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleReport(), got)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got["data_lines"])
	assert.Equal(t, true, got["valid"])
}

func TestWrite_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Write(&a, sampleReport(), FormatText))
	require.NoError(t, Write(&b, sampleReport(), FormatText))
	assert.Equal(t, a.String(), b.String())
}

func TestRegistry(t *testing.T) {
	reg := Registry(sampleReport())
	n, err := testutil.GatherAndCount(reg, "vcfcheck_lines")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	expected := `
# HELP vcfcheck_valid 1 when the input passed validation.
# TYPE vcfcheck_valid gauge
vcfcheck_valid{input="in.vcf"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vcfcheck_valid"))
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcfcheck.prom")
	require.NoError(t, WriteMetrics(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `vcfcheck_lines{input="in.vcf",kind="data"} 1`)
}
