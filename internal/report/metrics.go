package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry builds a Prometheus registry holding the counters of r.
func Registry(r *Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	lines := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_lines",
		Help: "Lines read from the input, by kind.",
	}, []string{"input", "kind"})
	lines.WithLabelValues(r.Input, "total").Set(float64(r.TotalLines))
	lines.WithLabelValues(r.Input, "header").Set(float64(r.HeaderLines))
	lines.WithLabelValues(r.Input, "data").Set(float64(r.DataLines))

	fields := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_declared_fields",
		Help: "Header field declarations, by category.",
	}, []string{"input", "category"})
	fields.WithLabelValues(r.Input, "info").Set(float64(r.InfoFields))
	fields.WithLabelValues(r.Input, "format").Set(float64(r.FormatFields))

	samples := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_samples",
		Help: "Sample columns declared by the header.",
	}, []string{"input"})
	samples.WithLabelValues(r.Input).Set(float64(r.Samples))

	warnings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_warnings",
		Help: "Non-fatal findings, including probable duplicates.",
	}, []string{"input"})
	warnings.WithLabelValues(r.Input).Set(float64(r.Warnings))

	duplicates := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_duplicates",
		Help: "Records reported as probable duplicates.",
	}, []string{"input"})
	duplicates.WithLabelValues(r.Input).Set(float64(r.Duplicates))

	valid := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vcfcheck_valid",
		Help: "1 when the input passed validation.",
	}, []string{"input"})
	v := 0.0
	if r.Valid {
		v = 1
	}
	valid.WithLabelValues(r.Input).Set(v)

	reg.MustRegister(lines, fields, samples, warnings, duplicates, valid)
	return reg
}

// WriteMetrics writes r in the Prometheus text format to path, for the
// node exporter textfile collector.
func WriteMetrics(path string, r *Report) error {
	if err := prometheus.WriteToTextfile(path, Registry(r)); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
