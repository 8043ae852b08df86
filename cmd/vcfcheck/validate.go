package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcfcheck/internal/bloom"
	"github.com/inodb/vcfcheck/internal/catalog"
	"github.com/inodb/vcfcheck/internal/reference"
	"github.com/inodb/vcfcheck/internal/report"
	"github.com/inodb/vcfcheck/internal/source"
	"github.com/inodb/vcfcheck/internal/validate"
)

// validateConfig holds the resolved settings of one validate invocation.
type validateConfig struct {
	Strict         bool
	ReportDups     bool
	NoDupCheck     bool
	AllowEmpty     bool
	BloomSize      int
	Reference      string
	KnownIDs       string
	KnownIDsColumn int
	GVCF           bool
	NoSortCheck    bool
	NoACCheck      bool
	NoMmap         bool
	Format         string
	MetricsFile    string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	Verbose        bool
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [input]",
		Short: "Validate a VCF file",
		Long: `Validate a VCF file in one pass. The input may be plain, gzip or zstd
compressed, read from stdin ('-' or no argument) or from an s3:// URL.
Warnings go to stderr; the report is written to stdout only when no fatal
problem was found.`,
		Example: `  vcfcheck validate input.vcf.gz
  vcfcheck validate --strict --reference GRCh38.fa input.vcf
  vcfcheck validate --known-ids dbsnp.tsv.gz --format json input.vcf
  cat input.vcf | vcfcheck validate -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			if err := bindFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg := loadValidateConfig()
			if err := cfg.check(); err != nil {
				return err
			}
			// Past this point errors concern the input, not the command line.
			cmd.SilenceUsage = true
			return runValidate(cmd.Context(), cfg, input, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.BoolP("strict", "s", false, "Treat warnings as errors")
	f.BoolP("report-dups", "d", false, "Log every duplicate record with its key")
	f.Bool("no-dup-check", false, "Skip duplicate detection")
	f.Bool("allow-empty", false, "Accept input with a header but no data lines")
	f.Int("bloom-size", bloom.DefaultSizeMB, "Bloom filter size in MiB")
	f.String("reference", "", "Uncompressed FASTA used to check REF alleles")
	f.String("known-ids", "", "Tab-delimited catalog of known variant IDs")
	f.Int("known-ids-column", catalog.DefaultColumn, "1-based catalog column holding IDs")
	f.Bool("gvcf", false, "Check gVCF reference blocks")
	f.Bool("no-sort-check", false, "Skip the sort order check")
	f.Bool("no-ac-check", false, "Skip the AC/AN consistency check")
	f.Bool("no-mmap", false, "Stream plain files instead of mapping them")
	f.String("format", string(report.FormatText), "Report format: text, json, yaml")
	f.String("metrics-file", "", "Write the report counters as a Prometheus textfile")
	f.String("s3-region", "", "AWS region for s3:// input")
	f.String("s3-endpoint", "", "Custom S3 endpoint URL")
	f.Bool("s3-path-style", false, "Use path-style S3 addressing")
	f.BoolP("verbose", "v", false, "Log debug information")

	return cmd
}

// bindFlags maps every flag to its validate.* config key so that flags
// override ~/.vcfcheck.yaml and VCFCHECK_* variables.
func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(fl *pflag.Flag) {
		if err == nil && fl.Name != "help" {
			err = viper.BindPFlag("validate."+fl.Name, fl)
		}
	})
	return err
}

func loadValidateConfig() validateConfig {
	return validateConfig{
		Strict:         viper.GetBool("validate.strict"),
		ReportDups:     viper.GetBool("validate.report-dups"),
		NoDupCheck:     viper.GetBool("validate.no-dup-check"),
		AllowEmpty:     viper.GetBool("validate.allow-empty"),
		BloomSize:      viper.GetInt("validate.bloom-size"),
		Reference:      viper.GetString("validate.reference"),
		KnownIDs:       viper.GetString("validate.known-ids"),
		KnownIDsColumn: viper.GetInt("validate.known-ids-column"),
		GVCF:           viper.GetBool("validate.gvcf"),
		NoSortCheck:    viper.GetBool("validate.no-sort-check"),
		NoACCheck:      viper.GetBool("validate.no-ac-check"),
		NoMmap:         viper.GetBool("validate.no-mmap"),
		Format:         viper.GetString("validate.format"),
		MetricsFile:    viper.GetString("validate.metrics-file"),
		S3Region:       viper.GetString("validate.s3-region"),
		S3Endpoint:     viper.GetString("validate.s3-endpoint"),
		S3PathStyle:    viper.GetBool("validate.s3-path-style"),
		Verbose:        viper.GetBool("validate.verbose"),
	}
}

// check rejects settings that cannot describe a valid run.
func (c validateConfig) check() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.BloomSize <= 0 {
		return fmt.Errorf("--bloom-size must be positive, got %d", c.BloomSize)
	}
	if c.KnownIDs != "" && c.KnownIDsColumn < 1 {
		return fmt.Errorf("--known-ids-column must be >= 1, got %d", c.KnownIDsColumn)
	}
	return nil
}

func runValidate(ctx context.Context, cfg validateConfig, input string, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.Verbose)
	defer logger.Sync()

	if err := cfg.check(); err != nil {
		return err
	}
	format, _ := report.ParseFormat(cfg.Format)

	opts := validate.DefaultOptions()
	opts.Strict = cfg.Strict
	opts.ReportDuplicates = cfg.ReportDups
	opts.SkipDuplicateCheck = cfg.NoDupCheck
	opts.AllowEmpty = cfg.AllowEmpty
	opts.BloomSizeMB = cfg.BloomSize
	opts.GVCF = cfg.GVCF
	opts.NoSortCheck = cfg.NoSortCheck
	opts.NoAlleleCountCheck = cfg.NoACCheck
	opts.Input = input
	options := []validate.Option{validate.WithLogger(logger)}

	if cfg.Reference != "" {
		idx, err := reference.Open(cfg.Reference)
		if err != nil {
			return err
		}
		defer idx.Close()
		logger.Debug("loaded reference",
			zap.String("path", cfg.Reference),
			zap.Int("sequences", idx.Len()),
			zap.Strings("names", idx.Names()))
		options = append(options, validate.WithReference(idx))
	}

	if cfg.KnownIDs != "" {
		ids, err := loadKnownIDs(ctx, cfg, logger)
		if err != nil {
			return err
		}
		options = append(options, validate.WithKnownIDs(ids))
	}

	src, err := source.Open(ctx, input, source.Options{
		NoMmap: cfg.NoMmap,
		S3: source.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		},
	})
	if err != nil {
		return err
	}
	defer src.Close()

	rep, err := validate.New(opts, options...).Run(src)
	if err != nil {
		return err
	}

	if err := report.Write(stdout, rep, format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if cfg.MetricsFile != "" {
		if err := report.WriteMetrics(cfg.MetricsFile, rep); err != nil {
			return err
		}
	}
	return nil
}

func loadKnownIDs(ctx context.Context, cfg validateConfig, logger *zap.Logger) (*bloom.Filter, error) {
	loader, err := catalog.Open()
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	loader.SetLogger(logger)

	ids := bloom.New(cfg.BloomSize)
	n, err := loader.Load(ctx, cfg.KnownIDs, cfg.KnownIDsColumn, ids)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded known IDs",
		zap.String("path", cfg.KnownIDs),
		zap.Int("ids", n),
		zap.Float64("fill_ratio", ids.FillRatio()))
	return ids, nil
}
