package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/loader"
	"github.com/sos2a/assessment/internal/report"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "sos2a",
		Short:        "Security posture scoring and gap analysis for SOS²A assessments",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(newScoreCmd(), newServeCmd(), newMigrateCmd(), newSubmitCmd(), newReportsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// scoreFlags are the engine overrides accepted by score.
type scoreFlags struct {
	reportType string
	industry   string
	seed       int64
	jitter     bool
	minScore   float64
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reportType, "type", "", "Report type: preliminary, comprehensive (default from config)")
	cmd.Flags().StringVar(&f.industry, "industry", "", "Industry when a submission names none (e.g. healthcare, finance)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for score jitter; implies --jitter")
	cmd.Flags().BoolVar(&f.jitter, "jitter", false, "Apply bounded score jitter to partially implemented domains")
	cmd.Flags().Float64Var(&f.minScore, "min-score", report.DefaultMinScore, "Pass mark for --ci (overall percentage)")
}

// apply layers explicitly set flags over the loaded config.
func (f *scoreFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("type") {
		cfg.Scoring.ReportType = f.reportType
	}
	if flags.Changed("industry") {
		cfg.Scoring.Industry = f.industry
	}
	if flags.Changed("jitter") {
		cfg.Scoring.Jitter = f.jitter
	}
	if flags.Changed("seed") {
		cfg.Scoring.Seed = f.seed
		cfg.Scoring.Jitter = true
	}
	if flags.Changed("min-score") {
		cfg.Scoring.MinScore = f.minScore
	}
	return cfg.Validate()
}

func newScoreCmd() *cobra.Command {
	var (
		flagCI        bool
		flagFormat    string
		flagConfig    string
		flagOutput    string
		flagNoPager   bool
		flagRecursive bool
		flagNoDedup   bool
		sf            scoreFlags
	)

	cmd := &cobra.Command{
		Use:   "score <path>",
		Short: "Score assessment files offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyCIDefaults(cmd, &flagFormat, &flagNoPager, flagCI)
			path := args[0]

			cfg, err := config.Load(flagConfig, path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := sf.apply(cmd, cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			subs, err := loadSubmissions(path, flagRecursive, !flagNoDedup)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Loaded %d assessment(s) from %s\n", len(subs), path)

			batch, err := scoreSubmissions(subs, cfg.Scoring)
			if err != nil {
				return err
			}

			output, err := formatBatch(batch, flagFormat)
			if err != nil {
				return err
			}
			if err := writeOutput(output, flagOutput, flagFormat, flagNoPager); err != nil {
				return err
			}

			if flagCI {
				return checkCIResult(batch)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagCI, "ci", false, "CI mode: JSON output, no pager, exit 1 on failure")
	cmd.Flags().StringVar(&flagFormat, "format", "terminal", "Output format: terminal, json, markdown, yaml")
	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to sos2a.yaml config")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write report to file")
	cmd.Flags().BoolVar(&flagNoPager, "no-pager", false, "Disable automatic paging")
	cmd.Flags().BoolVarP(&flagRecursive, "recursive", "r", false, "Scan directories recursively")
	cmd.Flags().BoolVar(&flagNoDedup, "no-dedup", false, "Keep duplicate submissions when scanning recursively")
	sf.register(cmd)
	return cmd
}

func loadSubmissions(path string, recursive, dedup bool) ([]loader.Submission, error) {
	var (
		subs []loader.Submission
		err  error
	)
	if recursive {
		subs, err = loader.LoadSubmissionsRecursive(path, dedup)
	} else {
		subs, err = loader.LoadSubmissions(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("no assessment files found in %s", path)
	}
	return subs, nil
}

// scoreSubmissions validates and scores every submission. Invalid ones are
// reported on stderr and left out; it fails only when none remain.
func scoreSubmissions(subs []loader.Submission, sc config.ScoringConfig) (*report.Batch, error) {
	cat := catalog.Default()
	batch := &report.Batch{MinScore: sc.MinScore}

	invalid := 0
	for i := range subs {
		sub := &subs[i]
		if err := assessment.Validate(&sub.Raw, cat); err != nil {
			invalid++
			printValidation(sub.SourcePath, err)
			continue
		}

		in := assessment.Normalize(&sub.Raw, cat)
		batch.Entries = append(batch.Entries, report.Entry{
			ID:          sub.Raw.ID,
			Source:      sub.SourcePath,
			AlsoFoundIn: sub.AlsoFoundIn,
			Report:      analysis.Assess(in, sc.Options(&sub.Raw)),
		})
	}

	if len(batch.Entries) == 0 {
		return nil, fmt.Errorf("all %d assessment(s) failed validation", invalid)
	}
	return batch, nil
}

func printValidation(source string, err error) {
	var verr *assessment.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", source, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: skipping %s: %d invalid field(s)\n", source, len(verr.Fields))
	for _, fe := range verr.Fields {
		fmt.Fprintf(os.Stderr, "  %s\n", fe.Message)
	}
}

func checkCIResult(batch *report.Batch) error {
	for _, e := range batch.Entries {
		r := e.Report
		if r.OverallScore.Percentage < batch.MinScore {
			return fmt.Errorf("check failed: %s overall score %.2f%% below threshold %.0f%%",
				e.ID, r.OverallScore.Percentage, batch.MinScore)
		}
		if n := r.PriorityCount(analysis.PriorityCritical); n > 0 {
			return fmt.Errorf("check failed: %s has %d critical gap(s)", e.ID, n)
		}
	}
	return nil
}

// applyCIDefaults sets machine-friendly defaults when --ci is used:
// JSON format and no pager, unless the user explicitly overrode them.
func applyCIDefaults(cmd *cobra.Command, format *string, noPager *bool, ci bool) {
	if !ci {
		return
	}
	if !cmd.Flags().Changed("format") {
		*format = "json"
	}
	*noPager = true
}
