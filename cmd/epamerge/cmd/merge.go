package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cbme/epamerge/pkg/logging"
	"github.com/cbme/epamerge/pkg/pipeline"
	"github.com/cbme/epamerge/pkg/reconciler"
)

// NewMergeCommand creates the merge command, the main entry point of
// the pipeline.
func NewMergeCommand(a App) *cobra.Command {
	var (
		configPath string
		flags      pipeline.Config
	)

	c := &cobra.Command{
		Use:   "merge",
		Short: "Merge legacy and current-system EPA records into one dataset",
		Long: `Merge parses the legacy per-student export tree, filters it by the
cutoff date, reads the current-system bulk export, reconciles the two
batches, and writes the integrated dataset plus a YAML report.

Flags override values from --pipeline-config and the application
config file.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg := a.PipelineDefaults()
			if configPath != "" {
				loaded, err := pipeline.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			applyFlagOverrides(c, &cfg, &flags)

			p, err := pipeline.New(&cfg)
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(c.Context(), a.Logger())
			result, err := p.Run(ctx)
			if err != nil {
				return err
			}

			printMergeSummary(a, &cfg, result)
			return nil
		},
	}

	c.Flags().StringVar(&configPath, "pipeline-config", "", "pipeline config YAML (epamerge.yaml)")
	c.Flags().StringVar(&flags.LegacyDir, "legacy-dir", "", "root of the legacy per-student export tree")
	c.Flags().StringVar(&flags.CurrentExport, "current", "", "current-system bulk export CSV")
	c.Flags().StringVar(&flags.OutputPath, "output", "", "integrated dataset output path")
	c.Flags().StringVar(&flags.ReportPath, "report", "", "YAML reconciliation report path")
	c.Flags().StringVar(&flags.Cutoff, "cutoff", "", "inclusive last legacy event date (default "+pipeline.DefaultCutoff+")")
	c.Flags().StringVar(&flags.Strategy, "strategy", "", "resolution strategy: source-priority or first-wins")
	c.Flags().BoolVar(&flags.Backup, "backup", false, "back up an existing output file before replacing it")
	c.Flags().Float64Var(&flags.EmptyIDThreshold, "empty-id-threshold", 0, "empty patient-ID share that flags the merge low confidence")

	return c
}

// applyFlagOverrides copies explicitly set flag values over the
// config, so unset flags never clobber config-file values.
func applyFlagOverrides(c *cobra.Command, cfg, flags *pipeline.Config) {
	if c.Flags().Changed("legacy-dir") {
		cfg.LegacyDir = flags.LegacyDir
	}
	if c.Flags().Changed("current") {
		cfg.CurrentExport = flags.CurrentExport
	}
	if c.Flags().Changed("output") {
		cfg.OutputPath = flags.OutputPath
	}
	if c.Flags().Changed("report") {
		cfg.ReportPath = flags.ReportPath
	}
	if c.Flags().Changed("cutoff") {
		cfg.Cutoff = flags.Cutoff
	}
	if c.Flags().Changed("strategy") {
		cfg.Strategy = flags.Strategy
	}
	if c.Flags().Changed("backup") {
		cfg.Backup = flags.Backup
	}
	if c.Flags().Changed("empty-id-threshold") {
		cfg.EmptyIDThreshold = flags.EmptyIDThreshold
	}
}

// printMergeSummary renders the post-run summary table.
func printMergeSummary(a App, cfg *pipeline.Config, result *reconciler.Result) {
	color.NoColor = color.NoColor || a.ColorDisabled()
	report := result.Report

	color.New(color.Bold).Println(result.Summary())
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Source", "In", "Exact Dups", "Kept", "Discarded"})
	table.Append([]string{
		"historical",
		strconv.Itoa(report.HistoricalIn),
		strconv.Itoa(report.HistoricalExactDuplicates),
		strconv.Itoa(report.HistoricalKept),
		strconv.Itoa(report.HistoricalIn - report.HistoricalExactDuplicates - report.HistoricalKept),
	})
	table.Append([]string{
		"current",
		strconv.Itoa(report.CurrentIn),
		strconv.Itoa(report.CurrentExactDuplicates),
		strconv.Itoa(report.CurrentKept),
		strconv.Itoa(report.CurrentIn - report.CurrentExactDuplicates - report.CurrentKept),
	})
	table.Render()

	fmt.Printf("\nDataset: %s\n", cfg.OutputPath)
	if cfg.ReportPath != "" {
		fmt.Printf("Report:  %s\n", cfg.ReportPath)
	}
	if report.LowConfidence {
		color.Yellow("Warning: %.0f%% of kept records have no patient ID (threshold %.0f%%)",
			report.EmptyIDShare*100, report.EmptyIDThreshold*100)
	}
}
