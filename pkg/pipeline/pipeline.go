// Package pipeline orchestrates one end-to-end reconciliation run:
// parse the legacy export tree, apply the historical cutoff, read the
// current-system export, reconcile, and write the integrated dataset
// plus its report. Runs are single-threaded batch jobs; callers
// serialize concurrent runs against the same output path.
package pipeline

import (
	"context"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/cbme/epamerge/pkg/dataset"
	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/errors"
	"github.com/cbme/epamerge/pkg/legacy"
	"github.com/cbme/epamerge/pkg/logging"
	"github.com/cbme/epamerge/pkg/reconciler"
)

// Pipeline runs the reconciliation described by its config.
type Pipeline struct {
	cfg *Config
}

// New creates a pipeline after validating the config.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("pipeline", "config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run executes the pipeline. Every failure before the final rename
// leaves any existing output file untouched.
func (p *Pipeline) Run(ctx context.Context) (*reconciler.Result, error) {
	logger := logging.FromContext(ctx)

	var historical []epa.Record
	if p.cfg.LegacyDir != "" {
		var err error
		histCtx := logging.WithSource(ctx, string(epa.SourceHistorical))
		historical, err = legacy.ParseDir(histCtx, p.cfg.LegacyDir)
		if err != nil {
			return nil, err
		}
	}

	filter := reconciler.NewCutoffFilter(p.cfg.CutoffTime())
	historical, filterStats := filter.Apply(ctx, historical)

	var current []epa.Record
	if p.cfg.CurrentExport != "" {
		var err error
		curCtx := logging.WithSource(ctx, string(epa.SourceCurrent))
		current, err = dataset.ReadCurrentExport(curCtx, p.cfg.CurrentExport)
		if err != nil {
			return nil, err
		}
	}

	opts := []reconciler.Option{
		reconciler.WithStrategy(reconciler.NewStrategy(reconciler.StrategyType(p.cfg.Strategy))),
	}
	if p.cfg.EmptyIDThreshold > 0 {
		opts = append(opts, reconciler.WithEmptyIDThreshold(p.cfg.EmptyIDThreshold))
	}
	rec, err := reconciler.New(opts...)
	if err != nil {
		return nil, err
	}

	result, err := rec.Reconcile(ctx, historical, current)
	if err != nil {
		return nil, err
	}

	if err := dataset.Write(p.cfg.OutputPath, result.Records, dataset.WithBackup(p.cfg.Backup)); err != nil {
		return nil, err
	}
	logger.Info().
		Str("output", p.cfg.OutputPath).
		Int("records", len(result.Records)).
		Msg("Wrote integrated dataset")

	if p.cfg.ReportPath != "" {
		if err := writeReport(p.cfg.ReportPath, p.cfg.Cutoff, result, filterStats); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// reportArtifact is the YAML report written next to the dataset.
type reportArtifact struct {
	Cutoff       string                 `yaml:"cutoff"`
	CutoffFilter reconciler.FilterStats `yaml:"cutoff_filter"`
	Report       reconciler.Report      `yaml:"reconciliation"`
}

func writeReport(path, cutoff string, result *reconciler.Result, stats reconciler.FilterStats) error {
	artifact := reportArtifact{
		Cutoff:       cutoff,
		CutoffFilter: stats,
		Report:       result.Report,
	}
	data, err := yaml.Marshal(artifact)
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
