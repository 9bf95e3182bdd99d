package pipeline

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/errors"
	"github.com/cbme/epamerge/pkg/reconciler"
)

// DefaultCutoff is the retirement date of the legacy system; the day
// itself is still legacy territory.
const DefaultCutoff = "2025-01-13"

// Config describes one pipeline run. Zero values fall back to
// defaults in Validate, so a minimal epamerge.yaml only needs the
// three paths.
type Config struct {
	// LegacyDir is the root of the per-student legacy export tree.
	LegacyDir string `yaml:"legacy_dir"`

	// CurrentExport is the current-system bulk export CSV.
	CurrentExport string `yaml:"current_export"`

	// OutputPath is where the integrated dataset is written.
	OutputPath string `yaml:"output"`

	// ReportPath is where the YAML reconciliation report is written.
	// Empty disables the report artifact.
	ReportPath string `yaml:"report,omitempty"`

	// Cutoff is the inclusive last event date accepted from the
	// legacy system, formatted 2006-01-02.
	Cutoff string `yaml:"cutoff,omitempty"`

	// Strategy names the merge-key resolution policy.
	Strategy string `yaml:"strategy,omitempty"`

	// Backup keeps a timestamped copy of an existing output file.
	Backup bool `yaml:"backup,omitempty"`

	// EmptyIDThreshold is the empty-patient-ID share above which the
	// run is flagged low confidence.
	EmptyIDThreshold float64 `yaml:"empty_id_threshold,omitempty"`
}

// LoadConfig reads a pipeline config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError("pipeline", "invalid YAML config", err)
	}
	return &cfg, nil
}

// Validate fills defaults and rejects configs that cannot run.
func (c *Config) Validate() error {
	if c.LegacyDir == "" && c.CurrentExport == "" {
		return errors.NewConfigError("pipeline", "at least one of legacy_dir and current_export is required", nil)
	}
	if c.OutputPath == "" {
		return errors.NewConfigError("pipeline", "output path is required", nil)
	}
	if c.Cutoff == "" {
		c.Cutoff = DefaultCutoff
	}
	if _, ok := epa.ParseEventDate(c.Cutoff); !ok {
		return errors.NewConfigError("pipeline", "cutoff must be a date like "+DefaultCutoff, nil)
	}
	if c.Strategy == "" {
		c.Strategy = reconciler.StrategyTypeSourcePriority.String()
	}
	switch reconciler.StrategyType(c.Strategy) {
	case reconciler.StrategyTypeSourcePriority, reconciler.StrategyTypeFirstWins:
	default:
		return errors.NewConfigError("pipeline", "unknown strategy "+c.Strategy, nil)
	}
	if c.EmptyIDThreshold < 0 || c.EmptyIDThreshold > 1 {
		return errors.NewConfigError("pipeline", "empty_id_threshold must be in [0, 1]", nil)
	}
	return nil
}

// CutoffTime returns the parsed cutoff date. Validate must have run.
func (c *Config) CutoffTime() time.Time {
	t, _ := epa.ParseEventDate(c.Cutoff)
	return t
}
