package reconciler

import (
	"fmt"
	"time"

	"github.com/cbme/epamerge/pkg/epa"
)

// Result represents the outcome of a reconciliation operation.
type Result struct {
	// Records is the merged, deduplicated dataset in stable input
	// order (historical before current, group winners only).
	Records []epa.Record

	// Report carries the reconciliation accounting written alongside
	// the dataset.
	Report Report

	// Metadata about the run itself.
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Strategy  StrategyType
}

// Report is the per-run reconciliation accounting. It is serialized
// as the YAML report artifact next to the output dataset.
type Report struct {
	Strategy string `yaml:"strategy"`

	HistoricalIn int `yaml:"historical_in"`
	CurrentIn    int `yaml:"current_in"`

	// Invalid counts dropped records that arrived without a trainee or
	// category, per source.
	HistoricalInvalid int `yaml:"historical_invalid"`
	CurrentInvalid    int `yaml:"current_invalid"`

	HistoricalExactDuplicates int `yaml:"historical_exact_duplicates"`
	CurrentExactDuplicates    int `yaml:"current_exact_duplicates"`

	MergeGroups    int `yaml:"merge_groups"`
	HistoricalKept int `yaml:"historical_kept"`
	CurrentKept    int `yaml:"current_kept"`

	Discards []Discard `yaml:"discards,omitempty"`

	// EmptyPatientIDs counts kept records whose patient ID is blank.
	// Those records matched on name and diagnosis alone, so a high
	// share makes the merge low confidence.
	EmptyPatientIDs   int     `yaml:"empty_patient_ids"`
	EmptyIDShare      float64 `yaml:"empty_id_share"`
	EmptyIDThreshold  float64 `yaml:"empty_id_threshold"`
	LowConfidence     bool    `yaml:"low_confidence"`
	UnmappedScores    int     `yaml:"unmapped_teacher_scores"`
	VocabularyCovered int     `yaml:"vocabulary_covered"`
}

// Discard records one dropped merge-key group member and why.
type Discard struct {
	Key     string `yaml:"key"`
	Trainee string `yaml:"trainee,omitempty"`
	Source  string `yaml:"source"`
	Reason  string `yaml:"reason"`

	Record epa.Record `yaml:"-"`
}

// Kept returns the total number of records that survived.
func (r *Report) Kept() int {
	return r.HistoricalKept + r.CurrentKept
}

// Discarded returns the number of merge-key discards.
func (r *Report) Discarded() int {
	return len(r.Discards)
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := fmt.Sprintf("Merged %d historical and %d current records into %d rows (%d merge keys, %d discarded, %d exact duplicates removed)",
		r.Report.HistoricalIn, r.Report.CurrentIn, r.Report.Kept(),
		r.Report.MergeGroups, r.Report.Discarded(),
		r.Report.HistoricalExactDuplicates+r.Report.CurrentExactDuplicates)
	if r.Report.LowConfidence {
		s += fmt.Sprintf(". LOW CONFIDENCE: %.0f%% of kept records have no patient ID", r.Report.EmptyIDShare*100)
	}
	return s
}

// NewResult creates a new result with timing started.
func NewResult(strategy StrategyType) *Result {
	return &Result{
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Strategy:  strategy,
		},
		Report: Report{Strategy: strategy.String()},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
