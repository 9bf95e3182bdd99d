// Package reconciler merges EPA assessment records from the historical
// and current systems into one deduplicated batch. It deduplicates
// exact copies inside each source, groups the union by merge key, and
// resolves each group with a pluggable strategy, keeping a full
// accounting of everything it dropped.
package reconciler

import (
	"context"
	"strings"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/logging"
	"github.com/cbme/epamerge/pkg/vocabulary"
)

// Reconciler merges record batches from the two source systems.
type Reconciler interface {
	// Reconcile merges the historical and current batches. It never
	// fails on record content; malformed fields simply join the merge
	// key as empty strings.
	Reconcile(ctx context.Context, historical, current []epa.Record) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	strategy         Strategy
	emptyIDThreshold float64
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		strategy:         options.strategy,
		emptyIDThreshold: options.emptyIDThreshold,
	}, nil
}

// Reconcile merges the two batches step by step: per-source cleanup
// (category spelling normalization, required-field checks) and exact
// dedup, merge-key grouping over the union (historical first, so
// first-wins resolution favors the earlier system), then group
// resolution via the configured strategy.
func (r *reconciler) Reconcile(ctx context.Context, historical, current []epa.Record) (*Result, error) {
	logger := logging.FromContext(ctx)
	result := NewResult(r.strategy.Type())
	result.Report.EmptyIDThreshold = r.emptyIDThreshold
	result.Report.HistoricalIn = len(historical)
	result.Report.CurrentIn = len(current)

	historical, result.Report.HistoricalInvalid = sanitize(historical)
	current, result.Report.CurrentInvalid = sanitize(current)
	if dropped := result.Report.HistoricalInvalid + result.Report.CurrentInvalid; dropped > 0 {
		logger.Warn().
			Int("historical", result.Report.HistoricalInvalid).
			Int("current", result.Report.CurrentInvalid).
			Msg("Dropped records missing a trainee or category")
	}

	historical, result.Report.HistoricalExactDuplicates = dedupeExact(historical)
	current, result.Report.CurrentExactDuplicates = dedupeExact(current)

	union := make([]epa.Record, 0, len(historical)+len(current))
	union = append(union, historical...)
	union = append(union, current...)

	keys, groups := groupByMergeKey(union)
	result.Report.MergeGroups = len(keys)

	for _, key := range keys {
		kept, discards := r.strategy.Resolve(key, groups[key])
		result.Records = append(result.Records, kept...)
		for _, d := range discards {
			d.Trainee = d.Record.Trainee
			d.Source = string(d.Record.Source)
			result.Report.Discards = append(result.Report.Discards, d)
		}
	}

	r.account(result)
	result.Finalize()

	logger.Info().
		Str("strategy", r.strategy.Type().String()).
		Int("historical_in", result.Report.HistoricalIn).
		Int("current_in", result.Report.CurrentIn).
		Int("kept", result.Report.Kept()).
		Int("discarded", result.Report.Discarded()).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciled record batches")
	if result.Report.LowConfidence {
		logger.Warn().
			Float64("empty_id_share", result.Report.EmptyIDShare).
			Float64("threshold", r.emptyIDThreshold).
			Msg("Merge keys relied heavily on records without patient IDs")
	}

	return result, nil
}

// account fills the report fields derived from the kept records.
func (r *reconciler) account(result *Result) {
	report := &result.Report
	for _, rec := range result.Records {
		switch rec.Source {
		case epa.SourceCurrent:
			report.CurrentKept++
		default:
			report.HistoricalKept++
		}
		if epa.NormalizePatientID(rec.PatientID) == "" {
			report.EmptyPatientIDs++
		}
		if rec.TeacherReliability == "" {
			continue
		}
		if _, ok := vocabulary.Normalize(rec.TeacherReliability); ok {
			report.VocabularyCovered++
		} else {
			report.UnmappedScores++
		}
	}
	if kept := report.Kept(); kept > 0 {
		report.EmptyIDShare = float64(report.EmptyPatientIDs) / float64(kept)
	}
	report.LowConfidence = report.EmptyIDShare > r.emptyIDThreshold
}

// sanitize normalizes category spelling variants onto their canonical
// names and drops records missing a trainee or category. Both fields
// are required: a record without them cannot be attributed or keyed.
func sanitize(records []epa.Record) ([]epa.Record, int) {
	kept := records[:0:0]
	dropped := 0
	for _, rec := range records {
		rec.Category = epa.NormalizeCategory(rec.Category)
		if strings.TrimSpace(rec.Trainee) == "" || rec.Category == "" {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}

// dedupeExact removes exact copies (all fields except source) from one
// batch, keeping the first occurrence, and reports how many were
// removed.
func dedupeExact(records []epa.Record) ([]epa.Record, int) {
	seen := make(map[string]struct{}, len(records))
	kept := records[:0:0]
	removed := 0
	for _, rec := range records {
		fp := rec.Fingerprint()
		if _, ok := seen[fp]; ok {
			removed++
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, rec)
	}
	return kept, removed
}

// groupByMergeKey buckets records by merge key, preserving first-seen
// key order and input order inside each bucket.
func groupByMergeKey(records []epa.Record) ([]string, map[string][]epa.Record) {
	var keys []string
	groups := make(map[string][]epa.Record, len(records))
	for _, rec := range records {
		key := rec.MergeKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], rec)
	}
	return keys, groups
}
