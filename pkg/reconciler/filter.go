package reconciler

import (
	"context"
	"time"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/logging"
)

// CutoffFilter drops historical records dated after the legacy system
// was retired, so the historical batch never shadows assessments the
// current system already owns. Current-system records pass through
// untouched.
type CutoffFilter struct {
	cutoff time.Time
}

// FilterStats counts what the filter did to one batch.
type FilterStats struct {
	Kept              int `yaml:"kept"`
	DroppedAfter      int `yaml:"dropped_after_cutoff"`
	DroppedUnparsable int `yaml:"dropped_unparsable_date"`
}

// NewCutoffFilter creates a filter with the given inclusive cutoff.
// The comparison is at date granularity.
func NewCutoffFilter(cutoff time.Time) *CutoffFilter {
	return &CutoffFilter{cutoff: cutoff.Truncate(24 * time.Hour)}
}

// Apply returns the records that survive the cutoff. Historical
// records with an unparseable event date are dropped with a warn log;
// a date equal to the cutoff survives.
func (f *CutoffFilter) Apply(ctx context.Context, records []epa.Record) ([]epa.Record, FilterStats) {
	logger := logging.FromContext(ctx)

	var stats FilterStats
	kept := make([]epa.Record, 0, len(records))
	for _, rec := range records {
		if rec.Source != epa.SourceHistorical {
			kept = append(kept, rec)
			stats.Kept++
			continue
		}

		date, ok := epa.ParseEventDate(rec.EventDate)
		if !ok {
			stats.DroppedUnparsable++
			logger.Warn().
				Str("trainee", rec.Trainee).
				Str("event_date", rec.EventDate).
				Msg("Dropping historical record with unparsable event date")
			continue
		}
		if date.After(f.cutoff) {
			stats.DroppedAfter++
			continue
		}
		kept = append(kept, rec)
		stats.Kept++
	}

	if stats.DroppedAfter > 0 || stats.DroppedUnparsable > 0 {
		logger.Info().
			Time("cutoff", f.cutoff).
			Int("kept", stats.Kept).
			Int("dropped_after_cutoff", stats.DroppedAfter).
			Int("dropped_unparsable", stats.DroppedUnparsable).
			Msg("Applied historical cutoff filter")
	}

	return kept, stats
}
