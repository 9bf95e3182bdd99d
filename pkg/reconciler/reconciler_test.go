package reconciler

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbme/epamerge/pkg/epa"
)

func historicalRecord(date, patientID, name string) epa.Record {
	return epa.Record{
		Trainee:            "張玄穎",
		EventDate:          date,
		Category:           "05門診診療",
		PatientID:          patientID,
		PatientName:        name,
		Diagnosis:          "GERD",
		Setting:            epa.SettingOutpatient,
		TeacherReliability: "教師事後重點確認",
		Source:             epa.SourceHistorical,
	}
}

func currentRecord(date, patientID, name string) epa.Record {
	rec := historicalRecord(date, patientID, name)
	rec.TeacherReliability = "Level 3"
	rec.Source = epa.SourceCurrent
	return rec
}

func TestReconcileCurrentWinsOnSharedKey(t *testing.T) {
	hist := historicalRecord("2024-03-01", "12345.0", "王小明")
	cur := currentRecord("2024-03-01", "12345", "王小明")
	require.Equal(t, hist.MergeKey(), cur.MergeKey())

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{hist}, []epa.Record{cur})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, epa.SourceCurrent, result.Records[0].Source)

	require.Len(t, result.Report.Discards, 1)
	assert.Equal(t, string(epa.SourceHistorical), result.Report.Discards[0].Source)
	assert.Equal(t, "張玄穎", result.Report.Discards[0].Trainee)
	assert.Equal(t, 1, result.Report.CurrentKept)
	assert.Equal(t, 0, result.Report.HistoricalKept)
}

func TestReconcileHistoricalOnlyGroupKeepsFirst(t *testing.T) {
	a := historicalRecord("2024-03-01", "12345", "王小明")
	b := a
	b.TeacherFeedback = "second entry, same event"

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{a, b}, nil)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Empty(t, result.Records[0].TeacherFeedback)
	require.Len(t, result.Report.Discards, 1)
	assert.Equal(t, "second entry, same event", result.Report.Discards[0].Record.TeacherFeedback)
}

func TestReconcileAllCurrentGroupKeepsAll(t *testing.T) {
	a := currentRecord("2024-03-01", "12345", "王小明")
	b := a
	b.TeacherFeedback = "repeat assessment"

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), nil, []epa.Record{a, b})
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
	assert.Empty(t, result.Report.Discards)
}

func TestReconcileExactDuplicatesRemovedPerBatch(t *testing.T) {
	hist := historicalRecord("2024-03-01", "12345", "王小明")

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{hist, hist, hist}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Records, 1)
	assert.Equal(t, 2, result.Report.HistoricalExactDuplicates)
	// Exact duplicates are not merge-key discards.
	assert.Empty(t, result.Report.Discards)
}

func TestReconcileDistinctKeysAllSurvive(t *testing.T) {
	recs := []epa.Record{
		historicalRecord("2024-03-01", "111", "王小明"),
		historicalRecord("2024-03-02", "222", "李小美"),
	}
	cur := currentRecord("2024-03-03", "333", "陳大同")

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), recs, []epa.Record{cur})
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.Equal(t, 3, result.Report.MergeGroups)
	assert.Equal(t, 2, result.Report.HistoricalKept)
	assert.Equal(t, 1, result.Report.CurrentKept)
}

func TestReconcileIdempotent(t *testing.T) {
	hist := []epa.Record{
		historicalRecord("2024-03-01", "111", "王小明"),
		historicalRecord("2024-03-01", "111", "王小明"),
		historicalRecord("2024-03-02", "222", "李小美"),
	}
	cur := []epa.Record{currentRecord("2024-03-01", "111.0", "王小明")}

	r, err := New()
	require.NoError(t, err)
	first, err := r.Reconcile(context.Background(), hist, cur)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), hist, cur)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Errorf("reconcile not deterministic (-first +second):\n%s", diff)
	}
}

func TestReconcileCollapsesCategorySpellingVariants(t *testing.T) {
	hist := historicalRecord("2024-03-01", "12345", "王小明")
	hist.Category = "EPA08.急症診療"
	cur := currentRecord("2024-03-01", "12345", "王小明")
	cur.Category = "08.急症照護"

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{hist}, []epa.Record{cur})
	require.NoError(t, err)

	// Both spellings name the same activity, so they share one merge
	// key and the current record supersedes the historical one.
	require.Len(t, result.Records, 1)
	assert.Equal(t, "08急症照護", result.Records[0].Category)
	assert.Equal(t, epa.SourceCurrent, result.Records[0].Source)
	assert.Equal(t, 1, result.Report.MergeGroups)
	require.Len(t, result.Report.Discards, 1)
	assert.Equal(t, string(epa.SourceHistorical), result.Report.Discards[0].Source)
}

func TestReconcileDropsRecordsMissingRequiredFields(t *testing.T) {
	noTrainee := historicalRecord("2024-03-01", "111", "王小明")
	noTrainee.Trainee = "  "
	noCategory := currentRecord("2024-03-02", "222", "李小美")
	noCategory.Category = ""
	valid := historicalRecord("2024-03-03", "333", "陳大同")

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(),
		[]epa.Record{noTrainee, valid}, []epa.Record{noCategory})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "陳大同", result.Records[0].PatientName)
	assert.Equal(t, 1, result.Report.HistoricalInvalid)
	assert.Equal(t, 1, result.Report.CurrentInvalid)
	// Dropped rows are not merge-key discards.
	assert.Empty(t, result.Report.Discards)
}

func TestReconcileFirstWinsStrategy(t *testing.T) {
	hist := historicalRecord("2024-03-01", "12345", "王小明")
	cur := currentRecord("2024-03-01", "12345", "王小明")

	r, err := New(WithStrategy(NewFirstWinsStrategy()))
	require.NoError(t, err)
	// Historical precedes current in the union, so it wins.
	result, err := r.Reconcile(context.Background(), []epa.Record{hist}, []epa.Record{cur})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, epa.SourceHistorical, result.Records[0].Source)
}

func TestReconcileEmptyIDShare(t *testing.T) {
	noID := historicalRecord("2024-03-01", "", "王小明")
	withID := historicalRecord("2024-03-02", "222", "李小美")

	r, err := New(WithEmptyIDThreshold(0.4))
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{noID, withID}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Report.EmptyPatientIDs)
	assert.InDelta(t, 0.5, result.Report.EmptyIDShare, 1e-9)
	assert.True(t, result.Report.LowConfidence)
}

func TestReconcileVocabularyCoverage(t *testing.T) {
	known := historicalRecord("2024-03-01", "111", "王小明")
	unknown := historicalRecord("2024-03-02", "222", "李小美")
	unknown.TeacherReliability = "看起來不錯"
	unscored := historicalRecord("2024-03-03", "333", "陳大同")
	unscored.TeacherReliability = ""

	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(), []epa.Record{known, unknown, unscored}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Report.VocabularyCovered)
	assert.Equal(t, 1, result.Report.UnmappedScores)
}

func TestWithEmptyIDThresholdValidation(t *testing.T) {
	_, err := New(WithEmptyIDThreshold(1.5))
	assert.Error(t, err)
	_, err = New(WithEmptyIDThreshold(-0.1))
	assert.Error(t, err)
	_, err = New(WithStrategy(nil))
	assert.Error(t, err)
}

func TestResultSummary(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	result, err := r.Reconcile(context.Background(),
		[]epa.Record{historicalRecord("2024-03-01", "111", "王小明")},
		[]epa.Record{currentRecord("2024-03-01", "111", "王小明")})
	require.NoError(t, err)

	assert.Contains(t, result.Summary(), "1 historical")
	assert.Contains(t, result.Summary(), "1 current")
}
