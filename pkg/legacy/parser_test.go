package legacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/logging"
)

// testContext returns a context with a silent logger so skip warnings
// do not clutter test output.
func testContext() context.Context {
	return logging.WithLogger(context.Background(), &logging.Nop)
}

// writeLegacyFile writes a legacy export fixture with the UTF-8 BOM
// the real exports carry.
func writeLegacyFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, append([]byte("\xef\xbb\xbf"), content...), 0o644))
}

const epa1Fixture = `表單簽核流程,日期,EPA項目,病歷號碼,個案姓名,診斷,自評,教師評量,教師回饋,CCC回饋
住院醫師/張玄穎(DOC5921) → 主治醫師/王大華(DOC1234),2024-03-01,EPA1,12345.0,王小明,GERD,3,教師事後重點確認,表現穩定,持續觀察
住院醫師/張玄穎(DOC5921) → 主治醫師/王大華(DOC1234),2024-04-15,,67890,李小美,hypertension,X,4,,
`

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "EPA1.csv")
	writeLegacyFile(t, path, epa1Fixture)

	records, err := ParseFile(testContext(), path, "EPA1", "張玄穎")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "2024家庭醫學專科醫師EPA訓練計畫", first.Program)
	assert.Equal(t, "家庭暨社區醫學部", first.Department)
	assert.Equal(t, "2024-01-01 ~ 2024-12-31", first.Period)
	assert.Equal(t, "張玄穎", first.Trainee)
	assert.Equal(t, "DOC5921", first.TraineeAccount)
	assert.Equal(t, "2024-03-01", first.EventDate)
	assert.Equal(t, "01門診戒菸", first.Category)
	assert.Equal(t, "12345.0", first.PatientID)
	assert.Equal(t, "王小明", first.PatientName)
	assert.Equal(t, "GERD", first.Diagnosis)
	assert.Equal(t, epa.ComplexityMedium, first.Complexity)
	assert.Equal(t, epa.SettingOutpatient, first.Setting)
	// Numeric self score becomes the canonical label.
	assert.Equal(t, "教師事後重點確認", first.SelfReliability)
	// Text teacher score stays verbatim.
	assert.Equal(t, "教師事後重點確認", first.TeacherReliability)
	assert.Equal(t, "表現穩定", first.TeacherFeedback)
	assert.Equal(t, "王大華", first.TeacherSignature)
	assert.Equal(t, "持續觀察", first.CommitteeFeedback)
	assert.Equal(t, epa.SourceHistorical, first.Source)

	second := records[1]
	// Empty EPA cell falls back to the file-name token.
	assert.Equal(t, "01門診戒菸", second.Category)
	// X marks an unscored activity.
	assert.Empty(t, second.SelfReliability)
	assert.Equal(t, "必要時知會教師確認", second.TeacherReliability)
	assert.Equal(t, epa.ComplexityHigh, second.Complexity)
}

func TestParseFileSkipsResidualHeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "EPA7.csv")
	writeLegacyFile(t, path,
		"表單簽核流程,日期\n"+
			"R/張玄穎(DOC5921) → VS/王大華(DOC1234),2024-02-02,EPA7,,陳大同,pneumonia,2,3,,\n"+
			"表單簽核流程,日期\n")

	records, err := ParseFile(testContext(), path, "EPA7", "張玄穎")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "07住院診療", records[0].Category)
	assert.Equal(t, epa.SettingInpatient, records[0].Setting)
}

func TestParseDir(t *testing.T) {
	root := t.TempDir()

	writeLegacyFile(t,
		filepath.Join(root, "CEPO併Emyway EPA統計分析(含統計圖)_張玄穎", "EPA1.csv"),
		epa1Fixture)
	writeLegacyFile(t,
		filepath.Join(root, "CEPO併Emyway EPA統計分析(含統計圖)_李小美", "EPA10 統計.csv"),
		"R/李小美(DOC7788) → VS/陳醫師(DOC0001),2024-05-05,,99.0,林阿嬤,diabetes,4,5,很好,\n")
	// Files without an EPA token are ignored.
	writeLegacyFile(t,
		filepath.Join(root, "CEPO併Emyway EPA統計分析(含統計圖)_李小美", "summary.csv"),
		"whatever\n")
	// Folders without a trainee suffix are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "misc"), 0o755))

	records, err := ParseDir(testContext(), root)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byTrainee := make(map[string][]epa.Record)
	for _, rec := range records {
		byTrainee[rec.Trainee] = append(byTrainee[rec.Trainee], rec)
	}
	assert.Len(t, byTrainee["張玄穎"], 2)
	require.Len(t, byTrainee["李小美"], 1)

	community := byTrainee["李小美"][0]
	assert.Equal(t, "10出院準備/照護轉銜", community.Category)
	assert.Equal(t, epa.SettingCommunity, community.Setting)
	assert.Equal(t, "獨立執行", community.TeacherReliability)
	assert.Equal(t, "99.0", community.PatientID)
}

func TestParseDirUnreadableRoot(t *testing.T) {
	_, err := ParseDir(testContext(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScoreLabel(t *testing.T) {
	tests := []struct {
		cell string
		want string
	}{
		{"3", "教師事後重點確認"},
		{"5", "獨立執行"},
		{"3.0", "教師事後重點確認"},
		{"X", ""},
		{"", ""},
		{"  ", ""},
		{"Level 2a", "Level 2a"},
		{"教師在旁必要時協助", "教師在旁必要時協助"},
		{"7", "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreLabel(tt.cell), "cell %q", tt.cell)
	}
}
