package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbme/epamerge/pkg/dataset"
	"github.com/cbme/epamerge/pkg/epa"
)

// buildLegacyTree writes a minimal legacy export tree with one
// trainee folder and one EPA file.
func buildLegacyTree(t *testing.T, root string) {
	t.Helper()
	folder := filepath.Join(root, "CEPO併Emyway EPA統計分析(含統計圖)_張玄穎")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	content := "\xef\xbb\xbf" +
		"表單簽核流程,日期,EPA項目,病歷號碼,個案姓名,診斷,自評,教師評量,教師回饋,CCC回饋\n" +
		"R/張玄穎(DOC5921) → VS/王大華(DOC1234),2024-03-01,EPA1,12345.0,王小明,GERD,3,3,回饋一,\n" +
		"R/張玄穎(DOC5921) → VS/王大華(DOC1234),2024-06-01,EPA1,67890,李小美,OHCA,4,4,回饋二,\n" +
		// After the cutoff; the current system owns this period.
		"R/張玄穎(DOC5921) → VS/王大華(DOC1234),2025-02-01,EPA1,99999,陳大同,cold,5,5,回饋三,\n"
	require.NoError(t, os.WriteFile(filepath.Join(folder, "EPA1.csv"), []byte(content), 0o644))
}

// buildCurrentExport writes a current-system bulk export with one
// record that collides with the legacy 2024-03-01 event.
func buildCurrentExport(t *testing.T, path string) {
	t.Helper()
	cells := []string{
		"2024家庭醫學專科醫師EPA訓練計畫", // 臨床訓練計畫
		"",                       // 組別
		"",                       // 階段/子階段
		"家庭暨社區醫學部",               // 訓練階段科部
		"2024-01-01 ~ 2024-12-31", // 訓練階段期間
		"張玄穎",        // 學員
		"DOC5921",    // 學員帳號
		"",           // 表單簽核流程
		"2024-03-01", // 表單派送日期
		"2024-03-01", // 應完成日期
		"2024-03-01", // 日期
		"01門診戒菸",     // EPA項目
		"張玄穎",        // 受評醫師
		"12345",      // 病歷號碼
		"王小明",        // 個案姓名
		"GERD",       // 診斷
		"中",          // 複雜程度
		"門診",         // 觀察場域
		"",           // 信賴程度(學員自評)
		"Level 3",    // 信賴程度(教師評量)
		"現有系統版本",     // 教師給學員回饋
		"王大華",        // 教師簽名
		"",           // 教師給CCC回饋
	}
	content := "\xef\xbb\xbf" +
		strings.Join(dataset.ExportColumns, ",") + "\n" +
		strings.Join(cells, ",") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	legacyRoot := filepath.Join(dir, "legacy")
	buildLegacyTree(t, legacyRoot)

	currentPath := filepath.Join(dir, "current.csv")
	buildCurrentExport(t, currentPath)

	cfg := &Config{
		LegacyDir:     legacyRoot,
		CurrentExport: currentPath,
		OutputPath:    filepath.Join(dir, "integrated.csv"),
		ReportPath:    filepath.Join(dir, "report.yaml"),
		Cutoff:        "2025-01-13",
	}
	p, err := New(cfg)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// Three legacy rows: one collides with current (current wins), one
	// survives, one is past the cutoff.
	records, err := dataset.Read(context.Background(), cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	bySource := make(map[epa.Source]int)
	for _, rec := range records {
		bySource[rec.Source]++
	}
	assert.Equal(t, 1, bySource[epa.SourceHistorical])
	assert.Equal(t, 1, bySource[epa.SourceCurrent])

	// The collision kept the current system's version of the event.
	assert.Equal(t, "現有系統版本", records[0].TeacherFeedback)
	assert.Equal(t, "2024-06-01", records[1].EventDate)

	assert.Equal(t, 1, result.Report.Discarded())

	// The YAML report round-trips.
	raw, err := os.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	var artifact reportArtifact
	require.NoError(t, yaml.Unmarshal(raw, &artifact))
	assert.Equal(t, "2025-01-13", artifact.Cutoff)
	assert.Equal(t, 1, artifact.CutoffFilter.DroppedAfter)
	assert.Len(t, artifact.Report.Discards, 1)
}

func TestPipelineRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	legacyRoot := filepath.Join(dir, "legacy")
	buildLegacyTree(t, legacyRoot)

	cfg := &Config{
		LegacyDir:  legacyRoot,
		OutputPath: filepath.Join(dir, "integrated.csv"),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestPipelineMissingCurrentExportFails(t *testing.T) {
	dir := t.TempDir()
	legacyRoot := filepath.Join(dir, "legacy")
	buildLegacyTree(t, legacyRoot)

	cfg := &Config{
		LegacyDir:     legacyRoot,
		CurrentExport: filepath.Join(dir, "missing.csv"),
		OutputPath:    filepath.Join(dir, "integrated.csv"),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	// The failed run must not create output.
	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults filled", func(t *testing.T) {
		cfg := &Config{LegacyDir: "x", OutputPath: "out.csv"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultCutoff, cfg.Cutoff)
		assert.Equal(t, "source-priority", cfg.Strategy)
	})

	t.Run("no inputs", func(t *testing.T) {
		cfg := &Config{OutputPath: "out.csv"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("no output", func(t *testing.T) {
		cfg := &Config{LegacyDir: "x"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad cutoff", func(t *testing.T) {
		cfg := &Config{LegacyDir: "x", OutputPath: "out.csv", Cutoff: "13. Januar"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad strategy", func(t *testing.T) {
		cfg := &Config{LegacyDir: "x", OutputPath: "out.csv", Strategy: "newest-wins"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad threshold", func(t *testing.T) {
		cfg := &Config{LegacyDir: "x", OutputPath: "out.csv", EmptyIDThreshold: 2}
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epamerge.yaml")
	content := `legacy_dir: /data/legacy
current_export: /data/current.csv
output: /data/integrated.csv
report: /data/report.yaml
cutoff: "2025-01-13"
strategy: first-wins
backup: true
empty_id_threshold: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/legacy", cfg.LegacyDir)
	assert.Equal(t, "/data/current.csv", cfg.CurrentExport)
	assert.Equal(t, "/data/integrated.csv", cfg.OutputPath)
	assert.Equal(t, "/data/report.yaml", cfg.ReportPath)
	assert.Equal(t, "2025-01-13", cfg.Cutoff)
	assert.Equal(t, "first-wins", cfg.Strategy)
	assert.True(t, cfg.Backup)
	assert.InDelta(t, 0.25, cfg.EmptyIDThreshold, 1e-9)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epamerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("legacy_dir: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
