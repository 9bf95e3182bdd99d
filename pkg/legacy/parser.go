// Package legacy converts the historical per-student EPA export tree
// into canonical records. The export format is one directory per
// trainee (name embedded in the directory name) holding one delimited
// file per EPA category, with a free-text routing/signature cell in
// the first column.
package legacy

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/errors"
	"github.com/cbme/epamerge/pkg/logging"
	"github.com/cbme/epamerge/pkg/vocabulary"
)

// Training-plan constants for records recovered from the legacy
// system. The legacy export carries none of these fields itself.
const (
	legacyProgram    = "2024家庭醫學專科醫師EPA訓練計畫"
	legacyDepartment = "家庭暨社區醫學部"
	legacyPeriod     = "2024-01-01 ~ 2024-12-31"
)

// residualHeader is the first cell of header rows that leak into the
// data region of legacy exports.
const residualHeader = "表單簽核流程"

// Positional column layout of a legacy export row. Missing trailing
// columns default to empty, never error.
const (
	colRouting = iota
	colDate
	colCategory
	colPatientID
	colPatientName
	colDiagnosis
	colSelfScore
	colTeacherScore
	colTeacherFeedback
	colCommitteeFeedback
)

// ParseDir walks one level of trainee directories under root and
// parses every EPA export file found. The trainee's display name is
// taken from the directory name, never from file content, because
// file-internal signature text may be stale or partially filled.
//
// A malformed file is skipped with its path logged; only an unreadable
// root is fatal.
func ParseDir(ctx context.Context, root string) ([]epa.Record, error) {
	logger := logging.FromContext(ctx)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.WrapIO("read", root, err)
	}

	var records []epa.Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		trainee := TraineeFromFolder(entry.Name())
		if trainee == "" {
			logger.Warn().
				Str("folder", entry.Name()).
				Msg("Skipping folder without a trainee name suffix")
			continue
		}

		files, err := filepath.Glob(filepath.Join(root, entry.Name(), "EPA*.csv"))
		if err != nil {
			return nil, errors.WrapIO("glob", entry.Name(), err)
		}
		sort.Strings(files)

		traineeCtx := logging.WithField(ctx, "trainee", trainee)
		for _, file := range files {
			token, ok := epa.CategoryToken(filepath.Base(file))
			if !ok {
				continue
			}
			parsed, err := ParseFile(traineeCtx, file, token, trainee)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("file", file).
					Msg("Skipping malformed legacy export file")
				continue
			}
			records = append(records, parsed...)
		}
	}

	logger.Info().
		Str("root", root).
		Int("records", len(records)).
		Msg("Parsed legacy export tree")

	return records, nil
}

// TraineeFromFolder extracts the trainee display name from a legacy
// export directory name: the segment after the last underscore,
// trimmed to its final three runes (the folder convention embeds the
// name as a suffix).
func TraineeFromFolder(folder string) string {
	idx := strings.LastIndex(folder, "_")
	if idx < 0 || idx == len(folder)-1 {
		return ""
	}
	name := []rune(folder[idx+1:])
	if len(name) > 3 {
		name = name[len(name)-3:]
	}
	return string(name)
}

// ParseFile converts one legacy export file into canonical records.
// category is the EPA token recovered from the file name; trainee is
// the externally supplied display name, which always overrides any
// name parsed from the routing cell.
func ParseFile(ctx context.Context, path, category, trainee string) ([]epa.Record, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	// Legacy exports are written UTF-8 with BOM for spreadsheet
	// compatibility; strip it before parsing.
	reader := csv.NewReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1

	var records []epa.Record
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().
				Err(err).
				Str("file", path).
				Int("row", row).
				Msg("Skipping malformed legacy export row")
			continue
		}
		rec, ok := convertRow(fields, category, trainee)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// convertRow maps one positional legacy row to a canonical record. It
// reports false for residual header rows and rows with no content.
func convertRow(fields []string, category, trainee string) (epa.Record, bool) {
	if len(fields) == 0 || strings.TrimSpace(field(fields, colRouting)) == residualHeader {
		return epa.Record{}, false
	}

	routing := field(fields, colRouting)
	date := strings.TrimSpace(field(fields, colDate))
	if routing == "" && date == "" {
		return epa.Record{}, false
	}

	_, account, teacher := ParseRoutingLog(routing)

	categoryName := epa.CategoryName(category)
	if cell := strings.TrimSpace(field(fields, colCategory)); cell != "" {
		categoryName = epa.CategoryName(cell)
	}

	diagnosis := strings.TrimSpace(field(fields, colDiagnosis))

	return epa.Record{
		Program:            legacyProgram,
		Department:         legacyDepartment,
		Period:             legacyPeriod,
		Trainee:            trainee,
		TraineeAccount:     account,
		RoutingLog:         routing,
		DispatchDate:       date,
		DueDate:            date,
		EventDate:          date,
		Category:           categoryName,
		Evaluator:          trainee,
		PatientID:          strings.TrimSpace(field(fields, colPatientID)),
		PatientName:        strings.TrimSpace(field(fields, colPatientName)),
		Diagnosis:          diagnosis,
		Complexity:         epa.ComplexityForDiagnosis(diagnosis),
		Setting:            epa.SettingForCategory(category),
		SelfReliability:    scoreLabel(field(fields, colSelfScore)),
		TeacherReliability: scoreLabel(field(fields, colTeacherScore)),
		TeacherFeedback:    strings.TrimSpace(field(fields, colTeacherFeedback)),
		TeacherSignature:   teacher,
		CommitteeFeedback:  strings.TrimSpace(field(fields, colCommitteeFeedback)),
		Source:             epa.SourceHistorical,
	}, true
}

// field returns the column at index i, or empty when the row is short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// scoreLabel converts a legacy score cell to the canonical
// human-readable label. Bare numeric scores become their canonical
// description; unrecognized text is kept verbatim so the original
// spelling survives for audit. "X" marks an unscored activity.
func scoreLabel(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "X" {
		return ""
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		if label, ok := vocabulary.Label(float64(int(v))); ok {
			return label
		}
		return strconv.Itoa(int(v))
	}
	return cell
}
