// Package dataset reads and writes the integrated EPA dataset CSV.
// The column set is a fixed contract: the current system's 23 export
// headers plus the source tag appended during integration. Files are
// UTF-8 with BOM so spreadsheet tools open the Chinese headers
// correctly.
package dataset

import (
	"github.com/cbme/epamerge/pkg/epa"
)

// Header names of the integrated dataset.
const (
	ColProgram            = "臨床訓練計畫"
	ColCohort             = "組別"
	ColStage              = "階段/子階段"
	ColDepartment         = "訓練階段科部"
	ColPeriod             = "訓練階段期間"
	ColTrainee            = "學員"
	ColTraineeAccount     = "學員帳號"
	ColRoutingLog         = "表單簽核流程"
	ColDispatchDate       = "表單派送日期"
	ColDueDate            = "應完成日期"
	ColEventDate          = "日期"
	ColCategory           = "EPA項目"
	ColEvaluator          = "受評醫師"
	ColPatientID          = "病歷號碼"
	ColPatientName        = "個案姓名"
	ColDiagnosis          = "診斷"
	ColComplexity         = "複雜程度"
	ColSetting            = "觀察場域"
	ColSelfReliability    = "信賴程度(學員自評)"
	ColTeacherReliability = "信賴程度(教師評量)"
	ColTeacherFeedback    = "教師給學員回饋"
	ColTeacherSignature   = "教師簽名"
	ColCommitteeFeedback  = "教師給CCC回饋(僅CCC委員可讀，對學員隱藏)"
	ColSource             = "資料來源"
)

// ExportColumns is the canonical column order of a current-system
// export file.
var ExportColumns = []string{
	ColProgram,
	ColCohort,
	ColStage,
	ColDepartment,
	ColPeriod,
	ColTrainee,
	ColTraineeAccount,
	ColRoutingLog,
	ColDispatchDate,
	ColDueDate,
	ColEventDate,
	ColCategory,
	ColEvaluator,
	ColPatientID,
	ColPatientName,
	ColDiagnosis,
	ColComplexity,
	ColSetting,
	ColSelfReliability,
	ColTeacherReliability,
	ColTeacherFeedback,
	ColTeacherSignature,
	ColCommitteeFeedback,
}

// Columns is the canonical column order of the integrated dataset:
// the export columns plus the source tag.
var Columns = append(append([]string{}, ExportColumns...), ColSource)

// row flattens a record into the canonical column order.
func row(r epa.Record) []string {
	return []string{
		r.Program,
		r.Cohort,
		r.Stage,
		r.Department,
		r.Period,
		r.Trainee,
		r.TraineeAccount,
		r.RoutingLog,
		r.DispatchDate,
		r.DueDate,
		r.EventDate,
		r.Category,
		r.Evaluator,
		r.PatientID,
		r.PatientName,
		r.Diagnosis,
		string(r.Complexity),
		string(r.Setting),
		r.SelfReliability,
		r.TeacherReliability,
		r.TeacherFeedback,
		r.TeacherSignature,
		r.CommitteeFeedback,
		string(r.Source),
	}
}

// record rebuilds a record from one row using the file's own header
// index, so column order and extra columns in the file do not matter.
func record(index map[string]int, fields []string) epa.Record {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}
	return epa.Record{
		Program:            cell(ColProgram),
		Cohort:             cell(ColCohort),
		Stage:              cell(ColStage),
		Department:         cell(ColDepartment),
		Period:             cell(ColPeriod),
		Trainee:            cell(ColTrainee),
		TraineeAccount:     cell(ColTraineeAccount),
		RoutingLog:         cell(ColRoutingLog),
		DispatchDate:       cell(ColDispatchDate),
		DueDate:            cell(ColDueDate),
		EventDate:          cell(ColEventDate),
		Category:           cell(ColCategory),
		Evaluator:          cell(ColEvaluator),
		PatientID:          cell(ColPatientID),
		PatientName:        cell(ColPatientName),
		Diagnosis:          cell(ColDiagnosis),
		Complexity:         epa.Complexity(cell(ColComplexity)),
		Setting:            epa.Setting(cell(ColSetting)),
		SelfReliability:    cell(ColSelfReliability),
		TeacherReliability: cell(ColTeacherReliability),
		TeacherFeedback:    cell(ColTeacherFeedback),
		TeacherSignature:   cell(ColTeacherSignature),
		CommitteeFeedback:  cell(ColCommitteeFeedback),
		Source:             epa.Source(cell(ColSource)),
	}
}
