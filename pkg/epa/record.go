// Package epa defines the canonical evaluation record shared by every
// stage of the reconciliation pipeline. Both the legacy per-student
// exports and the current-system bulk export are normalized into
// Record values before any filtering or merging happens.
package epa

import (
	"strings"
)

// Source identifies which origin system produced a record. It is set
// exactly once at ingestion and never mutated after merge.
type Source string

// String returns the string representation of a source.
func (s Source) String() string {
	return string(s)
}

const (
	// SourceHistorical marks records converted from the legacy
	// per-student export format.
	SourceHistorical Source = "EMYWAY歷史資料"

	// SourceCurrent marks records from the live system's bulk export.
	// Current is authoritative on conflict.
	SourceCurrent Source = "現有系統"
)

// Record is one evaluation event in the canonical schema.
//
// SelfReliability and TeacherReliability hold the human-readable
// supervision labels, not numbers; the numeric ordinal is derived on
// demand through the vocabulary package so the original label stays
// available for audit.
type Record struct {
	Program            string // 臨床訓練計畫
	Cohort             string // 組別
	Stage              string // 階段/子階段
	Department         string // 訓練階段科部
	Period             string // 訓練階段期間
	Trainee            string // 學員 (required non-empty)
	TraineeAccount     string // 學員帳號
	RoutingLog         string // 表單簽核流程
	DispatchDate       string // 表單派送日期
	DueDate            string // 應完成日期
	EventDate          string // 日期 (primary temporal key)
	Category           string // EPA項目
	Evaluator          string // 受評醫師
	PatientID          string // 病歷號碼
	PatientName        string // 個案姓名
	Diagnosis          string // 診斷
	Complexity         Complexity
	Setting            Setting
	SelfReliability    string // 信賴程度(學員自評)
	TeacherReliability string // 信賴程度(教師評量)
	TeacherFeedback    string // 教師給學員回饋
	TeacherSignature   string // 教師簽名
	CommitteeFeedback  string // 教師給CCC回饋
	Source             Source
}

// NormalizePatientID strips the spurious trailing ".0" suffixes that
// numeric patient identifiers pick up in legacy spreadsheet exports.
// Interior dots are meaningful (IDs like "10.034") and stay intact.
// Applying it twice yields the same string as applying it once.
func NormalizePatientID(id string) string {
	id = strings.TrimSpace(id)
	for strings.HasSuffix(id, ".0") {
		id = strings.TrimSuffix(id, ".0")
	}
	return id
}

// mergeKeySep joins merge key components. None of the component fields
// may legally contain it because they come from delimited exports.
const mergeKeySep = "|"

// MergeKey returns the composite fingerprint identifying the
// real-world evaluation event this record describes. Two records with
// equal merge keys are duplicates across sources and must collapse to
// one output record.
func (r Record) MergeKey() string {
	return strings.Join([]string{
		r.EventDate,
		r.Category,
		NormalizePatientID(r.PatientID),
		r.PatientName,
		r.Diagnosis,
		r.Setting.String(),
	}, mergeKeySep)
}

// Fingerprint returns an identity over every field except Source, used
// to detect field-for-field duplicate rows within one input batch.
func (r Record) Fingerprint() string {
	return strings.Join([]string{
		r.Program, r.Cohort, r.Stage, r.Department, r.Period,
		r.Trainee, r.TraineeAccount, r.RoutingLog,
		r.DispatchDate, r.DueDate, r.EventDate,
		r.Category, r.Evaluator,
		r.PatientID, r.PatientName, r.Diagnosis,
		r.Complexity.String(), r.Setting.String(),
		r.SelfReliability, r.TeacherReliability,
		r.TeacherFeedback, r.TeacherSignature, r.CommitteeFeedback,
	}, mergeKeySep)
}
