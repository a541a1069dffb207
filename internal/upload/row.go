package upload

import (
	"strings"
	"time"
)

// Row is one parsed sheet row keyed by normalized column name.
type Row map[string]string

// NormalizeRow lower-cases headers and turns spaces into underscores, so
// "Student ID" and "student_id" are the same column.
func NormalizeRow(raw map[string]string) Row {
	row := make(Row, len(raw))
	for k, v := range raw {
		row[NormalizeColumn(k)] = v
	}
	return row
}

func NormalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Pick returns the first of columns that the sheet has, or the first name
// when it has none of them.
func (r Row) Pick(columns ...string) string {
	for _, c := range columns {
		if _, ok := r[c]; ok {
			return c
		}
	}
	return columns[0]
}

type DecisionKind int

const (
	DecisionApply DecisionKind = iota
	DecisionSkip
	DecisionReject
)

// Decision is the verdict on one row. Exactly one of Attendance or Exam is set
// when Kind is DecisionApply.
type Decision struct {
	Kind       DecisionKind
	Reason     string
	Column     string
	RawValue   string
	Attendance *AttendanceRecord
	Exam       *ExamRecord
}

func apply(rec any) Decision {
	d := Decision{Kind: DecisionApply}
	switch r := rec.(type) {
	case *AttendanceRecord:
		d.Attendance = r
	case *ExamRecord:
		d.Exam = r
	}
	return d
}

// RowValidator is pure: it works from data fetched before validation and
// never returns an error for a bad row.
type RowValidator interface {
	Domain() Domain
	Validate(row Row, index int) Decision
}

// AttendanceRecord with StudentID 0 asks the store to create the student.
type AttendanceRecord struct {
	StudentID   int64
	StudentCode string
	StudentName string
	Date        time.Time
	Status      string
	Remarks     string
}

type ExamRecord struct {
	StudentID     int64
	ExamID        int64
	SubjectID     int64
	MarksObtained float64
	MaxMarks      float64
	Grade         string
	Remarks       string
}

// StudentDirectory maps student codes to ids within one project.
type StudentDirectory map[string]int64

// ExamCatalog is the set of known references for exam rows. Exam and subject
// names are matched case-insensitively.
type ExamCatalog struct {
	Students StudentDirectory
	Exams    map[string]int64
	Subjects map[string]int64
}

func CatalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
