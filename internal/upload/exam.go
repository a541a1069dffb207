package upload

import (
	"fmt"

	"github.com/frahmantamala/school-core/internal/core/common/validation"
)

// MaxMarks is the largest value the marks columns hold (NUMERIC(10, 2)).
const MaxMarks = 99999999.99

// ExamValidator rejects any row that is not exactly right. Nothing referenced
// by a row is created implicitly.
type ExamValidator struct {
	catalog ExamCatalog
}

func NewExamValidator(catalog ExamCatalog) *ExamValidator {
	return &ExamValidator{catalog: catalog}
}

func (v *ExamValidator) Domain() Domain {
	return DomainExam
}

func (v *ExamValidator) Validate(row Row, index int) Decision {
	check := validation.NewValidator()
	check.Field("student_id", row.Get("student_id")).Required()
	check.Field("exam_name", row.Get("exam_name")).Required()
	check.Field("subject", row.Get("subject")).Required()
	check.Field("max_marks", row.Get("max_marks")).Required().Number().Positive().MaxNumber(MaxMarks)
	check.Field("marks_obtained", row.Get("marks_obtained")).Required().Number().MinNumber(0).MaxNumber(MaxMarks)
	check.Field("exam_date", row.Get("exam_date")).Date()
	check.Field("grade", row.Get("grade")).MaxLength(10)

	if fe, failed := check.First(); failed {
		return reject(fe.Field, fe.Message, fe.Value)
	}

	maxMarks, _ := validation.ParseNumber(row.Get("max_marks"))
	marks, _ := validation.ParseNumber(row.Get("marks_obtained"))
	if marks > maxMarks {
		return reject("marks_obtained",
			fmt.Sprintf("marks_obtained (%s) exceeds max_marks (%s)",
				validation.FormatNumber(marks), validation.FormatNumber(maxMarks)),
			row.Get("marks_obtained"))
	}

	studentCode := row.Get("student_id")
	studentID, ok := v.catalog.Students[studentCode]
	if !ok {
		return reject("student_id", fmt.Sprintf("Student '%s' not found in this project", studentCode), studentCode)
	}

	examName := row.Get("exam_name")
	examID, ok := v.catalog.Exams[CatalogKey(examName)]
	if !ok {
		return reject("exam_name", fmt.Sprintf("Exam '%s' not found in this project", examName), examName)
	}

	subject := row.Get("subject")
	subjectID, ok := v.catalog.Subjects[CatalogKey(subject)]
	if !ok {
		return reject("subject", fmt.Sprintf("Subject '%s' not found in this project", subject), subject)
	}

	return apply(&ExamRecord{
		StudentID:     studentID,
		ExamID:        examID,
		SubjectID:     subjectID,
		MarksObtained: marks,
		MaxMarks:      maxMarks,
		Grade:         row.Get("grade"),
		Remarks:       truncate(row.Get("remarks"), maxRemarksLength),
	})
}

func reject(column, reason, raw string) Decision {
	return Decision{Kind: DecisionReject, Reason: reason, Column: column, RawValue: raw}
}
