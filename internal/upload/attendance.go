package upload

import (
	"strings"

	"github.com/frahmantamala/school-core/internal/core/common/validation"
)

var AttendanceStatuses = []string{"present", "absent", "late", "excused"}

const maxRemarksLength = 500

// AttendanceValidator skips only rows that cannot form a record. A student
// code missing from the directory becomes a new student at commit.
type AttendanceValidator struct {
	students StudentDirectory
}

func NewAttendanceValidator(students StudentDirectory) *AttendanceValidator {
	if students == nil {
		students = StudentDirectory{}
	}
	return &AttendanceValidator{students: students}
}

func (v *AttendanceValidator) Domain() Domain {
	return DomainAttendance
}

func (v *AttendanceValidator) Validate(row Row, index int) Decision {
	check := validation.NewValidator()
	check.Field("student_id", row.Get("student_id")).Required().MaxLength(50)
	check.Field("student_name", row.Get("student_name")).Required().MaxLength(255)
	dateColumn := row.Pick("date", "attendance_date")
	check.Field(dateColumn, row.Get(dateColumn)).Required().Date()
	check.Field("status", row.Get("status")).Required().OneOf(AttendanceStatuses...)

	if fe, failed := check.First(); failed {
		return Decision{Kind: DecisionSkip, Reason: fe.Message, Column: fe.Field, RawValue: fe.Value}
	}

	date, _ := validation.ParseDate(row.Get(dateColumn))
	code := row.Get("student_id")

	return apply(&AttendanceRecord{
		StudentID:   v.students[code],
		StudentCode: code,
		StudentName: row.Get("student_name"),
		Date:        date,
		Status:      strings.ToLower(row.Get("status")),
		Remarks:     truncate(row.Get("remarks"), maxRemarksLength),
	})
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
