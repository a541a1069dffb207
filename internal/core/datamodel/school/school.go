package school

import "time"

type Student struct {
	ID          int64     `gorm:"primaryKey"`
	ProjectID   int64     `gorm:"column:project_id;not null;uniqueIndex:idx_students_project_code"`
	StudentCode string    `gorm:"column:student_code;not null;uniqueIndex:idx_students_project_code"`
	Name        string    `gorm:"column:name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Student) TableName() string {
	return "students"
}

type Subject struct {
	ID        int64     `gorm:"primaryKey"`
	ProjectID int64     `gorm:"column:project_id;not null;uniqueIndex:idx_subjects_project_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_subjects_project_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Subject) TableName() string {
	return "subjects"
}

type Exam struct {
	ID        int64      `gorm:"primaryKey"`
	ProjectID int64      `gorm:"column:project_id;not null;uniqueIndex:idx_exams_project_name"`
	Name      string     `gorm:"column:name;not null;uniqueIndex:idx_exams_project_name"`
	ExamDate  *time.Time `gorm:"column:exam_date"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Exam) TableName() string {
	return "exams"
}

type AttendanceRecord struct {
	ID             int64     `gorm:"primaryKey"`
	ProjectID      int64     `gorm:"column:project_id;not null;index"`
	UploadID       int64     `gorm:"column:upload_id;not null;index"`
	StudentID      int64     `gorm:"column:student_id;not null"`
	AttendanceDate time.Time `gorm:"column:attendance_date;not null"`
	Status         string    `gorm:"column:status;not null"`
	Remarks        string    `gorm:"column:remarks"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

type ExamRecord struct {
	ID            int64     `gorm:"primaryKey"`
	ProjectID     int64     `gorm:"column:project_id;not null;index"`
	UploadID      int64     `gorm:"column:upload_id;not null;index"`
	StudentID     int64     `gorm:"column:student_id;not null"`
	ExamID        int64     `gorm:"column:exam_id;not null"`
	SubjectID     int64     `gorm:"column:subject_id;not null"`
	MarksObtained float64   `gorm:"column:marks_obtained;not null"`
	MaxMarks      float64   `gorm:"column:max_marks;not null"`
	Grade         string    `gorm:"column:grade"`
	Remarks       string    `gorm:"column:remarks"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ExamRecord) TableName() string {
	return "exam_records"
}
