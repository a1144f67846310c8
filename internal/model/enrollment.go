package model

import "gorm.io/datatypes"

// 选课状态
const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusDropped   = "dropped"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment 选课表 — 对应 enrollments，(student_id, course_id) 唯一
type Enrollment struct {
	BaseModel
	StudentID      string         `gorm:"type:uuid;not null;uniqueIndex:uk_enrollments_student_course,priority:1" json:"student_id"`
	CourseID       string         `gorm:"type:uuid;not null;uniqueIndex:uk_enrollments_student_course,priority:2" json:"course_id"`
	EnrollmentDate datatypes.Date `gorm:"not null"                                                                json:"enrollment_date"`
	Status         string         `gorm:"type:varchar(20);not null;default:'pending'"                             json:"status"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID"  json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// OccupiesSeat pending 与 active 计入课程容量
func (e *Enrollment) OccupiesSeat() bool {
	return e.Status == EnrollmentStatusPending || e.Status == EnrollmentStatusActive
}
