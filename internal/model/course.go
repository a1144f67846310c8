package model

import "gorm.io/datatypes"

// 课程状态
const (
	CourseStatusUpcoming = "upcoming"
	CourseStatusActive   = "active"
	CourseStatusArchived = "archived"
)

// DefaultMaxStudents 课程默认容量
const DefaultMaxStudents = 30

// Course 课程表 — 对应 courses
type Course struct {
	BaseModel
	Code        string         `gorm:"type:varchar(50);not null;uniqueIndex:uk_courses_code" json:"code"`
	Name        string         `gorm:"type:varchar(200);not null"                            json:"name"`
	Description *string        `gorm:"type:text"                                             json:"description,omitempty"`
	CreditHours int            `gorm:"not null"                                              json:"credit_hours"`
	MaxStudents int            `gorm:"not null;default:30"                                   json:"max_students"`
	TeacherID   string         `gorm:"type:uuid;not null;index"                              json:"teacher_id"`
	StartDate   datatypes.Date `gorm:"not null"                                              json:"start_date"`
	EndDate     datatypes.Date `gorm:"not null"                                              json:"end_date"`
	Status      string         `gorm:"type:varchar(20);not null;default:'upcoming'"          json:"status"` // upcoming | active | archived

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
