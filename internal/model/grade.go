package model

import "gorm.io/datatypes"

// 成绩类型
const (
	GradeTypeExam          = "exam"
	GradeTypeQuiz          = "quiz"
	GradeTypeAssignment    = "assignment"
	GradeTypeProject       = "project"
	GradeTypeParticipation = "participation"
	GradeTypeFinal         = "final"
)

// Grade 成绩表 — 对应 grades，约束 0 <= score <= max_score
type Grade struct {
	BaseModel
	EnrollmentID string         `gorm:"type:uuid;not null;index"  json:"enrollment_id"`
	GradeType    string         `gorm:"type:varchar(20);not null" json:"grade_type"`
	Score        float64        `gorm:"not null"                  json:"score"`
	MaxScore     float64        `gorm:"not null"                  json:"max_score"`
	Weight       float64        `gorm:"not null;default:0"        json:"weight"`
	Comments     *string        `gorm:"type:text"                 json:"comments,omitempty"`
	GradeDate    datatypes.Date `gorm:"not null"                  json:"grade_date"`

	// 关联
	Enrollment *Enrollment `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
}

// TableName 指定表名
func (Grade) TableName() string { return "grades" }

// Percentage 百分制得分
func (g *Grade) Percentage() float64 {
	if g.MaxScore <= 0 {
		return 0
	}
	return g.Score / g.MaxScore * 100
}
