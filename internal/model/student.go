package model

import "gorm.io/datatypes"

// Student 学生档案表 — 对应 students，与 users 一对一
type Student struct {
	BaseModel
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex:uk_students_user" json:"user_id"`
	EnrollmentDate datatypes.Date `gorm:"not null"                                        json:"enrollment_date"`
	GradeLevel     int            `gorm:"not null"                                        json:"grade_level"`
	ParentName     *string        `gorm:"type:varchar(200)"                               json:"parent_name,omitempty"`
	ParentEmail    *string        `gorm:"type:varchar(255)"                               json:"parent_email,omitempty"`
	ParentPhone    *string        `gorm:"type:varchar(50)"                                json:"parent_phone,omitempty"`
	Address        *string        `gorm:"type:text"                                       json:"address,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
