package model

import "gorm.io/datatypes"

// Teacher 教师档案表 — 对应 teachers，与 users 一对一
type Teacher struct {
	BaseModel
	UserID        string         `gorm:"type:uuid;not null;uniqueIndex:uk_teachers_user" json:"user_id"`
	HireDate      datatypes.Date `gorm:"not null"                                        json:"hire_date"`
	Department    *string        `gorm:"type:varchar(100)"                               json:"department,omitempty"`
	Qualification string         `gorm:"type:varchar(200);not null"                      json:"qualification"`
	PhoneNumber   *string        `gorm:"type:varchar(50)"                                json:"phone_number,omitempty"`
	Bio           *string        `gorm:"type:text"                                       json:"bio,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
