package model

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 用户表 — 对应 users
type User struct {
	BaseModel
	Email          string `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_email" json:"email"`
	FirstName      string `gorm:"type:varchar(100);not null"                            json:"first_name"`
	LastName       string `gorm:"type:varchar(100);not null"                            json:"last_name"`
	Role           string `gorm:"type:varchar(20);not null"                             json:"role"` // admin | teacher | student
	IsActive       bool   `gorm:"not null;default:true"                                 json:"is_active"`
	HashedPassword string `gorm:"column:hashed_password;type:varchar(255);not null"     json:"-"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 姓名
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}
