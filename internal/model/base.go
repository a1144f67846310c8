package model

import (
	"time"

	"gorm.io/datatypes"
)

// BaseModel 通用主键与审计字段（所有业务模型嵌入）
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// DateLayout 日期字段统一格式
const DateLayout = "2006-01-02"

// NewDate 将 time.Time 截断为日期
func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// Today 当天日期（UTC）
func Today() datatypes.Date {
	return NewDate(time.Now().UTC())
}
