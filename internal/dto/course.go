package dto

import "school-records/internal/model"

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code        string  `json:"code"         binding:"required,min=1,max=50"`
	Name        string  `json:"name"         binding:"required,min=1,max=200"`
	Description *string `json:"description"`
	CreditHours int     `json:"credit_hours" binding:"required,min=1,max=10"`
	MaxStudents *int    `json:"max_students" binding:"omitempty,min=1"` // 默认 30
	TeacherID   string  `json:"teacher_id"   binding:"required,uuid"`
	StartDate   string  `json:"start_date"   binding:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date"     binding:"required,datetime=2006-01-02"`
	Status      string  `json:"status"       binding:"omitempty,oneof=upcoming active archived"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	CreditHours *int    `json:"credit_hours" binding:"omitempty,min=1,max=10"`
	MaxStudents *int    `json:"max_students" binding:"omitempty,min=1"`
	TeacherID   *string `json:"teacher_id"   binding:"omitempty,uuid"`
	StartDate   *string `json:"start_date"   binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date"     binding:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status"       binding:"omitempty,oneof=upcoming active archived"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	PaginationRequest
	Status    string `form:"status"     binding:"omitempty,oneof=upcoming active archived"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
}

// CourseResponse 课程响应
type CourseResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreditHours int     `json:"credit_hours"`
	MaxStudents int     `json:"max_students"`
	TeacherID   string  `json:"teacher_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// NewCourseResponse 由模型构造响应
func NewCourseResponse(c *model.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		CreditHours: c.CreditHours,
		MaxStudents: c.MaxStudents,
		TeacherID:   c.TeacherID,
		StartDate:   model.FormatDate(c.StartDate),
		EndDate:     model.FormatDate(c.EndDate),
		Status:      c.Status,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}
