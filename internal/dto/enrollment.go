package dto

import "school-records/internal/model"

// ── 选课模块 DTO ──

// CreateEnrollmentRequest 创建选课请求
type CreateEnrollmentRequest struct {
	StudentID      string  `json:"student_id"      binding:"required,uuid"`
	CourseID       string  `json:"course_id"       binding:"required,uuid"`
	EnrollmentDate *string `json:"enrollment_date" binding:"omitempty,datetime=2006-01-02"` // 默认当天
	Status         string  `json:"status"          binding:"omitempty,oneof=pending active dropped completed"`
}

// UpdateEnrollmentRequest 更新选课请求
type UpdateEnrollmentRequest struct {
	Status *string `json:"status" binding:"omitempty,oneof=pending active dropped completed"`
}

// EnrollmentListRequest 选课列表查询参数
type EnrollmentListRequest struct {
	PaginationRequest
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	CourseID  string `form:"course_id"  binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=pending active dropped completed"`
}

// EnrollmentResponse 选课响应
type EnrollmentResponse struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	CourseID       string `json:"course_id"`
	EnrollmentDate string `json:"enrollment_date"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// NewEnrollmentResponse 由模型构造响应
func NewEnrollmentResponse(e *model.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             e.ID,
		StudentID:      e.StudentID,
		CourseID:       e.CourseID,
		EnrollmentDate: model.FormatDate(e.EnrollmentDate),
		Status:         e.Status,
		CreatedAt:      formatTime(e.CreatedAt),
		UpdatedAt:      formatTime(e.UpdatedAt),
	}
}
