package dto

import "school-records/internal/model"

// ── 成绩模块 DTO ──

// CreateGradeRequest 录入成绩请求
// score 的上下限由 Service 层按 max_score 校验
type CreateGradeRequest struct {
	EnrollmentID string   `json:"enrollment_id" binding:"required,uuid"`
	GradeType    string   `json:"grade_type"    binding:"required,oneof=exam quiz assignment project participation final"`
	Score        *float64 `json:"score"         binding:"required"`
	MaxScore     float64  `json:"max_score"     binding:"required,gt=0"`
	Weight       float64  `json:"weight"        binding:"omitempty,min=0,max=1"`
	Comments     *string  `json:"comments"`
	GradeDate    *string  `json:"grade_date"    binding:"omitempty,datetime=2006-01-02"` // 默认当天
}

// UpdateGradeRequest 更新成绩请求
type UpdateGradeRequest struct {
	GradeType *string  `json:"grade_type" binding:"omitempty,oneof=exam quiz assignment project participation final"`
	Score     *float64 `json:"score"`
	MaxScore  *float64 `json:"max_score"  binding:"omitempty,gt=0"`
	Weight    *float64 `json:"weight"     binding:"omitempty,min=0,max=1"`
	Comments  *string  `json:"comments"`
	GradeDate *string  `json:"grade_date" binding:"omitempty,datetime=2006-01-02"`
}

// GradeListRequest 成绩列表查询参数
type GradeListRequest struct {
	PaginationRequest
	EnrollmentID string `form:"enrollment_id" binding:"omitempty,uuid"`
	GradeType    string `form:"grade_type"    binding:"omitempty,oneof=exam quiz assignment project participation final"`
}

// GradeResponse 成绩响应
type GradeResponse struct {
	ID           string  `json:"id"`
	EnrollmentID string  `json:"enrollment_id"`
	GradeType    string  `json:"grade_type"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	Weight       float64 `json:"weight"`
	Comments     *string `json:"comments,omitempty"`
	GradeDate    string  `json:"grade_date"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// NewGradeResponse 由模型构造响应
func NewGradeResponse(g *model.Grade) GradeResponse {
	return GradeResponse{
		ID:           g.ID,
		EnrollmentID: g.EnrollmentID,
		GradeType:    g.GradeType,
		Score:        g.Score,
		MaxScore:     g.MaxScore,
		Weight:       g.Weight,
		Comments:     g.Comments,
		GradeDate:    model.FormatDate(g.GradeDate),
		CreatedAt:    formatTime(g.CreatedAt),
		UpdatedAt:    formatTime(g.UpdatedAt),
	}
}
