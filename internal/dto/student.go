package dto

import "school-records/internal/model"

// ── 学生模块 DTO ──

// CreateStudentRequest 创建学生档案请求
type CreateStudentRequest struct {
	UserID         string  `json:"user_id"         binding:"required,uuid"`
	EnrollmentDate string  `json:"enrollment_date" binding:"required,datetime=2006-01-02"`
	GradeLevel     int     `json:"grade_level"     binding:"required,min=1,max=12"`
	ParentName     *string `json:"parent_name"     binding:"omitempty,max=200"`
	ParentEmail    *string `json:"parent_email"    binding:"omitempty,email"`
	ParentPhone    *string `json:"parent_phone"    binding:"omitempty,max=50"`
	Address        *string `json:"address"`
}

// UpdateStudentRequest 更新学生档案请求
type UpdateStudentRequest struct {
	EnrollmentDate *string `json:"enrollment_date" binding:"omitempty,datetime=2006-01-02"`
	GradeLevel     *int    `json:"grade_level"     binding:"omitempty,min=1,max=12"`
	ParentName     *string `json:"parent_name"     binding:"omitempty,max=200"`
	ParentEmail    *string `json:"parent_email"    binding:"omitempty,email"`
	ParentPhone    *string `json:"parent_phone"    binding:"omitempty,max=50"`
	Address        *string `json:"address"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	GradeLevel *int `form:"grade_level" binding:"omitempty,min=1,max=12"`
}

// StudentResponse 学生档案响应
type StudentResponse struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	EnrollmentDate string        `json:"enrollment_date"`
	GradeLevel     int           `json:"grade_level"`
	ParentName     *string       `json:"parent_name,omitempty"`
	ParentEmail    *string       `json:"parent_email,omitempty"`
	ParentPhone    *string       `json:"parent_phone,omitempty"`
	Address        *string       `json:"address,omitempty"`
	User           *UserResponse `json:"user,omitempty"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// NewStudentResponse 由模型构造响应
func NewStudentResponse(s *model.Student) StudentResponse {
	resp := StudentResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		EnrollmentDate: model.FormatDate(s.EnrollmentDate),
		GradeLevel:     s.GradeLevel,
		ParentName:     s.ParentName,
		ParentEmail:    s.ParentEmail,
		ParentPhone:    s.ParentPhone,
		Address:        s.Address,
		CreatedAt:      formatTime(s.CreatedAt),
		UpdatedAt:      formatTime(s.UpdatedAt),
	}
	if s.User != nil {
		u := NewUserResponse(s.User)
		resp.User = &u
	}
	return resp
}
