package dto

import "school-records/internal/model"

// ── 教师模块 DTO ──

// CreateTeacherRequest 创建教师档案请求
type CreateTeacherRequest struct {
	UserID        string  `json:"user_id"       binding:"required,uuid"`
	HireDate      string  `json:"hire_date"     binding:"required,datetime=2006-01-02"`
	Department    *string `json:"department"    binding:"omitempty,max=100"`
	Qualification string  `json:"qualification" binding:"required,max=200"`
	PhoneNumber   *string `json:"phone_number"  binding:"omitempty,max=50"`
	Bio           *string `json:"bio"`
}

// UpdateTeacherRequest 更新教师档案请求
type UpdateTeacherRequest struct {
	HireDate      *string `json:"hire_date"     binding:"omitempty,datetime=2006-01-02"`
	Department    *string `json:"department"    binding:"omitempty,max=100"`
	Qualification *string `json:"qualification" binding:"omitempty,min=1,max=200"`
	PhoneNumber   *string `json:"phone_number"  binding:"omitempty,max=50"`
	Bio           *string `json:"bio"`
}

// TeacherListRequest 教师列表查询参数
type TeacherListRequest struct {
	PaginationRequest
	Department string `form:"department" binding:"omitempty,max=100"`
}

// TeacherResponse 教师档案响应
type TeacherResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	HireDate      string        `json:"hire_date"`
	Department    *string       `json:"department,omitempty"`
	Qualification string        `json:"qualification"`
	PhoneNumber   *string       `json:"phone_number,omitempty"`
	Bio           *string       `json:"bio,omitempty"`
	User          *UserResponse `json:"user,omitempty"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// NewTeacherResponse 由模型构造响应
func NewTeacherResponse(t *model.Teacher) TeacherResponse {
	resp := TeacherResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		HireDate:      model.FormatDate(t.HireDate),
		Department:    t.Department,
		Qualification: t.Qualification,
		PhoneNumber:   t.PhoneNumber,
		Bio:           t.Bio,
		CreatedAt:     formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
	}
	if t.User != nil {
		u := NewUserResponse(t.User)
		resp.User = &u
	}
	return resp
}
