package dto

import (
	"time"

	"school-records/internal/model"
)

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户（自助注册）请求
type CreateUserRequest struct {
	Email     string `json:"email"      binding:"required,email,max=255"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name"  binding:"required,min=1,max=100"`
	Role      string `json:"role"       binding:"omitempty,oneof=admin teacher student"` // 默认 student
	Password  string `json:"password"   binding:"required,min=8,max=72"`
	IsActive  *bool  `json:"is_active"`
}

// UpdateUserRequest 更新用户请求（仅更新非空字段）
type UpdateUserRequest struct {
	Email     *string `json:"email"      binding:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,min=1,max=100"`
	Role      *string `json:"role"       binding:"omitempty,oneof=admin teacher student"`
	IsActive  *bool   `json:"is_active"`
	Password  *string `json:"password"   binding:"omitempty,min=8,max=72"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role     string `form:"role"      binding:"omitempty,oneof=admin teacher student"`
	IsActive *bool  `form:"is_active"`
}

// UserResponse 用户信息响应（不含密码哈希）
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewUserResponse 由模型构造响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
