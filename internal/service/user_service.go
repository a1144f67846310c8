package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-records/internal/dto"
	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/internal/repository"
	apperrors "school-records/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound = apperrors.New(apperrors.KindNotFound, "用户不存在")
	ErrEmailExists  = apperrors.New(apperrors.KindConflict, "邮箱已被注册")
)

// UserService 用户业务接口
type UserService interface {
	// Create 自助注册；创建管理员账号需要管理员身份
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.UserResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	if err := policy.Authorize(policy.EntityUser, policy.ActionCreate, caller,
		policy.Target{RequestedRole: role}); err != nil {
		return nil, err
	}

	// 检查邮箱唯一性
	existing, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
		IsActive:       true,
		HashedPassword: hash,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityUser, policy.ActionRead, caller,
		policy.Target{UserID: user.ID}); err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, caller policy.Subject, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	scope := policy.Scope(policy.EntityUser, caller)
	if scope.None {
		return []dto.UserResponse{}, 0, nil
	}

	filters := &repository.UserListFilters{
		UserID:   scope.UserID,
		Role:     req.Role,
		IsActive: req.IsActive,
	}
	users, total, err := s.repo.User.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, dto.NewUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	target := policy.Target{UserID: user.ID}
	if req.Role != nil {
		target.RequestedRole = *req.Role
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		target.ChangesActivation = true
	}
	if err := policy.Authorize(policy.EntityUser, policy.ActionUpdate, caller, target); err != nil {
		return nil, err
	}

	// 如果更新邮箱，检查唯一性
	if req.Email != nil && *req.Email != user.Email {
		existing, err := s.repo.User.GetByEmail(ctx, *req.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailExists
		}
		user.Email = *req.Email
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		user.HashedPassword = hash
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityUser, policy.ActionDelete, caller,
		policy.Target{UserID: user.ID}); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		// 用户级联删除教师档案，档案仍被课程引用时被外键拒绝
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrTeacherHasCourses
		}
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}
