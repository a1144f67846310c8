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

// ── 教师模块业务错误 ──

var (
	ErrTeacherNotFound      = apperrors.New(apperrors.KindNotFound, "教师不存在")
	ErrTeacherProfileExists = apperrors.New(apperrors.KindConflict, "该用户已有教师档案")
	ErrTeacherHasCourses    = apperrors.New(apperrors.KindConflict, "该教师仍有负责的课程，请先转交或删除课程")
)

// TeacherService 教师档案业务接口
type TeacherService interface {
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateTeacherRequest) (*dto.TeacherResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.TeacherResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.TeacherListRequest) ([]dto.TeacherResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateTeacherRequest) (*dto.TeacherResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type teacherService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, logger *zap.Logger) TeacherService {
	return &teacherService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *teacherService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateTeacherRequest) (*dto.TeacherResponse, error) {
	if err := policy.Authorize(policy.EntityTeacher, policy.ActionCreate, caller, policy.Target{}); err != nil {
		return nil, err
	}

	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	teacher := &model.Teacher{
		UserID:        user.ID,
		HireDate:      hireDate,
		Department:    req.Department,
		Qualification: req.Qualification,
		PhoneNumber:   req.PhoneNumber,
		Bio:           req.Bio,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Teacher.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrTeacherProfileExists
		}
		return tx.Teacher.Create(ctx, teacher)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrTeacherProfileExists) {
			return nil, ErrTeacherProfileExists
		}
		s.logger.Error("创建教师档案失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	teacher.User = user
	resp := dto.NewTeacherResponse(teacher)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *teacherService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.TeacherResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	teacher, err := s.getTeacher(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityTeacher, policy.ActionRead, caller,
		policy.Target{TeacherID: teacher.ID, UserID: teacher.UserID}); err != nil {
		return nil, err
	}

	resp := dto.NewTeacherResponse(teacher)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *teacherService) List(ctx context.Context, caller policy.Subject, req *dto.TeacherListRequest) ([]dto.TeacherResponse, int64, error) {
	if policy.Scope(policy.EntityTeacher, caller).None {
		return []dto.TeacherResponse{}, 0, nil
	}

	filters := &repository.TeacherListFilters{Department: req.Department}
	teachers, total, err := s.repo.Teacher.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出教师失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		result = append(result, dto.NewTeacherResponse(&teachers[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *teacherService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateTeacherRequest) (*dto.TeacherResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	teacher, err := s.getTeacher(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityTeacher, policy.ActionUpdate, caller,
		policy.Target{TeacherID: teacher.ID, UserID: teacher.UserID}); err != nil {
		return nil, err
	}

	if req.HireDate != nil {
		d, err := parseDate(*req.HireDate)
		if err != nil {
			return nil, err
		}
		teacher.HireDate = d
	}
	if req.Department != nil {
		teacher.Department = req.Department
	}
	if req.Qualification != nil {
		teacher.Qualification = *req.Qualification
	}
	if req.PhoneNumber != nil {
		teacher.PhoneNumber = req.PhoneNumber
	}
	if req.Bio != nil {
		teacher.Bio = req.Bio
	}

	if err := s.repo.Teacher.Update(ctx, teacher); err != nil {
		s.logger.Error("更新教师档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewTeacherResponse(teacher)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *teacherService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	teacher, err := s.getTeacher(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityTeacher, policy.ActionDelete, caller,
		policy.Target{TeacherID: teacher.ID, UserID: teacher.UserID}); err != nil {
		return err
	}

	if err := s.repo.Teacher.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrTeacherHasCourses
		}
		s.logger.Error("删除教师档案失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *teacherService) getTeacher(ctx context.Context, id string) (*model.Teacher, error) {
	teacher, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return teacher, nil
}
