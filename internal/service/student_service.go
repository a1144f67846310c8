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

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound      = apperrors.New(apperrors.KindNotFound, "学生不存在")
	ErrStudentProfileExists = apperrors.New(apperrors.KindConflict, "该用户已有学生档案")
	ErrInvalidDate          = apperrors.New(apperrors.KindInvalidInput, "日期格式应为 YYYY-MM-DD")
)

// StudentService 学生档案业务接口
type StudentService interface {
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if err := policy.Authorize(policy.EntityStudent, policy.ActionCreate, caller, policy.Target{}); err != nil {
		return nil, err
	}

	enrollmentDate, err := parseDate(req.EnrollmentDate)
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

	student := &model.Student{
		UserID:         user.ID,
		EnrollmentDate: enrollmentDate,
		GradeLevel:     req.GradeLevel,
		ParentName:     req.ParentName,
		ParentEmail:    req.ParentEmail,
		ParentPhone:    req.ParentPhone,
		Address:        req.Address,
	}

	// 一个用户至多一份学生档案：事务内检查，唯一索引兜底
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Student.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrStudentProfileExists
		}
		return tx.Student.Create(ctx, student)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrStudentProfileExists) {
			return nil, ErrStudentProfileExists
		}
		s.logger.Error("创建学生档案失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	student.User = user
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.StudentResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityStudent, policy.ActionRead, caller,
		policy.Target{StudentID: student.ID, UserID: student.UserID}); err != nil {
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, caller policy.Subject, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, 0, err
	}

	scope := policy.Scope(policy.EntityStudent, caller)
	if scope.None {
		return []dto.StudentResponse{}, 0, nil
	}

	filters := &repository.StudentListFilters{
		StudentID:  scope.StudentID,
		GradeLevel: req.GradeLevel,
	}
	students, total, err := s.repo.Student.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, dto.NewStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityStudent, policy.ActionUpdate, caller,
		policy.Target{StudentID: student.ID, UserID: student.UserID}); err != nil {
		return nil, err
	}

	if req.EnrollmentDate != nil {
		d, err := parseDate(*req.EnrollmentDate)
		if err != nil {
			return nil, err
		}
		student.EnrollmentDate = d
	}
	if req.GradeLevel != nil {
		student.GradeLevel = *req.GradeLevel
	}
	if req.ParentName != nil {
		student.ParentName = req.ParentName
	}
	if req.ParentEmail != nil {
		student.ParentEmail = req.ParentEmail
	}
	if req.ParentPhone != nil {
		student.ParentPhone = req.ParentPhone
	}
	if req.Address != nil {
		student.Address = req.Address
	}

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityStudent, policy.ActionDelete, caller,
		policy.Target{StudentID: student.ID, UserID: student.UserID}); err != nil {
		return err
	}

	if err := s.repo.Student.Delete(ctx, id); err != nil {
		s.logger.Error("删除学生档案失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *studentService) getStudent(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}
