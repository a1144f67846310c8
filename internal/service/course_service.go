package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-records/internal/dto"
	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/internal/repository"
	apperrors "school-records/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = apperrors.New(apperrors.KindNotFound, "课程不存在")
	ErrCourseCodeExists = apperrors.New(apperrors.KindConflict, "课程代码已存在")
	ErrCourseDateRange  = apperrors.New(apperrors.KindInvalidInput, "课程结束日期不能早于开始日期")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityCourse, policy.ActionCreate, caller,
		policy.Target{TeacherID: req.TeacherID}); err != nil {
		return nil, err
	}

	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if time.Time(endDate).Before(time.Time(startDate)) {
		return nil, ErrCourseDateRange
	}

	course := &model.Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		CreditHours: req.CreditHours,
		MaxStudents: model.DefaultMaxStudents,
		TeacherID:   req.TeacherID,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      model.CourseStatusUpcoming,
	}
	if req.MaxStudents != nil {
		course.MaxStudents = *req.MaxStudents
	}
	if req.Status != "" {
		course.Status = req.Status
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityCourse, policy.ActionRead, caller,
		policy.Target{TeacherID: course.TeacherID}); err != nil {
		return nil, err
	}

	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, caller policy.Subject, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, 0, err
	}

	scope := policy.Scope(policy.EntityCourse, caller)
	if scope.None {
		return []dto.CourseResponse{}, 0, nil
	}

	teacherID := req.TeacherID
	if scope.TeacherID != "" {
		// 教师只能看到自己的课程，显式指定其他教师时结果为空
		if teacherID != "" && teacherID != scope.TeacherID {
			return []dto.CourseResponse{}, 0, nil
		}
		teacherID = scope.TeacherID
	}

	filters := &repository.CourseListFilters{TeacherID: teacherID, Status: req.Status}
	courses, total, err := s.repo.Course.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, dto.NewCourseResponse(&courses[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	target := policy.Target{TeacherID: course.TeacherID}
	if req.TeacherID != nil {
		target.RequestedTeacherID = *req.TeacherID
	}
	if err := policy.Authorize(policy.EntityCourse, policy.ActionUpdate, caller, target); err != nil {
		return nil, err
	}

	if req.TeacherID != nil && *req.TeacherID != course.TeacherID {
		if err := s.ensureTeacher(ctx, *req.TeacherID); err != nil {
			return nil, err
		}
		course.TeacherID = *req.TeacherID
		course.Teacher = nil
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.CreditHours != nil {
		course.CreditHours = *req.CreditHours
	}
	if req.MaxStudents != nil {
		course.MaxStudents = *req.MaxStudents
	}
	if req.StartDate != nil {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		course.StartDate = d
	}
	if req.EndDate != nil {
		d, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		course.EndDate = d
	}
	if time.Time(course.EndDate).Before(time.Time(course.StartDate)) {
		return nil, ErrCourseDateRange
	}
	if req.Status != nil {
		course.Status = *req.Status
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityCourse, policy.ActionDelete, caller,
		policy.Target{TeacherID: course.TeacherID}); err != nil {
		return err
	}

	if err := s.repo.Course.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) ensureTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return err
	}
	return nil
}
