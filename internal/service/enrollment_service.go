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

// ── 选课模块业务错误 ──

var (
	ErrEnrollmentNotFound = apperrors.New(apperrors.KindNotFound, "选课记录不存在")
	ErrAlreadyEnrolled    = apperrors.New(apperrors.KindConflict, "该学生已选过此课程")
	ErrCourseFull         = apperrors.New(apperrors.KindConflict, "课程人数已满")
)

// EnrollmentService 选课业务接口
type EnrollmentService interface {
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.EnrollmentResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.EnrollmentListRequest) ([]dto.EnrollmentResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateEnrollmentRequest) (*dto.EnrollmentResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 选课
// 重复与容量检查在同一事务内完成，并以 FOR UPDATE 锁住课程行，
// 保证并发抢占最后一个名额时至多一个请求成功。
func (s *enrollmentService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	// 1. 学生与课程必须存在
	if _, err := s.repo.Student.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	// 2. 权限：学生只能为自己选课，且课程须为 active
	if err := policy.Authorize(policy.EntityEnrollment, policy.ActionCreate, caller,
		policy.Target{StudentID: req.StudentID, CourseStatus: course.Status}); err != nil {
		return nil, err
	}

	// 3. 组装记录
	enrollmentDate := model.Today()
	if req.EnrollmentDate != nil {
		if enrollmentDate, err = parseDate(*req.EnrollmentDate); err != nil {
			return nil, err
		}
	}
	status := model.EnrollmentStatusPending
	if req.Status != "" && !caller.IsStudent() {
		status = req.Status
	}
	enrollment := &model.Enrollment{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		EnrollmentDate: enrollmentDate,
		Status:         status,
	}

	// 4. 事务内重复与容量检查
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Course.GetByIDForUpdate(ctx, req.CourseID)
		if err != nil {
			return err
		}

		existing, err := tx.Enrollment.GetByStudentAndCourse(ctx, req.StudentID, req.CourseID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		if enrollment.OccupiesSeat() {
			if err := checkCapacity(ctx, tx, locked); err != nil {
				return err
			}
		}
		return tx.Enrollment.Create(ctx, enrollment)
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrAlreadyEnrolled
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCourseNotFound
		case apperrors.KindOf(err) != apperrors.KindInternal:
			return nil, err
		}
		s.logger.Error("创建选课失败",
			zap.String("student_id", req.StudentID),
			zap.String("course_id", req.CourseID),
			zap.Error(err))
		return nil, err
	}

	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *enrollmentService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.EnrollmentResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityEnrollment, policy.ActionRead, caller,
		policy.Target{StudentID: enrollment.StudentID}); err != nil {
		return nil, err
	}

	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *enrollmentService) List(ctx context.Context, caller policy.Subject, req *dto.EnrollmentListRequest) ([]dto.EnrollmentResponse, int64, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, 0, err
	}

	scope := policy.Scope(policy.EntityEnrollment, caller)
	if scope.None {
		return []dto.EnrollmentResponse{}, 0, nil
	}

	studentID := req.StudentID
	if scope.StudentID != "" {
		if studentID != "" && studentID != scope.StudentID {
			return []dto.EnrollmentResponse{}, 0, nil
		}
		studentID = scope.StudentID
	}

	filters := &repository.EnrollmentListFilters{
		StudentID: studentID,
		CourseID:  req.CourseID,
		Status:    req.Status,
	}
	enrollments, total, err := s.repo.Enrollment.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出选课失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, dto.NewEnrollmentResponse(&enrollments[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

// Update 修改选课状态
// 从不占名额的状态（dropped / completed）恢复为 pending / active 时重新检查容量
func (s *enrollmentService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	target := policy.Target{StudentID: enrollment.StudentID}
	if req.Status != nil {
		target.RequestedStatus = *req.Status
	}
	if err := policy.Authorize(policy.EntityEnrollment, policy.ActionUpdate, caller, target); err != nil {
		return nil, err
	}

	if req.Status == nil || *req.Status == enrollment.Status {
		resp := dto.NewEnrollmentResponse(enrollment)
		return &resp, nil
	}

	wasSeated := enrollment.OccupiesSeat()
	enrollment.Status = *req.Status
	enrollment.Course = nil

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if !wasSeated && enrollment.OccupiesSeat() {
			locked, err := tx.Course.GetByIDForUpdate(ctx, enrollment.CourseID)
			if err != nil {
				return err
			}
			if err := checkCapacity(ctx, tx, locked); err != nil {
				return err
			}
		}
		return tx.Enrollment.Update(ctx, enrollment)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindInternal {
			return nil, err
		}
		s.logger.Error("更新选课失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *enrollmentService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityEnrollment, policy.ActionDelete, caller,
		policy.Target{StudentID: enrollment.StudentID}); err != nil {
		return err
	}

	if err := s.repo.Enrollment.Delete(ctx, id); err != nil {
		s.logger.Error("删除选课失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *enrollmentService) getEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return enrollment, nil
}

// checkCapacity 已占名额（pending + active）达到上限时返回 ErrCourseFull
// 调用方须已在同一事务内锁住课程行
func checkCapacity(ctx context.Context, tx *repository.Repository, course *model.Course) error {
	taken, err := tx.Enrollment.CountSeatsTaken(ctx, course.ID)
	if err != nil {
		return err
	}
	if taken >= int64(course.MaxStudents) {
		return ErrCourseFull
	}
	return nil
}
