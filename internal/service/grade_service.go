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

// ── 成绩模块业务错误 ──

var (
	ErrGradeNotFound       = apperrors.New(apperrors.KindNotFound, "成绩记录不存在")
	ErrScoreOutOfRange     = apperrors.New(apperrors.KindInvalidInput, "分数必须在 0 与满分之间")
	ErrEnrollmentNotActive = apperrors.New(apperrors.KindUnprocessable, "只能为进行中的选课录入成绩")
)

// GradeService 成绩业务接口
type GradeService interface {
	Create(ctx context.Context, caller policy.Subject, req *dto.CreateGradeRequest) (*dto.GradeResponse, error)
	GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.GradeResponse, error)
	List(ctx context.Context, caller policy.Subject, req *dto.GradeListRequest) ([]dto.GradeResponse, int64, error)
	Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateGradeRequest) (*dto.GradeResponse, error)
	Delete(ctx context.Context, caller policy.Subject, id string) error
}

type gradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *gradeService) Create(ctx context.Context, caller policy.Subject, req *dto.CreateGradeRequest) (*dto.GradeResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	enrollment, course, err := s.loadEnrollment(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityGrade, policy.ActionCreate, caller,
		policy.Target{StudentID: enrollment.StudentID, TeacherID: course.TeacherID}); err != nil {
		return nil, err
	}

	if err := validateScore(*req.Score, req.MaxScore); err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil, ErrEnrollmentNotActive
	}

	gradeDate := model.Today()
	if req.GradeDate != nil {
		if gradeDate, err = parseDate(*req.GradeDate); err != nil {
			return nil, err
		}
	}

	grade := &model.Grade{
		EnrollmentID: enrollment.ID,
		GradeType:    req.GradeType,
		Score:        *req.Score,
		MaxScore:     req.MaxScore,
		Weight:       req.Weight,
		Comments:     req.Comments,
		GradeDate:    gradeDate,
	}
	if err := s.repo.Grade.Create(ctx, grade); err != nil {
		s.logger.Error("录入成绩失败", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		return nil, err
	}

	resp := dto.NewGradeResponse(grade)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *gradeService) GetByID(ctx context.Context, caller policy.Subject, id string) (*dto.GradeResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	grade, enrollment, _, err := s.getGrade(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityGrade, policy.ActionRead, caller,
		policy.Target{StudentID: enrollment.StudentID}); err != nil {
		return nil, err
	}

	resp := dto.NewGradeResponse(grade)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *gradeService) List(ctx context.Context, caller policy.Subject, req *dto.GradeListRequest) ([]dto.GradeResponse, int64, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, 0, err
	}

	scope := policy.Scope(policy.EntityGrade, caller)
	if scope.None {
		return []dto.GradeResponse{}, 0, nil
	}

	filters := &repository.GradeListFilters{
		StudentID:    scope.StudentID,
		EnrollmentID: req.EnrollmentID,
		GradeType:    req.GradeType,
	}
	grades, total, err := s.repo.Grade.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出成绩失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.GradeResponse, 0, len(grades))
	for i := range grades {
		result = append(result, dto.NewGradeResponse(&grades[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *gradeService) Update(ctx context.Context, caller policy.Subject, id string, req *dto.UpdateGradeRequest) (*dto.GradeResponse, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	grade, enrollment, course, err := s.getGrade(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(policy.EntityGrade, policy.ActionUpdate, caller,
		policy.Target{StudentID: enrollment.StudentID, TeacherID: course.TeacherID}); err != nil {
		return nil, err
	}

	score, maxScore := grade.Score, grade.MaxScore
	if req.Score != nil {
		score = *req.Score
	}
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	if err := validateScore(score, maxScore); err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil, ErrEnrollmentNotActive
	}

	grade.Score, grade.MaxScore = score, maxScore
	if req.GradeType != nil {
		grade.GradeType = *req.GradeType
	}
	if req.Weight != nil {
		grade.Weight = *req.Weight
	}
	if req.Comments != nil {
		grade.Comments = req.Comments
	}
	if req.GradeDate != nil {
		d, err := parseDate(*req.GradeDate)
		if err != nil {
			return nil, err
		}
		grade.GradeDate = d
	}
	grade.Enrollment = nil

	if err := s.repo.Grade.Update(ctx, grade); err != nil {
		s.logger.Error("更新成绩失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewGradeResponse(grade)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *gradeService) Delete(ctx context.Context, caller policy.Subject, id string) error {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return err
	}

	_, enrollment, course, err := s.getGrade(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(policy.EntityGrade, policy.ActionDelete, caller,
		policy.Target{StudentID: enrollment.StudentID, TeacherID: course.TeacherID}); err != nil {
		return err
	}

	if err := s.repo.Grade.Delete(ctx, id); err != nil {
		s.logger.Error("删除成绩失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// validateScore 0 <= score <= maxScore，两端均可取到
func validateScore(score, maxScore float64) error {
	if maxScore <= 0 || score < 0 || score > maxScore {
		return ErrScoreOutOfRange
	}
	return nil
}

// loadEnrollment 加载选课及其课程
func (s *gradeService) loadEnrollment(ctx context.Context, id string) (*model.Enrollment, *model.Course, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课失败", zap.String("enrollment_id", id), zap.Error(err))
		return nil, nil, err
	}

	course := enrollment.Course
	if course == nil {
		course, err = s.repo.Course.GetByID(ctx, enrollment.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrCourseNotFound
			}
			s.logger.Error("查询课程失败", zap.String("course_id", enrollment.CourseID), zap.Error(err))
			return nil, nil, err
		}
	}
	return enrollment, course, nil
}

// getGrade 加载成绩及其所属选课与课程
func (s *gradeService) getGrade(ctx context.Context, id string) (*model.Grade, *model.Enrollment, *model.Course, error) {
	grade, err := s.repo.Grade.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrGradeNotFound
		}
		s.logger.Error("查询成绩失败", zap.String("id", id), zap.Error(err))
		return nil, nil, nil, err
	}

	if grade.Enrollment != nil && grade.Enrollment.Course != nil {
		return grade, grade.Enrollment, grade.Enrollment.Course, nil
	}
	enrollment, course, err := s.loadEnrollment(ctx, grade.EnrollmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return grade, enrollment, course, nil
}
