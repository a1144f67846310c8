package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-records/internal/model"
)

// EnrollmentListFilters 选课列表过滤条件
type EnrollmentListFilters struct {
	StudentID string
	CourseID  string
	Status    string
}

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	// GetByID 查询选课记录（预加载课程，用于授课教师判定）
	GetByID(ctx context.Context, id string) (*model.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	// CountSeatsTaken 统计课程中 pending + active 的选课数
	CountSeatsTaken(ctx context.Context, courseID string) (int64, error)
	Update(ctx context.Context, enrollment *model.Enrollment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters *EnrollmentListFilters, offset, limit int) ([]model.Enrollment, int64, error)
	// ListByStudentWithCourse 学生全部选课（含课程），按选课日期与 ID 排序
	ListByStudentWithCourse(ctx context.Context, studentID string) ([]model.Enrollment, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) CountSeatsTaken(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID,
			[]string{model.EnrollmentStatusPending, model.EnrollmentStatusActive}).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(enrollment).Error
}

func (r *enrollmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Enrollment{}).Error
}

func (r *enrollmentRepo) List(ctx context.Context, filters *EnrollmentListFilters, offset, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Enrollment{})

	if filters != nil {
		if filters.StudentID != "" {
			db = db.Where("student_id = ?", filters.StudentID)
		}
		if filters.CourseID != "" {
			db = db.Where("course_id = ?", filters.CourseID)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("enrollment_date DESC, id ASC").
		Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

func (r *enrollmentRepo) ListByStudentWithCourse(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrollment_date ASC, id ASC").
		Find(&enrollments).Error
	return enrollments, err
}
