package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school-records/internal/model"
)

// GradeListFilters 成绩列表过滤条件
type GradeListFilters struct {
	StudentID    string // 通过 enrollments 关联过滤
	EnrollmentID string
	GradeType    string
}

// GradeRepository 成绩数据访问接口
type GradeRepository interface {
	Create(ctx context.Context, grade *model.Grade) error
	// GetByID 查询成绩（预加载选课及课程，用于授课教师判定）
	GetByID(ctx context.Context, id string) (*model.Grade, error)
	Update(ctx context.Context, grade *model.Grade) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters *GradeListFilters, offset, limit int) ([]model.Grade, int64, error)
	// LatestByEnrollments 每个选课最近一次的成绩（grade_date 优先，其次 created_at）
	LatestByEnrollments(ctx context.Context, enrollmentIDs []string) (map[string]model.Grade, error)
}

type gradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo 创建 GradeRepository 实例
func NewGradeRepo(db *gorm.DB) GradeRepository {
	return &gradeRepo{db: db}
}

func (r *gradeRepo) Create(ctx context.Context, grade *model.Grade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(grade).Error
}

func (r *gradeRepo) GetByID(ctx context.Context, id string) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.WithContext(ctx).
		Preload("Enrollment.Course").
		Where("id = ?", id).
		First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeRepo) Update(ctx context.Context, grade *model.Grade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(grade).Error
}

func (r *gradeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Grade{}).Error
}

func (r *gradeRepo) List(ctx context.Context, filters *GradeListFilters, offset, limit int) ([]model.Grade, int64, error) {
	var grades []model.Grade
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Grade{})

	if filters != nil {
		if filters.StudentID != "" {
			db = db.Joins("JOIN enrollments ON enrollments.id = grades.enrollment_id").
				Where("enrollments.student_id = ?", filters.StudentID)
		}
		if filters.EnrollmentID != "" {
			db = db.Where("grades.enrollment_id = ?", filters.EnrollmentID)
		}
		if filters.GradeType != "" {
			db = db.Where("grades.grade_type = ?", filters.GradeType)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Select("grades.*").
		Offset(offset).Limit(limit).
		Order("grades.grade_date DESC, grades.created_at DESC").
		Find(&grades).Error; err != nil {
		return nil, 0, err
	}

	return grades, total, nil
}

func (r *gradeRepo) LatestByEnrollments(ctx context.Context, enrollmentIDs []string) (map[string]model.Grade, error) {
	result := make(map[string]model.Grade, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return result, nil
	}

	var grades []model.Grade
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (enrollment_id) *
			FROM grades
			WHERE enrollment_id IN ?
			ORDER BY enrollment_id, grade_date DESC, created_at DESC`, enrollmentIDs).
		Scan(&grades).Error
	if err != nil {
		return nil, err
	}

	for _, g := range grades {
		result[g.EnrollmentID] = g
	}
	return result, nil
}
