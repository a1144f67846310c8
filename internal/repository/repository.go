package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Student    StudentRepository
	Teacher    TeacherRepository
	Course     CourseRepository
	Enrollment EnrollmentRepository
	Grade      GradeRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Student:    NewStudentRepo(db),
		Teacher:    NewTeacherRepo(db),
		Course:     NewCourseRepo(db),
		Enrollment: NewEnrollmentRepo(db),
		Grade:      NewGradeRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn
// fn 收到的 tx 聚合内所有 Repository 共享同一事务；fn 返回错误时回滚。
// 未绑定数据库（单元测试中的内存实现）时直接执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
