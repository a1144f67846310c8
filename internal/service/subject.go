package service

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/internal/repository"
)

// resolveSubject 按 user_id 补全调用方自己的学生 / 教师档案 ID
// 没有档案的调用方保持空 ID，由规则表拒绝涉及本人档案的操作
func resolveSubject(ctx context.Context, repo *repository.Repository, caller policy.Subject) (policy.Subject, error) {
	switch caller.Role {
	case model.RoleStudent:
		if caller.StudentID != "" || caller.UserID == "" {
			return caller, nil
		}
		student, err := repo.Student.GetByUserID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return caller, nil
			}
			return caller, err
		}
		caller.StudentID = student.ID

	case model.RoleTeacher:
		if caller.TeacherID != "" || caller.UserID == "" {
			return caller, nil
		}
		teacher, err := repo.Teacher.GetByUserID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return caller, nil
			}
			return caller, err
		}
		caller.TeacherID = teacher.ID
	}
	return caller, nil
}

// parseDate 解析请求中的 YYYY-MM-DD 日期
func parseDate(s string) (datatypes.Date, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return d, ErrInvalidDate
	}
	return d, nil
}
