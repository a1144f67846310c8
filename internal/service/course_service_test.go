package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"school-records/internal/dto"
	"school-records/internal/model"
	"school-records/internal/policy"
	apperrors "school-records/pkg/errors"
)

func setupTestCourseService() (CourseService, *mockRepos) {
	repo, m := newMockRepository()
	return NewCourseService(repo, zap.NewNop()), m
}

func courseReq(code, teacherID string) *dto.CreateCourseRequest {
	return &dto.CreateCourseRequest{
		Code:        code,
		Name:        "Algebra",
		CreditHours: 3,
		TeacherID:   teacherID,
		StartDate:   "2026-01-10",
		EndDate:     "2026-06-30",
	}
}

// ── Create 测试 ──

func TestCourseService_Create_Defaults(t *testing.T) {
	svc, m := setupTestCourseService()
	_, teacher := seedTeacher(m, "t@school.test")

	resp, err := svc.Create(context.Background(), adminSubject(m), courseReq("MATH101", teacher.ID))
	if err != nil {
		t.Fatalf("创建课程应成功: %v", err)
	}
	if resp.MaxStudents != model.DefaultMaxStudents {
		t.Errorf("max_students 默认应为 %d，实际=%d", model.DefaultMaxStudents, resp.MaxStudents)
	}
	if resp.Status != model.CourseStatusUpcoming {
		t.Errorf("status 默认应为 upcoming，实际=%s", resp.Status)
	}
}

func TestCourseService_Create_TeacherOwnOnly(t *testing.T) {
	svc, m := setupTestCourseService()
	tu, teacher := seedTeacher(m, "t@school.test")
	_, other := seedTeacher(m, "o@school.test")

	if _, err := svc.Create(context.Background(), subjectOf(tu), courseReq("MATH101", teacher.ID)); err != nil {
		t.Errorf("教师为自己开课应成功: %v", err)
	}
	if _, err := svc.Create(context.Background(), subjectOf(tu), courseReq("MATH102", other.ID)); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("教师为他人开课期望 ErrForbidden，实际: %v", err)
	}
}

func TestCourseService_Create_Validation(t *testing.T) {
	svc, m := setupTestCourseService()
	admin := adminSubject(m)
	_, teacher := seedTeacher(m, "t@school.test")
	seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)

	badRange := courseReq("MATH200", teacher.ID)
	badRange.EndDate = "2025-12-31"

	tests := []struct {
		name    string
		req     *dto.CreateCourseRequest
		wantErr error
	}{
		{"课程代码重复", courseReq("MATH101", teacher.ID), ErrCourseCodeExists},
		{"教师不存在", courseReq("MATH300", "missing"), ErrTeacherNotFound},
		{"结束早于开始", badRange, ErrCourseDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), admin, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
	if !errors.Is(ErrCourseCodeExists, apperrors.ErrConflict) {
		t.Error("ErrCourseCodeExists 应属于 Conflict")
	}
}

// ── List 测试 ──

func TestCourseService_List_TeacherSeesOwn(t *testing.T) {
	svc, m := setupTestCourseService()
	tu, teacher := seedTeacher(m, "t@school.test")
	_, other := seedTeacher(m, "o@school.test")
	seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)
	seedCourse(m, "HIST101", other.ID, model.CourseStatusActive, 30)
	su, _ := seedStudent(m, "s@school.test")

	items, total, err := svc.List(context.Background(), subjectOf(tu), &dto.CourseListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || items[0].Code != "MATH101" {
		t.Errorf("教师只能看到自己的课程，实际 total=%d", total)
	}

	_, total, _ = svc.List(context.Background(), subjectOf(tu), &dto.CourseListRequest{TeacherID: other.ID})
	if total != 0 {
		t.Errorf("教师请求他人课程列表应为空，实际=%d", total)
	}

	_, total, _ = svc.List(context.Background(), subjectOf(su), &dto.CourseListRequest{})
	if total != 2 {
		t.Errorf("学生可查看全部课程，期望 2，实际=%d", total)
	}
}

// ── Update 测试 ──

func TestCourseService_Update(t *testing.T) {
	svc, m := setupTestCourseService()
	tu, teacher := seedTeacher(m, "t@school.test")
	_, other := seedTeacher(m, "o@school.test")
	ou := subjectOf(m.user.users[other.UserID])
	course := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusUpcoming, 30)

	resp, err := svc.Update(context.Background(), subjectOf(tu), course.ID, &dto.UpdateCourseRequest{
		Status:      ptr(model.CourseStatusActive),
		MaxStudents: ptr(40),
	})
	if err != nil {
		t.Fatalf("授课教师更新应成功: %v", err)
	}
	if resp.Status != model.CourseStatusActive || resp.MaxStudents != 40 || resp.Name != course.Name {
		t.Errorf("部分更新结果不正确: %+v", resp)
	}

	if _, err := svc.Update(context.Background(), subjectOf(tu), course.ID,
		&dto.UpdateCourseRequest{TeacherID: ptr(other.ID)}); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("教师转交课程期望 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.Update(context.Background(), ou, course.ID,
		&dto.UpdateCourseRequest{Name: ptr("X")}); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("非授课教师更新期望 ErrForbidden，实际: %v", err)
	}

	resp, err = svc.Update(context.Background(), adminSubject(m), course.ID,
		&dto.UpdateCourseRequest{TeacherID: ptr(other.ID)})
	if err != nil {
		t.Fatalf("管理员转交课程应成功: %v", err)
	}
	if resp.TeacherID != other.ID {
		t.Errorf("期望 teacher_id=%s，实际=%s", other.ID, resp.TeacherID)
	}

	if _, err := svc.Update(context.Background(), adminSubject(m), course.ID,
		&dto.UpdateCourseRequest{TeacherID: ptr("missing")}); !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("转交给不存在的教师期望 ErrTeacherNotFound，实际: %v", err)
	}
}

func TestCourseService_Delete_AdminOnly(t *testing.T) {
	svc, m := setupTestCourseService()
	tu, teacher := seedTeacher(m, "t@school.test")
	course := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)

	if err := svc.Delete(context.Background(), subjectOf(tu), course.ID); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("教师删除课程期望 ErrForbidden，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), adminSubject(m), course.ID); err != nil {
		t.Errorf("管理员删除应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), subjectOf(tu), course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("删除后期望 ErrCourseNotFound，实际: %v", err)
	}
}
