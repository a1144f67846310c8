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

type gradeFixture struct {
	svc        GradeService
	m          *mockRepos
	teacher    policy.Subject
	otherTchr  policy.Subject
	student    policy.Subject
	enrollment *model.Enrollment
}

func setupTestGradeService() *gradeFixture {
	repo, m := newMockRepository()
	tu, teacher := seedTeacher(m, "t@school.test")
	ou, _ := seedTeacher(m, "other@school.test")
	course := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)
	su, st := seedStudent(m, "s@school.test")
	e := seedEnrollment(m, st.ID, course.ID, model.EnrollmentStatusActive)
	return &gradeFixture{
		svc:        NewGradeService(repo, zap.NewNop()),
		m:          m,
		teacher:    subjectOf(tu),
		otherTchr:  subjectOf(ou),
		student:    subjectOf(su),
		enrollment: e,
	}
}

func gradeReq(enrollmentID string, score, maxScore float64) *dto.CreateGradeRequest {
	return &dto.CreateGradeRequest{
		EnrollmentID: enrollmentID,
		GradeType:    model.GradeTypeExam,
		Score:        ptr(score),
		MaxScore:     maxScore,
	}
}

// ── Create 测试 ──

func TestGradeService_Create_ScoreBounds(t *testing.T) {
	f := setupTestGradeService()

	tests := []struct {
		name    string
		score   float64
		wantErr error
	}{
		{"零分", 0, nil},
		{"满分", 100, nil},
		{"负分", -1, ErrScoreOutOfRange},
		{"超过满分", 100.5, ErrScoreOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, tt.score, 100))
			if tt.wantErr == nil && err != nil {
				t.Errorf("期望成功，实际: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}

	if !errors.Is(ErrScoreOutOfRange, apperrors.ErrInvalidInput) {
		t.Error("ErrScoreOutOfRange 应属于 InvalidInput")
	}
}

func TestGradeService_Create_OnlyOwnCourse(t *testing.T) {
	f := setupTestGradeService()

	if _, err := f.svc.Create(context.Background(), f.otherTchr, gradeReq(f.enrollment.ID, 80, 100)); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("非授课教师录入期望 ErrForbidden，实际: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.student, gradeReq(f.enrollment.ID, 80, 100)); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("学生录入期望 ErrForbidden，实际: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), adminSubject(f.m), gradeReq(f.enrollment.ID, 80, 100)); err != nil {
		t.Errorf("管理员录入应成功: %v", err)
	}
}

func TestGradeService_Create_EnrollmentNotActive(t *testing.T) {
	f := setupTestGradeService()
	f.m.enrollment.enrollments[f.enrollment.ID].Status = model.EnrollmentStatusPending

	_, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 80, 100))
	if !errors.Is(err, ErrEnrollmentNotActive) || !errors.Is(err, apperrors.ErrUnprocessable) {
		t.Errorf("期望 Unprocessable 类 ErrEnrollmentNotActive，实际: %v", err)
	}
}

func TestGradeService_Create_EnrollmentNotFound(t *testing.T) {
	f := setupTestGradeService()

	_, err := f.svc.Create(context.Background(), f.teacher, gradeReq("missing", 80, 100))
	if !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("期望 ErrEnrollmentNotFound，实际: %v", err)
	}
}

func TestGradeService_Create_DefaultsGradeDate(t *testing.T) {
	f := setupTestGradeService()

	resp, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 80, 100))
	if err != nil {
		t.Fatalf("录入应成功: %v", err)
	}
	if resp.GradeDate != model.FormatDate(model.Today()) {
		t.Errorf("grade_date 默认应为当天，实际=%s", resp.GradeDate)
	}
}

// ── Update 测试 ──

func TestGradeService_Update_ValidatesResultingScore(t *testing.T) {
	f := setupTestGradeService()
	created, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 40, 50))
	if err != nil {
		t.Fatalf("录入应成功: %v", err)
	}

	// 单独降低满分导致现有分数越界
	_, err = f.svc.Update(context.Background(), f.teacher, created.ID, &dto.UpdateGradeRequest{MaxScore: ptr(30.0)})
	if !errors.Is(err, ErrScoreOutOfRange) {
		t.Errorf("期望 ErrScoreOutOfRange，实际: %v", err)
	}

	resp, err := f.svc.Update(context.Background(), f.teacher, created.ID, &dto.UpdateGradeRequest{Score: ptr(50.0)})
	if err != nil {
		t.Fatalf("更新到满分应成功: %v", err)
	}
	if resp.Score != 50 || resp.MaxScore != 50 {
		t.Errorf("期望 50/50，实际 %v/%v", resp.Score, resp.MaxScore)
	}

	if _, err := f.svc.Update(context.Background(), f.otherTchr, created.ID, &dto.UpdateGradeRequest{Score: ptr(10.0)}); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("非授课教师更新期望 ErrForbidden，实际: %v", err)
	}
}

func TestGradeService_Update_NegativeScore(t *testing.T) {
	f := setupTestGradeService()
	created, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 40, 50))
	if err != nil {
		t.Fatalf("录入应成功: %v", err)
	}

	_, err = f.svc.Update(context.Background(), f.teacher, created.ID, &dto.UpdateGradeRequest{Score: ptr(-1.0)})
	if !errors.Is(err, ErrScoreOutOfRange) {
		t.Errorf("负分期望 ErrScoreOutOfRange，实际: %v", err)
	}
	if got := f.m.grade.grades[created.ID].Score; got != 40 {
		t.Errorf("校验失败不应写入，期望 40，实际 %v", got)
	}
}

func TestGradeService_Update_EnrollmentNoLongerActive(t *testing.T) {
	f := setupTestGradeService()
	created, err := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 40, 50))
	if err != nil {
		t.Fatalf("录入应成功: %v", err)
	}

	f.m.enrollment.enrollments[f.enrollment.ID].Status = model.EnrollmentStatusDropped

	_, err = f.svc.Update(context.Background(), f.teacher, created.ID, &dto.UpdateGradeRequest{Score: ptr(45.0)})
	if !errors.Is(err, ErrEnrollmentNotActive) {
		t.Errorf("退课后更新成绩期望 ErrEnrollmentNotActive，实际: %v", err)
	}
	if got := apperrors.KindOf(err); got != apperrors.KindUnprocessable {
		t.Errorf("期望 KindUnprocessable，实际 %v", got)
	}
}

// ── List / GetByID 测试 ──

func TestGradeService_StudentSeesOwnGradesOnly(t *testing.T) {
	f := setupTestGradeService()
	own, _ := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 80, 100))

	_, otherStudent := seedStudent(f.m, "x@school.test")
	otherEnr := seedEnrollment(f.m, otherStudent.ID, f.enrollment.CourseID, model.EnrollmentStatusActive)
	foreign, _ := f.svc.Create(context.Background(), f.teacher, gradeReq(otherEnr.ID, 70, 100))

	items, total, err := f.svc.List(context.Background(), f.student, &dto.GradeListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || items[0].ID != own.ID {
		t.Errorf("学生只能看到自己的成绩，实际 total=%d", total)
	}

	if _, err := f.svc.GetByID(context.Background(), f.student, foreign.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("读取他人成绩期望 Forbidden，实际: %v", err)
	}

	_, total, _ = f.svc.List(context.Background(), f.otherTchr, &dto.GradeListRequest{})
	if total != 2 {
		t.Errorf("教师可查看全部成绩，期望 2，实际=%d", total)
	}
}

func TestGradeService_Delete_CourseTeacher(t *testing.T) {
	f := setupTestGradeService()
	g, _ := f.svc.Create(context.Background(), f.teacher, gradeReq(f.enrollment.ID, 80, 100))

	if err := f.svc.Delete(context.Background(), f.otherTchr, g.ID); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("非授课教师删除期望 ErrForbidden，实际: %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.teacher, g.ID); err != nil {
		t.Errorf("授课教师删除应成功: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), f.teacher, g.ID); !errors.Is(err, ErrGradeNotFound) {
		t.Errorf("删除后期望 ErrGradeNotFound，实际: %v", err)
	}
}
