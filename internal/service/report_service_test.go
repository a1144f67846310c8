package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/pkg/document"
	apperrors "school-records/pkg/errors"
)

var reportClock = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

func setupTestReportService(t *testing.T) (*reportService, *mockRepos, string) {
	t.Helper()
	repo, m := newMockRepository()
	dir := t.TempDir()
	svc := NewReportService(repo, document.NewRenderer(false), dir, zap.NewNop()).(*reportService)
	svc.now = func() time.Time { return reportClock }
	return svc, m, dir
}

func addGrade(m *mockRepos, enrollmentID string, score, maxScore float64, date time.Time) {
	_ = m.grade.Create(context.Background(), &model.Grade{
		EnrollmentID: enrollmentID,
		GradeType:    model.GradeTypeExam,
		Score:        score,
		MaxScore:     maxScore,
		GradeDate:    model.NewDate(date),
	})
}

// ── GetStudentGrades 测试 ──

func TestReportService_GetStudentGrades_LatestGradePerCourse(t *testing.T) {
	svc, m, _ := setupTestReportService(t)
	_, teacher := seedTeacher(m, "t@school.test")
	c1 := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)
	c2 := seedCourse(m, "HIST101", teacher.ID, model.CourseStatusActive, 30)
	_, st := seedStudent(m, "s@school.test")
	e1 := seedEnrollment(m, st.ID, c1.ID, model.EnrollmentStatusActive)
	seedEnrollment(m, st.ID, c2.ID, model.EnrollmentStatusActive)

	addGrade(m, e1.ID, 60, 100, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	addGrade(m, e1.ID, 45, 50, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	report, err := svc.GetStudentGrades(context.Background(), adminSubject(m), st.ID)
	if err != nil {
		t.Fatalf("GetStudentGrades 应成功: %v", err)
	}
	if len(report.Courses) != 2 {
		t.Fatalf("期望 2 门课程，实际=%d", len(report.Courses))
	}

	var graded, ungraded int
	for _, row := range report.Courses {
		if row.CourseID == c1.ID {
			if row.Grade == nil || *row.Grade != 90 {
				t.Errorf("期望取最近一次成绩 90，实际=%v", row.Grade)
			}
			if row.GradeDate == nil || *row.GradeDate != "2026-03-01" {
				t.Errorf("期望 grade_date=2026-03-01，实际=%v", row.GradeDate)
			}
			graded++
		} else {
			if row.Grade != nil || row.GradeDate != nil {
				t.Errorf("未评分课程的 grade 应为空: %+v", row)
			}
			ungraded++
		}
	}
	if graded != 1 || ungraded != 1 {
		t.Errorf("期望一门已评分一门未评分，实际 %d/%d", graded, ungraded)
	}
	if report.StudentName != "Test student" || report.GradeLevel != 10 {
		t.Errorf("学生信息不正确: %+v", report)
	}
}

func TestReportService_GetStudentGrades_Access(t *testing.T) {
	svc, m, _ := setupTestReportService(t)
	me, mine := seedStudent(m, "me@school.test")
	_, other := seedStudent(m, "other@school.test")
	tu, _ := seedTeacher(m, "t@school.test")

	if _, err := svc.GetStudentGrades(context.Background(), subjectOf(me), mine.ID); err != nil {
		t.Errorf("学生查看自己的成绩应成功: %v", err)
	}
	if _, err := svc.GetStudentGrades(context.Background(), subjectOf(me), other.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("学生查看他人成绩期望 Forbidden，实际: %v", err)
	}
	if _, err := svc.GetStudentGrades(context.Background(), subjectOf(tu), other.ID); err != nil {
		t.Errorf("教师查看任意学生应成功: %v", err)
	}
	if _, err := svc.GetStudentGrades(context.Background(), subjectOf(tu), "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

// ── GenerateTranscript 测试 ──

func TestReportService_GenerateTranscript_Average(t *testing.T) {
	svc, m, dir := setupTestReportService(t)
	_, teacher := seedTeacher(m, "t@school.test")
	c1 := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)
	c2 := seedCourse(m, "HIST101", teacher.ID, model.CourseStatusActive, 30)
	c3 := seedCourse(m, "ART101", teacher.ID, model.CourseStatusActive, 30)
	_, st := seedStudent(m, "s@school.test")
	e1 := seedEnrollment(m, st.ID, c1.ID, model.EnrollmentStatusActive)
	e2 := seedEnrollment(m, st.ID, c2.ID, model.EnrollmentStatusActive)
	seedEnrollment(m, st.ID, c3.ID, model.EnrollmentStatusActive)
	addGrade(m, e1.ID, 80, 100, reportClock)
	addGrade(m, e2.ID, 90, 100, reportClock)

	resp, err := svc.GenerateTranscript(context.Background(), adminSubject(m), st.ID)
	if err != nil {
		t.Fatalf("GenerateTranscript 应成功: %v", err)
	}

	wantPath := filepath.Join(dir, st.ID+"_transcript_20260315093000.pdf")
	if resp.FilePath != wantPath || resp.FileType != document.FileTypePDF {
		t.Errorf("期望路径 %s，实际 %+v", wantPath, resp)
	}

	data, err := os.ReadFile(resp.FilePath)
	if err != nil {
		t.Fatalf("读取 PDF 失败: %v", err)
	}
	for _, want := range []string{"Academic Transcript", "Average Grade", "85.0", "Not graded", "Generated on"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("PDF 应包含 %q", want)
		}
	}
}

func TestReportService_GenerateTranscript_NoCourses(t *testing.T) {
	svc, m, _ := setupTestReportService(t)
	me, st := seedStudent(m, "s@school.test")

	resp, err := svc.GenerateTranscript(context.Background(), subjectOf(me), st.ID)
	if err != nil {
		t.Fatalf("GenerateTranscript 应成功: %v", err)
	}

	data, _ := os.ReadFile(resp.FilePath)
	if !bytes.Contains(data, []byte("No course records found for this student.")) {
		t.Error("无选课时应输出提示行")
	}
	if bytes.Contains(data, []byte("Average Grade")) {
		t.Error("无选课时不应有平均分行")
	}
}

func TestReportService_GenerateTranscript_SameSecondKeepsBothFiles(t *testing.T) {
	svc, m, dir := setupTestReportService(t)
	me, st := seedStudent(m, "s@school.test")

	first, err := svc.GenerateTranscript(context.Background(), subjectOf(me), st.ID)
	if err != nil {
		t.Fatalf("第一次生成应成功: %v", err)
	}
	second, err := svc.GenerateTranscript(context.Background(), subjectOf(me), st.ID)
	if err != nil {
		t.Fatalf("同一秒内第二次生成应成功: %v", err)
	}

	wantSecond := filepath.Join(dir, st.ID+"_transcript_20260315093000_2.pdf")
	if first.FilePath == second.FilePath || second.FilePath != wantSecond {
		t.Errorf("期望第二份为 %s，实际 first=%s second=%s", wantSecond, first.FilePath, second.FilePath)
	}
	for _, p := range []string{first.FilePath, second.FilePath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("文件 %s 应存在: %v", p, err)
		}
	}
}

func TestReportService_GenerateTranscript_WriteFailure(t *testing.T) {
	svc, m, dir := setupTestReportService(t)
	_, st := seedStudent(m, "s@school.test")

	// 报表目录被同名文件占用
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc.dir = blocked

	_, err := svc.GenerateTranscript(context.Background(), adminSubject(m), st.ID)
	if !errors.Is(err, ErrReportWriteFailed) {
		t.Errorf("期望 ErrReportWriteFailed，实际: %v", err)
	}
}

// ── ExportStudents 测试 ──

func TestReportService_ExportStudents(t *testing.T) {
	svc, m, dir := setupTestReportService(t)
	_, a := seedStudent(m, "a@school.test")
	_, b := seedStudent(m, "b@school.test")
	b.ParentName = ptr("Parent B")
	_ = m.student.Update(context.Background(), b)

	resp, err := svc.ExportStudents(context.Background(), adminSubject(m))
	if err != nil {
		t.Fatalf("ExportStudents 应成功: %v", err)
	}
	if resp.Filename != "students_export_20260315093000.xlsx" || filepath.Dir(resp.FilePath) != dir {
		t.Errorf("导出文件名不正确: %+v", resp)
	}

	f, err := excelize.OpenFile(resp.FilePath)
	if err != nil {
		t.Fatalf("打开 XLSX 失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(document.StudentsSheetName)
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际=%d", len(rows))
	}
	if rows[1][0] != a.ID || rows[2][0] != b.ID {
		t.Errorf("应按学生 ID 排序，实际 %s, %s", rows[1][0], rows[2][0])
	}
	if rows[2][7] != "Parent B" {
		t.Errorf("期望家长姓名 Parent B，实际=%q", rows[2][7])
	}
}

func TestReportService_ExportStudents_StudentForbidden(t *testing.T) {
	svc, m, _ := setupTestReportService(t)
	me, _ := seedStudent(m, "s@school.test")

	if _, err := svc.ExportStudents(context.Background(), subjectOf(me)); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("学生批量导出期望 ErrForbidden，实际: %v", err)
	}
}

// ── StudentCalendar 测试 ──

func TestReportService_StudentCalendar_SkipsDropped(t *testing.T) {
	svc, m, _ := setupTestReportService(t)
	_, teacher := seedTeacher(m, "t@school.test")
	c1 := seedCourse(m, "MATH101", teacher.ID, model.CourseStatusActive, 30)
	c2 := seedCourse(m, "HIST101", teacher.ID, model.CourseStatusActive, 30)
	me, st := seedStudent(m, "s@school.test")
	seedEnrollment(m, st.ID, c1.ID, model.EnrollmentStatusActive)
	seedEnrollment(m, st.ID, c2.ID, model.EnrollmentStatusDropped)

	buf, filename, err := svc.StudentCalendar(context.Background(), subjectOf(me), st.ID)
	if err != nil {
		t.Fatalf("StudentCalendar 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应以 .ics 结尾: %s", filename)
	}

	body := buf.String()
	if !strings.Contains(body, "MATH101") {
		t.Error("日历应包含在读课程")
	}
	if strings.Contains(body, "HIST101") {
		t.Error("日历不应包含已退课程")
	}
}
