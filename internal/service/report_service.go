package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-records/internal/dto"
	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/internal/repository"
	"school-records/pkg/document"
	apperrors "school-records/pkg/errors"
)

// ErrReportWriteFailed 报表文件写入失败（I/O 错误，不重试）
var ErrReportWriteFailed = apperrors.New(apperrors.KindInternal, "报表文件写入失败")

// fileTimestampLayout 报表文件名中的时间戳
const fileTimestampLayout = "20060102150405"

// maxNameAttempts 同一秒内同名报表的最多序号（name.pdf、name_2.pdf …）
const maxNameAttempts = 20

// ReportService 报表业务接口
//
// 流程：收集数据 → 校验存在性 → 组装行 → 序列化 → 返回路径。
// 存在性与权限失败直接返回；序列化失败统一包装为 ErrReportWriteFailed。
type ReportService interface {
	// GetStudentGrades 学生成绩汇总：每门选课一行，取最近一次成绩
	GetStudentGrades(ctx context.Context, caller policy.Subject, studentID string) (*dto.StudentGradeReport, error)
	// GenerateTranscript 生成 PDF 成绩单并写入报表目录
	GenerateTranscript(ctx context.Context, caller policy.Subject, studentID string) (*dto.ReportFileResponse, error)
	// ExportStudents 导出全部学生为 XLSX 并写入报表目录
	ExportStudents(ctx context.Context, caller policy.Subject) (*dto.ReportFileResponse, error)
	// StudentCalendar 学生课程日历（ICS），以 bytes.Buffer 返回
	StudentCalendar(ctx context.Context, caller policy.Subject, studentID string) (*bytes.Buffer, string, error)
}

type reportService struct {
	repo     *repository.Repository
	renderer *document.Renderer
	dir      string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, renderer *document.Renderer, dir string, logger *zap.Logger) ReportService {
	return &reportService{
		repo:     repo,
		renderer: renderer,
		dir:      dir,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── GetStudentGrades ──────────────────────

func (s *reportService) GetStudentGrades(ctx context.Context, caller policy.Subject, studentID string) (*dto.StudentGradeReport, error) {
	student, err := s.authorizedStudent(ctx, caller, studentID, policy.ActionRead)
	if err != nil {
		return nil, err
	}
	return s.buildGradeReport(ctx, student)
}

// ────────────────────── GenerateTranscript ──────────────────────

func (s *reportService) GenerateTranscript(ctx context.Context, caller policy.Subject, studentID string) (*dto.ReportFileResponse, error) {
	student, err := s.authorizedStudent(ctx, caller, studentID, policy.ActionRead)
	if err != nil {
		return nil, err
	}

	report, err := s.buildGradeReport(ctx, student)
	if err != nil {
		return nil, err
	}

	now := s.now()
	transcript := &document.Transcript{
		StudentName:    report.StudentName,
		StudentID:      report.StudentID,
		GradeLevel:     report.GradeLevel,
		EnrollmentDate: report.EnrollmentDate,
		Rows:           make([]document.TranscriptRow, 0, len(report.Courses)),
		GeneratedAt:    now,
	}
	for _, c := range report.Courses {
		transcript.Rows = append(transcript.Rows, document.TranscriptRow{
			CourseCode: c.CourseCode,
			CourseName: c.CourseName,
			Grade:      c.Grade,
		})
	}

	filename := fmt.Sprintf("%s_transcript_%s.pdf", student.ID, now.Format(fileTimestampLayout))
	return s.save(filename, document.FileTypePDF, now, func(w io.Writer) error {
		return s.renderer.Transcript(w, transcript)
	})
}

// ────────────────────── ExportStudents ──────────────────────

func (s *reportService) ExportStudents(ctx context.Context, caller policy.Subject) (*dto.ReportFileResponse, error) {
	if err := policy.Authorize(policy.EntityReport, policy.ActionExport, caller, policy.Target{}); err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, err
	}

	rows := make([]document.StudentRow, 0, len(students))
	for i := range students {
		rows = append(rows, studentRow(&students[i]))
	}

	now := s.now()
	filename := fmt.Sprintf("students_export_%s.xlsx", now.Format(fileTimestampLayout))
	return s.save(filename, document.FileTypeXLSX, now, func(w io.Writer) error {
		return s.renderer.StudentRoster(w, rows)
	})
}

// ────────────────────── StudentCalendar ──────────────────────

func (s *reportService) StudentCalendar(ctx context.Context, caller policy.Subject, studentID string) (*bytes.Buffer, string, error) {
	student, err := s.authorizedStudent(ctx, caller, studentID, policy.ActionRead)
	if err != nil {
		return nil, "", err
	}

	enrollments, err := s.repo.Enrollment.ListByStudentWithCourse(ctx, student.ID)
	if err != nil {
		s.logger.Error("查询学生选课失败", zap.String("student_id", student.ID), zap.Error(err))
		return nil, "", err
	}

	events := make([]document.CourseEvent, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course == nil || e.Status == model.EnrollmentStatusDropped {
			continue
		}
		ev := document.CourseEvent{
			CourseID: e.Course.ID,
			Code:     e.Course.Code,
			Name:     e.Course.Name,
			Start:    time.Time(e.Course.StartDate),
			End:      time.Time(e.Course.EndDate),
		}
		if e.Course.Description != nil {
			ev.Description = *e.Course.Description
		}
		events = append(events, ev)
	}

	now := s.now()
	buf := new(bytes.Buffer)
	if err := s.renderer.CourseCalendar(buf, studentName(student)+" Courses", events, now); err != nil {
		s.logger.Error("生成课程日历失败", zap.String("student_id", student.ID), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrReportWriteFailed, err)
	}

	filename := fmt.Sprintf("%s_calendar_%s.ics", student.ID, now.Format(fileTimestampLayout))
	return buf, filename, nil
}

// ── 内部辅助方法 ──

// authorizedStudent 加载学生（含用户信息）并校验报表权限
func (s *reportService) authorizedStudent(ctx context.Context, caller policy.Subject, studentID string, action policy.Action) (*model.Student, error) {
	caller, err := resolveSubject(ctx, s.repo, caller)
	if err != nil {
		return nil, err
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	if err := policy.Authorize(policy.EntityReport, action, caller,
		policy.Target{StudentID: student.ID, UserID: student.UserID}); err != nil {
		return nil, err
	}
	return student, nil
}

// buildGradeReport 组装成绩汇总，课程按选课日期与选课 ID 排序
func (s *reportService) buildGradeReport(ctx context.Context, student *model.Student) (*dto.StudentGradeReport, error) {
	enrollments, err := s.repo.Enrollment.ListByStudentWithCourse(ctx, student.ID)
	if err != nil {
		s.logger.Error("查询学生选课失败", zap.String("student_id", student.ID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
	}
	latest, err := s.repo.Grade.LatestByEnrollments(ctx, ids)
	if err != nil {
		s.logger.Error("查询最近成绩失败", zap.String("student_id", student.ID), zap.Error(err))
		return nil, err
	}

	report := &dto.StudentGradeReport{
		StudentID:      student.ID,
		StudentName:    studentName(student),
		GradeLevel:     student.GradeLevel,
		EnrollmentDate: model.FormatDate(student.EnrollmentDate),
		Courses:        make([]dto.GradeRow, 0, len(enrollments)),
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
	}
	for _, e := range enrollments {
		row := dto.GradeRow{
			CourseID:       e.CourseID,
			EnrollmentDate: model.FormatDate(e.EnrollmentDate),
		}
		if e.Course != nil {
			row.CourseName = e.Course.Name
			row.CourseCode = e.Course.Code
		}
		if g, ok := latest[e.ID]; ok {
			pct := g.Percentage()
			date := model.FormatDate(g.GradeDate)
			row.Grade = &pct
			row.GradeDate = &date
		}
		report.Courses = append(report.Courses, row)
	}
	return report, nil
}

// save 将渲染结果写入报表目录
// 同名文件已存在（同一秒内重复生成）时依次追加 _2、_3 … 序号，不覆盖已有文件
func (s *reportService) save(filename, fileType string, at time.Time, write func(io.Writer) error) (*dto.ReportFileResponse, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := filename
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d%s", base, attempt, ext)
		}
		path := filepath.Join(s.dir, name)

		err := document.SaveFile(path, write)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			s.logger.Error("写入报表文件失败", zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrReportWriteFailed, err)
		}

		s.logger.Info("报表已生成", zap.String("path", path), zap.String("type", fileType))
		return &dto.ReportFileResponse{
			Filename:    name,
			FilePath:    path,
			GeneratedAt: at.UTC().Format(time.RFC3339),
			FileType:    fileType,
		}, nil
	}

	s.logger.Error("报表文件名已全部占用", zap.String("filename", filename))
	return nil, fmt.Errorf("%w: %s 同名文件过多", ErrReportWriteFailed, filename)
}

func studentName(st *model.Student) string {
	if st.User == nil {
		return ""
	}
	return st.User.FullName()
}

func studentRow(st *model.Student) document.StudentRow {
	row := document.StudentRow{
		StudentID:      st.ID,
		UserID:         st.UserID,
		GradeLevel:     st.GradeLevel,
		EnrollmentDate: model.FormatDate(st.EnrollmentDate),
	}
	if st.User != nil {
		row.FirstName = st.User.FirstName
		row.LastName = st.User.LastName
		row.Email = st.User.Email
	}
	if st.ParentName != nil {
		row.ParentName = *st.ParentName
	}
	if st.ParentEmail != nil {
		row.ParentEmail = *st.ParentEmail
	}
	if st.ParentPhone != nil {
		row.ParentPhone = *st.ParentPhone
	}
	return row
}
