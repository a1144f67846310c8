package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"school-records/internal/model"
	"school-records/internal/policy"
	"school-records/internal/repository"
)

// 内存实现的 Repository，返回副本以模拟数据库读写语义

var mockSeq int

func nextID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%06d", prefix, mockSeq)
}

func touch(b *model.BaseModel, prefix string) {
	if b.ID == "" {
		b.ID = nextID(prefix)
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users    map[string]*model.User
	teachers *mockTeacherRepo // 模拟 users → teachers 级联及 courses.teacher_id 外键
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	touch(&user.BaseModel, "user")
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	touch(&user.BaseModel, "user")
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.teachers != nil {
		if t, err := m.teachers.GetByUserID(ctx, id); err == nil {
			if err := m.teachers.Delete(ctx, t.ID); err != nil {
				return err
			}
		}
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.UserID != "" && u.ID != filters.UserID {
				continue
			}
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.IsActive != nil && u.IsActive != *filters.IsActive {
				continue
			}
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	users    *mockUserRepo
}

func newMockStudentRepo(users *mockUserRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), users: users}
}

func (m *mockStudentRepo) withUser(s *model.Student) *model.Student {
	cp := *s
	if u, ok := m.users.users[s.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.UserID == student.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	touch(&student.BaseModel, "stu")
	cp := *student
	cp.User = nil
	m.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.withUser(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return m.withUser(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	touch(&student.BaseModel, "stu")
	cp := *student
	cp.User = nil
	m.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) List(_ context.Context, filters *repository.StudentListFilters, offset, limit int) ([]model.Student, int64, error) {
	var result []model.Student
	for _, s := range m.students {
		if filters != nil {
			if filters.StudentID != "" && s.ID != filters.StudentID {
				continue
			}
			if filters.GradeLevel != nil && s.GradeLevel != *filters.GradeLevel {
				continue
			}
		}
		result = append(result, *m.withUser(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockStudentRepo) ListAll(ctx context.Context) ([]model.Student, error) {
	result, _, err := m.List(ctx, nil, 0, 0)
	return result, err
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher
	courses  *mockCourseRepo
}

func newMockTeacherRepo(courses *mockCourseRepo) *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher), courses: courses}
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	for _, t := range m.teachers {
		if t.UserID == teacher.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	touch(&teacher.BaseModel, "tch")
	cp := *teacher
	cp.User = nil
	m.teachers[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetByUserID(_ context.Context, userID string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	touch(&teacher.BaseModel, "tch")
	cp := *teacher
	cp.User = nil
	m.teachers[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string) error {
	if m.courses != nil {
		for _, c := range m.courses.courses {
			if c.TeacherID == id {
				return fmt.Errorf("delete teacher: %w", gorm.ErrForeignKeyViolated)
			}
		}
	}
	delete(m.teachers, id)
	return nil
}

func (m *mockTeacherRepo) List(_ context.Context, filters *repository.TeacherListFilters, offset, limit int) ([]model.Teacher, int64, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		if filters != nil && filters.Department != "" {
			if t.Department == nil || *t.Department != filters.Department {
				continue
			}
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	locks   int // GetByIDForUpdate 调用次数
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	for _, c := range m.courses {
		if c.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	touch(&course.BaseModel, "crs")
	cp := *course
	m.courses[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Course, error) {
	m.locks++
	return m.GetByID(ctx, id)
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	touch(&course.BaseModel, "crs")
	cp := *course
	cp.Teacher = nil
	m.courses[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) List(_ context.Context, filters *repository.CourseListFilters, offset, limit int) ([]model.Course, int64, error) {
	var result []model.Course
	for _, c := range m.courses {
		if filters != nil {
			if filters.TeacherID != "" && c.TeacherID != filters.TeacherID {
				continue
			}
			if filters.Status != "" && c.Status != filters.Status {
				continue
			}
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return paginate(result, offset, limit), int64(len(result)), nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment
	courses     *mockCourseRepo
}

func newMockEnrollmentRepo(courses *mockCourseRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[string]*model.Enrollment), courses: courses}
}

func (m *mockEnrollmentRepo) withCourse(e *model.Enrollment) *model.Enrollment {
	cp := *e
	if c, ok := m.courses.courses[e.CourseID]; ok {
		cc := *c
		cp.Course = &cc
	}
	return &cp
}

func (m *mockEnrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	for _, e := range m.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	touch(&enrollment.BaseModel, "enr")
	cp := *enrollment
	cp.Course, cp.Student = nil, nil
	m.enrollments[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return m.withCourse(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) CountSeatsTaken(_ context.Context, courseID string) (int64, error) {
	var n int64
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.OccupiesSeat() {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) Update(_ context.Context, enrollment *model.Enrollment) error {
	touch(&enrollment.BaseModel, "enr")
	cp := *enrollment
	cp.Course, cp.Student = nil, nil
	m.enrollments[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, id string) error {
	delete(m.enrollments, id)
	return nil
}

func (m *mockEnrollmentRepo) List(_ context.Context, filters *repository.EnrollmentListFilters, offset, limit int) ([]model.Enrollment, int64, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if filters != nil {
			if filters.StudentID != "" && e.StudentID != filters.StudentID {
				continue
			}
			if filters.CourseID != "" && e.CourseID != filters.CourseID {
				continue
			}
			if filters.Status != "" && e.Status != filters.Status {
				continue
			}
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockEnrollmentRepo) ListByStudentWithCourse(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			result = append(result, *m.withCourse(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		di, dj := time.Time(result[i].EnrollmentDate), time.Time(result[j].EnrollmentDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	grades      map[string]*model.Grade
	enrollments *mockEnrollmentRepo
}

func newMockGradeRepo(enrollments *mockEnrollmentRepo) *mockGradeRepo {
	return &mockGradeRepo{grades: make(map[string]*model.Grade), enrollments: enrollments}
}

func (m *mockGradeRepo) Create(_ context.Context, grade *model.Grade) error {
	touch(&grade.BaseModel, "grd")
	cp := *grade
	cp.Enrollment = nil
	m.grades[grade.ID] = &cp
	return nil
}

func (m *mockGradeRepo) GetByID(_ context.Context, id string) (*model.Grade, error) {
	g, ok := m.grades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	if e, ok := m.enrollments.enrollments[g.EnrollmentID]; ok {
		cp.Enrollment = m.enrollments.withCourse(e)
	}
	return &cp, nil
}

func (m *mockGradeRepo) Update(_ context.Context, grade *model.Grade) error {
	touch(&grade.BaseModel, "grd")
	cp := *grade
	cp.Enrollment = nil
	m.grades[grade.ID] = &cp
	return nil
}

func (m *mockGradeRepo) Delete(_ context.Context, id string) error {
	delete(m.grades, id)
	return nil
}

func (m *mockGradeRepo) List(_ context.Context, filters *repository.GradeListFilters, offset, limit int) ([]model.Grade, int64, error) {
	var result []model.Grade
	for _, g := range m.grades {
		if filters != nil {
			if filters.StudentID != "" {
				e, ok := m.enrollments.enrollments[g.EnrollmentID]
				if !ok || e.StudentID != filters.StudentID {
					continue
				}
			}
			if filters.EnrollmentID != "" && g.EnrollmentID != filters.EnrollmentID {
				continue
			}
			if filters.GradeType != "" && g.GradeType != filters.GradeType {
				continue
			}
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockGradeRepo) LatestByEnrollments(_ context.Context, ids []string) (map[string]model.Grade, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	result := make(map[string]model.Grade)
	for _, g := range m.grades {
		if !want[g.EnrollmentID] {
			continue
		}
		cur, ok := result[g.EnrollmentID]
		gd, cd := time.Time(g.GradeDate), time.Time(cur.GradeDate)
		if !ok || gd.After(cd) || (gd.Equal(cd) && g.CreatedAt.After(cur.CreatedAt)) {
			result[g.EnrollmentID] = *g
		}
	}
	return result, nil
}

// ── 聚合 ──

type mockRepos struct {
	user       *mockUserRepo
	student    *mockStudentRepo
	teacher    *mockTeacherRepo
	course     *mockCourseRepo
	enrollment *mockEnrollmentRepo
	grade      *mockGradeRepo
}

// newMockRepository 组装未绑定数据库的 Repository，Transaction 直接执行回调
func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	courses := newMockCourseRepo()
	enrollments := newMockEnrollmentRepo(courses)
	teachers := newMockTeacherRepo(courses)
	users.teachers = teachers
	m := &mockRepos{
		user:       users,
		student:    newMockStudentRepo(users),
		teacher:    teachers,
		course:     courses,
		enrollment: enrollments,
		grade:      newMockGradeRepo(enrollments),
	}
	repo := &repository.Repository{
		User:       m.user,
		Student:    m.student,
		Teacher:    m.teacher,
		Course:     m.course,
		Enrollment: m.enrollment,
		Grade:      m.grade,
	}
	return repo, m
}

// ── 测试数据 ──

func seedUser(m *mockRepos, email, role string) *model.User {
	u := &model.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       role,
		Role:           role,
		IsActive:       true,
		HashedPassword: "x",
	}
	_ = m.user.Create(context.Background(), u)
	return u
}

func seedStudent(m *mockRepos, email string) (*model.User, *model.Student) {
	u := seedUser(m, email, model.RoleStudent)
	s := &model.Student{
		UserID:         u.ID,
		EnrollmentDate: model.NewDate(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)),
		GradeLevel:     10,
	}
	_ = m.student.Create(context.Background(), s)
	return u, s
}

func seedTeacher(m *mockRepos, email string) (*model.User, *model.Teacher) {
	u := seedUser(m, email, model.RoleTeacher)
	t := &model.Teacher{
		UserID:        u.ID,
		HireDate:      model.NewDate(time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC)),
		Qualification: "MSc",
	}
	_ = m.teacher.Create(context.Background(), t)
	return u, t
}

func seedCourse(m *mockRepos, code, teacherID, status string, maxStudents int) *model.Course {
	c := &model.Course{
		Code:        code,
		Name:        "Course " + code,
		CreditHours: 3,
		MaxStudents: maxStudents,
		TeacherID:   teacherID,
		StartDate:   model.NewDate(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)),
		EndDate:     model.NewDate(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)),
		Status:      status,
	}
	_ = m.course.Create(context.Background(), c)
	return c
}

func seedEnrollment(m *mockRepos, studentID, courseID, status string) *model.Enrollment {
	e := &model.Enrollment{
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: model.NewDate(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		Status:         status,
	}
	_ = m.enrollment.Create(context.Background(), e)
	return e
}

func adminSubject(m *mockRepos) policy.Subject {
	u := seedUser(m, nextID("admin")+"@school.test", model.RoleAdmin)
	return policy.Subject{UserID: u.ID, Role: model.RoleAdmin}
}

func subjectOf(u *model.User) policy.Subject {
	return policy.Subject{UserID: u.ID, Role: u.Role}
}

func ptr[T any](v T) *T { return &v }
