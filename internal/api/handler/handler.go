package handler

import (
	"school-records/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Student    *StudentHandler
	Teacher    *TeacherHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Grade      *GradeHandler
	Report     *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Student:    NewStudentHandler(svc.Student),
		Teacher:    NewTeacherHandler(svc.Teacher),
		Course:     NewCourseHandler(svc.Course),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Grade:      NewGradeHandler(svc.Grade),
		Report:     NewReportHandler(svc.Report),
	}
}
