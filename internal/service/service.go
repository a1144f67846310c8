package service

import (
	"go.uber.org/zap"

	"school-records/config"
	"school-records/internal/repository"
	"school-records/pkg/document"
	"school-records/pkg/jwt"
	"school-records/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Student    StudentService
	Teacher    TeacherService
	Course     CourseService
	Enrollment EnrollmentService
	Grade      GradeService
	Report     ReportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（Redis 不可用时降级：登出不再拉黑 Token）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	renderer := document.NewRenderer(cfg.Report.CompressPDF)

	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, logger),
		User:       NewUserService(repo, logger),
		Student:    NewStudentService(repo, logger),
		Teacher:    NewTeacherService(repo, logger),
		Course:     NewCourseService(repo, logger),
		Enrollment: NewEnrollmentService(repo, logger),
		Grade:      NewGradeService(repo, logger),
		Report:     NewReportService(repo, renderer, cfg.Report.Dir, logger),
	}
}
