package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-records/config"
	"school-records/internal/api/handler"
	"school-records/internal/api/middleware"
	"school-records/pkg/jwt"
	"school-records/pkg/redis"
)

// maxBodyBytes 请求体上限（JSON 接口足够）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// db 与 rdb 均可为 nil：健康检查只报告已注入的依赖
// identity 每次认证时读取账号当前角色与启用状态
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	identity middleware.IdentityResolver,
	rdb *redis.Client,
	db *gorm.DB,
	schemaVersion uint,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb, schemaVersion))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login",
				middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow),
				h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 开放注册；携带管理员 Token 时可创建管理员
		v1.POST("/users", middleware.OptionalJWTAuth(jwtMgr, identity), h.User.CreateUser)

		// 需要认证的路由（角色与归属权限统一由 Service 层的 policy 判定）
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, identity))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/change-password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PATCH("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 学生档案模块
			students := authorized.Group("/students")
			{
				students.POST("", h.Student.CreateStudent)
				students.GET("", h.Student.ListStudents)
				students.GET("/:id", h.Student.GetStudent)
				students.PATCH("/:id", h.Student.UpdateStudent)
				students.DELETE("/:id", h.Student.DeleteStudent)
			}

			// 教师档案模块
			teachers := authorized.Group("/teachers")
			{
				teachers.POST("", h.Teacher.CreateTeacher)
				teachers.GET("", h.Teacher.ListTeachers)
				teachers.GET("/:id", h.Teacher.GetTeacher)
				teachers.PATCH("/:id", h.Teacher.UpdateTeacher)
				teachers.DELETE("/:id", h.Teacher.DeleteTeacher)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.POST("", h.Course.CreateCourse)
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.PATCH("/:id", h.Course.UpdateCourse)
				courses.DELETE("/:id", h.Course.DeleteCourse)
			}

			// 选课模块
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.POST("", h.Enrollment.CreateEnrollment)
				enrollments.GET("", h.Enrollment.ListEnrollments)
				enrollments.GET("/:id", h.Enrollment.GetEnrollment)
				enrollments.PATCH("/:id", h.Enrollment.UpdateEnrollment)
				enrollments.DELETE("/:id", h.Enrollment.DeleteEnrollment)
			}

			// 成绩模块
			grades := authorized.Group("/grades")
			{
				grades.POST("", h.Grade.CreateGrade)
				grades.GET("", h.Grade.ListGrades)
				grades.GET("/:id", h.Grade.GetGrade)
				grades.PATCH("/:id", h.Grade.UpdateGrade)
				grades.DELETE("/:id", h.Grade.DeleteGrade)
			}

			// 报表模块
			reports := authorized.Group("/reports")
			{
				reports.GET("/students/:id/grades", h.Report.GetStudentGrades)
				reports.GET("/students/:id/transcript", h.Report.DownloadTranscript)
				reports.GET("/students/:id/calendar", h.Report.DownloadCalendar)
				reports.GET("/export/students", h.Report.ExportStudents)
			}
		}
	}

	return r
}

// healthCheck 报告数据库、Redis 连通性与当前 schema 版本
// 数据库不可用时返回 503；Redis 仅作降级提示
func healthCheck(db *gorm.DB, rdb *redis.Client, schemaVersion uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{
			"status":         "ok",
			"schema_version": schemaVersion,
		}

		if db != nil {
			body["database"] = "ok"
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = "unreachable"
			}
		}

		switch {
		case rdb == nil:
			body["redis"] = "disabled"
		case rdb.Ping(ctx) != nil:
			body["redis"] = "unreachable"
		default:
			body["redis"] = "ok"
		}

		c.JSON(status, body)
	}
}
