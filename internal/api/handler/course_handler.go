package handler

import (
	"github.com/gin-gonic/gin"

	"school-records/internal/dto"
	"school-records/internal/service"
	"school-records/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// CreateCourse 创建课程
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	result, err := h.courseSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListCourses 课程列表（教师只返回自己的课程）
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.courseSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// UpdateCourse 更新课程
// PATCH /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	response.NoContent(c)
}
