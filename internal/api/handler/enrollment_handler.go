package handler

import (
	"github.com/gin-gonic/gin"

	"school-records/internal/dto"
	"school-records/internal/service"
	"school-records/pkg/response"
)

// EnrollmentHandler 选课模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// CreateEnrollment 选课
// POST /api/v1/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.enrollmentSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// GetEnrollment 选课详情
// GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListEnrollments 选课列表（学生只返回自己的选课）
// GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.EnrollmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.enrollmentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// UpdateEnrollment 修改选课状态
// PATCH /api/v1/enrollments/:id
func (h *EnrollmentHandler) UpdateEnrollment(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.enrollmentSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteEnrollment 删除选课
// DELETE /api/v1/enrollments/:id
func (h *EnrollmentHandler) DeleteEnrollment(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	if err := h.enrollmentSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	response.NoContent(c)
}
