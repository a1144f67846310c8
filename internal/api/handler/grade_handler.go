package handler

import (
	"github.com/gin-gonic/gin"

	"school-records/internal/dto"
	"school-records/internal/service"
	"school-records/pkg/response"
)

// GradeHandler 成绩模块 HTTP 处理器
type GradeHandler struct {
	gradeSvc service.GradeService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc}
}

// CreateGrade 录入成绩
// POST /api/v1/grades
func (h *GradeHandler) CreateGrade(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.gradeSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// GetGrade 成绩详情
// GET /api/v1/grades/:id
func (h *GradeHandler) GetGrade(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	result, err := h.gradeSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListGrades 成绩列表（学生只返回自己的成绩）
// GET /api/v1/grades
func (h *GradeHandler) ListGrades(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.GradeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.gradeSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// UpdateGrade 更新成绩
// PATCH /api/v1/grades/:id
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.gradeSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteGrade 删除成绩
// DELETE /api/v1/grades/:id
func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	if err := h.gradeSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	response.NoContent(c)
}
