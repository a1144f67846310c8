package handler

import (
	"github.com/gin-gonic/gin"

	"school-records/internal/dto"
	"school-records/internal/service"
	"school-records/pkg/response"
)

// StudentHandler 学生档案模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// CreateStudent 创建学生档案
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.studentSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// GetStudent 学生档案详情
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	result, err := h.studentSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListStudents 学生档案列表（学生只返回本人档案）
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.studentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// UpdateStudent 更新学生档案
// PATCH /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.studentSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteStudent 删除学生档案
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	response.NoContent(c)
}
