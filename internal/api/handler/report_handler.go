package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"school-records/internal/service"
	"school-records/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// GetStudentGrades 学生成绩汇总
// GET /api/v1/reports/students/:id/grades
func (h *ReportHandler) GetStudentGrades(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.GetStudentGrades(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, report)
}

// DownloadTranscript 生成并下载 PDF 成绩单
// GET /api/v1/reports/students/:id/transcript
func (h *ReportHandler) DownloadTranscript(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	file, err := h.reportSvc.GenerateTranscript(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(file.FilePath, file.Filename)
}

// ExportStudents 批量导出学生（XLSX 写入报表目录）
// GET /api/v1/reports/export/students
func (h *ReportHandler) ExportStudents(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	file, err := h.reportSvc.ExportStudents(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, file)
}

// DownloadCalendar 下载学生课程日历
// GET /api/v1/reports/students/:id/calendar
func (h *ReportHandler) DownloadCalendar(c *gin.Context) {
	caller, ok := MustGetSubject(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.StudentCalendar(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
