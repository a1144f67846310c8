package document

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// Transcript 成绩单内容
type Transcript struct {
	StudentName    string
	StudentID      string
	GradeLevel     int
	EnrollmentDate string
	Rows           []TranscriptRow
	GeneratedAt    time.Time
}

// TranscriptRow 成绩单中的一门课程，Grade 为 nil 表示未评分
type TranscriptRow struct {
	CourseCode string
	CourseName string
	Grade      *float64
}

// 成绩单固定文案
const (
	TranscriptTitle     = "Academic Transcript"
	NotGradedText       = "Not graded"
	AverageGradeLabel   = "Average Grade"
	NoCourseRecordsText = "No course records found for this student."
)

// Average 已评分课程的算术平均值；没有任何成绩时 ok 为 false
func (t *Transcript) Average() (avg float64, ok bool) {
	var sum float64
	var n int
	for _, r := range t.Rows {
		if r.Grade == nil {
			continue
		}
		sum += *r.Grade
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// TableRows 成绩单表格内容（含表头与平均分行）
// 没有课程记录时返回 nil
func (t *Transcript) TableRows() [][]string {
	if len(t.Rows) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(t.Rows)+2)
	rows = append(rows, []string{"Course Code", "Course Name", "Grade"})
	for _, r := range t.Rows {
		grade := NotGradedText
		if r.Grade != nil {
			grade = FormatGrade(*r.Grade)
		}
		rows = append(rows, []string{r.CourseCode, r.CourseName, grade})
	}
	if avg, ok := t.Average(); ok {
		rows = append(rows, []string{"", AverageGradeLabel, FormatGrade(avg)})
	}
	return rows
}

// FormatGrade 成绩保留一位小数
func FormatGrade(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// ═══════════════════════════════════════════════════════════
// Transcript 渲染 PDF 成绩单
// ═══════════════════════════════════════════════════════════
//
// 版式：
//   - 标题 + 学生信息块（姓名 / ID / 年级 / 入学日期）
//   - 课程表格（Course Code / Course Name / Grade），末行为平均分
//   - 无课程记录时以一行提示代替表格
//   - 页脚：生成时间 + 页码

func (r *Renderer) Transcript(w io.Writer, t *Transcript) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compressPDF)
	pdf.SetTitle(TranscriptTitle, true)
	pdf.SetCreator("school-records", true)
	pdf.SetCreationDate(t.GeneratedAt)
	pdf.SetModificationDate(t.GeneratedAt)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	generatedOn := "Generated on: " + t.GeneratedAt.Format("2006-01-02 15:04:05")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, generatedOn, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	// ── 标题 ──
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, TranscriptTitle, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// ── 学生信息 ──
	pdf.SetFont("Helvetica", "", 11)
	info := []string{
		"Student: " + tr(t.StudentName),
		"ID: " + t.StudentID,
		fmt.Sprintf("Grade Level: %d", t.GradeLevel),
		"Enrollment Date: " + t.EnrollmentDate,
	}
	for _, line := range info {
		pdf.CellFormat(0, 7, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	// ── 课程表格 ──
	rows := t.TableRows()
	if rows == nil {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 8, NoCourseRecordsText, "", 1, "L", false, 0, "")
		return writePDF(pdf, w)
	}

	_, hasAverage := t.Average()
	widths := []float64{40, 110, 30}
	pdf.SetFillColor(230, 230, 230)
	for i, row := range rows {
		header := i == 0
		summary := hasAverage && i == len(rows)-1
		if header || summary {
			pdf.SetFont("Helvetica", "B", 11)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		for j, text := range row {
			align := "L"
			if j == 2 {
				align = "C"
			}
			pdf.CellFormat(widths[j], 8, tr(text), "1", 0, align, header || summary, 0, "")
		}
		pdf.Ln(-1)
	}

	return writePDF(pdf, w)
}

func writePDF(pdf *fpdf.Fpdf, w io.Writer) error {
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("生成 PDF 失败: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("输出 PDF 失败: %w", err)
	}
	return nil
}
