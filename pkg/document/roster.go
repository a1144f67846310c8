package document

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// StudentsSheetName 学生名册工作表名
const StudentsSheetName = "Students"

// StudentRow 学生名册中的一行
type StudentRow struct {
	StudentID      string
	UserID         string
	FirstName      string
	LastName       string
	Email          string
	GradeLevel     int
	EnrollmentDate string
	ParentName     string
	ParentEmail    string
	ParentPhone    string
}

var studentHeaders = []interface{}{
	"Student ID", "User ID", "First Name", "Last Name", "Email",
	"Grade Level", "Enrollment Date", "Parent Name", "Parent Email", "Parent Phone",
}

// StudentRoster 将学生名册写为 XLSX，一行一名学生
func (r *Renderer) StudentRoster(w io.Writer, students []StudentRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StudentsSheetName); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建表头样式失败: %w", err)
	}

	sw, err := f.NewStreamWriter(StudentsSheetName)
	if err != nil {
		return fmt.Errorf("创建写入流失败: %w", err)
	}

	// 列宽须在写入首行之前设置
	for _, c := range []struct {
		min, max int
		width    float64
	}{{1, 2, 38}, {3, 4, 16}, {5, 5, 30}, {6, 7, 16}, {8, 10, 24}} {
		if err := sw.SetColWidth(c.min, c.max, c.width); err != nil {
			return fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	if err := sw.SetRow("A1", studentHeaders, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, s := range students {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			s.StudentID, s.UserID, s.FirstName, s.LastName, s.Email,
			s.GradeLevel, s.EnrollmentDate, s.ParentName, s.ParentEmail, s.ParentPhone,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("刷新写入流失败: %w", err)
	}

	return f.Write(w)
}
