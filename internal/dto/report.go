package dto

// ── 报表模块 DTO ──

// StudentGradeReport 学生成绩汇总
type StudentGradeReport struct {
	StudentID      string     `json:"student_id"`
	StudentName    string     `json:"student_name"`
	GradeLevel     int        `json:"grade_level"`
	EnrollmentDate string     `json:"enrollment_date"`
	Courses        []GradeRow `json:"courses"`
	GeneratedAt    string     `json:"generated_at"`
}

// GradeRow 成绩汇总中的一门课程
// Grade 为最近一次成绩的百分制得分，未评分时为 nil
type GradeRow struct {
	CourseID       string   `json:"course_id"`
	CourseName     string   `json:"course_name"`
	CourseCode     string   `json:"course_code"`
	EnrollmentDate string   `json:"enrollment_date"`
	Grade          *float64 `json:"grade"`
	GradeDate      *string  `json:"grade_date"`
}

// ReportFileResponse 报表文件生成结果
type ReportFileResponse struct {
	Filename    string `json:"filename"`
	FilePath    string `json:"file_path"`
	GeneratedAt string `json:"generated_at"`
	FileType    string `json:"file_type"` // pdf | xlsx | ics
}
