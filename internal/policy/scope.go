package policy

// Filter 列表查询的静默过滤条件
// 非空字段即为附加的 WHERE 条件；None 表示调用方不可能拥有任何记录
type Filter struct {
	UserID    string
	StudentID string
	TeacherID string
	None      bool
}

// Scope 返回 subject 列出 entity 时应附加的过滤条件
func Scope(entity Entity, s Subject) Filter {
	if s.IsAdmin() {
		return Filter{}
	}

	switch entity {
	case EntityUser:
		return Filter{UserID: s.UserID, None: s.UserID == ""}
	case EntityStudent, EntityEnrollment, EntityGrade:
		if s.IsTeacher() {
			return Filter{}
		}
		if s.IsStudent() {
			return Filter{StudentID: s.StudentID, None: s.StudentID == ""}
		}
		return Filter{None: true}
	case EntityCourse:
		if s.IsTeacher() {
			return Filter{TeacherID: s.TeacherID, None: s.TeacherID == ""}
		}
		return Filter{}
	case EntityTeacher:
		return Filter{}
	}
	return Filter{None: true}
}
