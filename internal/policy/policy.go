// Package policy 访问控制规则
//
// 所有实体的增删改查权限集中在一张规则表中：单条记录操作返回 ErrForbidden，
// 列表操作通过 Scope 静默过滤为调用方自己的记录。
package policy

import (
	"school-records/internal/model"
	apperrors "school-records/pkg/errors"
)

// Entity 受控实体
type Entity string

const (
	EntityUser       Entity = "user"
	EntityStudent    Entity = "student"
	EntityTeacher    Entity = "teacher"
	EntityCourse     Entity = "course"
	EntityEnrollment Entity = "enrollment"
	EntityGrade      Entity = "grade"
	EntityReport     Entity = "report"
)

// Action 操作
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

var (
	ErrForbidden     = apperrors.New(apperrors.KindForbidden, "无权限执行该操作")
	ErrCourseNotOpen = apperrors.New(apperrors.KindUnprocessable, "课程未开放，无法选课")
)

// Subject 调用方身份
// StudentID / TeacherID 为调用方自己的档案 ID，由 Service 层按 user_id 解析
type Subject struct {
	UserID    string
	Role      string
	StudentID string
	TeacherID string
}

func (s Subject) IsAdmin() bool   { return s.Role == model.RoleAdmin }
func (s Subject) IsTeacher() bool { return s.Role == model.RoleTeacher }
func (s Subject) IsStudent() bool { return s.Role == model.RoleStudent }

// Target 规则判定所需的目标记录属性
type Target struct {
	UserID    string // 记录所属用户（User 记录本身 / 档案的 user_id）
	StudentID string // 记录所属学生档案
	TeacherID string // 记录所属教师档案（教师档案本身 / 课程授课教师）

	CourseStatus       string // 选课目标课程状态
	RequestedStatus    string // 选课更新请求的目标状态
	RequestedRole      string // 创建 / 更新用户时请求的角色
	RequestedTeacherID string // 更新课程时请求的授课教师
	ChangesActivation  bool   // 更新用户时是否修改 is_active
}

// Rule 单条规则：允许返回 nil
type Rule func(s Subject, t Target) error

var rules = map[Entity]map[Action]Rule{
	EntityUser: {
		ActionCreate: userCreate,
		ActionRead:   selfOrAdmin,
		ActionUpdate: userUpdate,
		ActionDelete: adminOnly,
	},
	EntityStudent: {
		ActionCreate: adminOnly,
		ActionRead:   staffOrOwnStudent,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
	},
	EntityTeacher: {
		ActionCreate: adminOnly,
		ActionRead:   teacherRead,
		ActionUpdate: teacherUpdate,
		ActionDelete: adminOnly,
	},
	EntityCourse: {
		ActionCreate: courseCreate,
		ActionRead:   anyone,
		ActionUpdate: courseUpdate,
		ActionDelete: adminOnly,
	},
	EntityEnrollment: {
		ActionCreate: enrollmentCreate,
		ActionRead:   staffOrOwnStudent,
		ActionUpdate: enrollmentUpdate,
		ActionDelete: adminOnly,
	},
	EntityGrade: {
		ActionCreate: adminOrCourseTeacher,
		ActionRead:   staffOrOwnStudent,
		ActionUpdate: adminOrCourseTeacher,
		ActionDelete: adminOrCourseTeacher,
	},
	EntityReport: {
		ActionRead:   staffOrOwnStudent,
		ActionExport: staffOnly,
	},
}

// Authorize 判定 subject 能否对 target 执行 action
// 规则表中未登记的组合一律拒绝
func Authorize(entity Entity, action Action, s Subject, t Target) error {
	byAction, ok := rules[entity]
	if !ok {
		return ErrForbidden
	}
	rule, ok := byAction[action]
	if !ok {
		return ErrForbidden
	}
	return rule(s, t)
}

// ── 基础规则 ──

func anyone(Subject, Target) error { return nil }

func adminOnly(s Subject, _ Target) error {
	if s.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

func staffOnly(s Subject, _ Target) error {
	if s.IsAdmin() || s.IsTeacher() {
		return nil
	}
	return ErrForbidden
}

func selfOrAdmin(s Subject, t Target) error {
	if s.IsAdmin() || (s.UserID != "" && s.UserID == t.UserID) {
		return nil
	}
	return ErrForbidden
}

// staffOrOwnStudent 管理员与教师可访问全部；学生仅可访问自己的记录
func staffOrOwnStudent(s Subject, t Target) error {
	if s.IsAdmin() || s.IsTeacher() {
		return nil
	}
	if s.IsStudent() && ownsStudent(s, t) {
		return nil
	}
	return ErrForbidden
}

func ownsStudent(s Subject, t Target) bool {
	return s.StudentID != "" && s.StudentID == t.StudentID
}

func teachesTarget(s Subject, t Target) bool {
	return s.IsTeacher() && s.TeacherID != "" && s.TeacherID == t.TeacherID
}

// ── 实体规则 ──

// userCreate 开放注册，但创建管理员账号需要管理员身份
func userCreate(s Subject, t Target) error {
	if t.RequestedRole == model.RoleAdmin && !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// userUpdate 本人或管理员；非管理员不可修改角色与启用状态
func userUpdate(s Subject, t Target) error {
	if err := selfOrAdmin(s, t); err != nil {
		return err
	}
	if s.IsAdmin() {
		return nil
	}
	if t.RequestedRole != "" && t.RequestedRole != s.Role {
		return ErrForbidden
	}
	if t.ChangesActivation {
		return ErrForbidden
	}
	return nil
}

// teacherRead 教师仅可查看自己的档案；学生与管理员可查看任意教师
func teacherRead(s Subject, t Target) error {
	if s.IsTeacher() && !teachesTarget(s, t) {
		return ErrForbidden
	}
	return nil
}

func teacherUpdate(s Subject, t Target) error {
	if s.IsAdmin() || teachesTarget(s, t) {
		return nil
	}
	return ErrForbidden
}

func courseCreate(s Subject, t Target) error {
	if s.IsAdmin() || teachesTarget(s, t) {
		return nil
	}
	return ErrForbidden
}

// courseUpdate 教师只能修改自己的课程，且不能转给其他教师
func courseUpdate(s Subject, t Target) error {
	if s.IsAdmin() {
		return nil
	}
	if !teachesTarget(s, t) {
		return ErrForbidden
	}
	if t.RequestedTeacherID != "" && t.RequestedTeacherID != s.TeacherID {
		return ErrForbidden
	}
	return nil
}

// enrollmentCreate 学生只能为自己选课；非管理员只能选择进行中的课程
func enrollmentCreate(s Subject, t Target) error {
	switch {
	case s.IsAdmin():
		return nil
	case s.IsTeacher():
	case s.IsStudent():
		if !ownsStudent(s, t) {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	if t.CourseStatus != model.CourseStatusActive {
		return ErrCourseNotOpen
	}
	return nil
}

// enrollmentUpdate 学生只能把自己的选课改为 dropped
func enrollmentUpdate(s Subject, t Target) error {
	if s.IsAdmin() || s.IsTeacher() {
		return nil
	}
	if s.IsStudent() && ownsStudent(s, t) && t.RequestedStatus == model.EnrollmentStatusDropped {
		return nil
	}
	return ErrForbidden
}

func adminOrCourseTeacher(s Subject, t Target) error {
	if s.IsAdmin() || teachesTarget(s, t) {
		return nil
	}
	return ErrForbidden
}
