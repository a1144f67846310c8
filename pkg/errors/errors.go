package errors

import "errors"

// Kind 业务错误分类，Handler 层据此映射 HTTP 状态码
type Kind int

const (
	KindInternal      Kind = iota
	KindNotFound           // 引用的记录不存在
	KindForbidden          // 调用方角色或归属不满足
	KindConflict           // 唯一性或容量冲突
	KindInvalidInput       // 取值超出允许范围
	KindUnprocessable      // 违反业务规则（如给非活跃选课打分）
)

// String 返回分类名称（用于日志）
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误
//
// 每个模块用 New 声明自己的哨兵错误；errors.Is 既能匹配哨兵本身，
// 也能匹配同分类的 ErrNotFound / ErrForbidden 等通用哨兵。
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is 同分类的通用哨兵视为匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Message == "" && t.Kind == e.Kind
}

// New 创建指定分类的业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ── 通用分类哨兵（Message 为空，仅按 Kind 匹配） ──

var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrUnprocessable = &Error{Kind: KindUnprocessable}
)

// KindOf 提取错误链中的业务分类，非业务错误返回 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
