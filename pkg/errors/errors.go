package errors

import (
	"errors"
	"fmt"
)

// ── 错误分类 ──
// 服务层返回的业务错误都可通过 errors.Is 归入以下某一类，
// Handler 依此映射 HTTP 状态码：NotFound→404，Forbidden→403，
// Validation→400，Conflict/OptimisticLock→409，其余→500。

var (
	ErrNotFound   = errors.New("资源不存在")
	ErrForbidden  = errors.New("无权执行此操作")
	ErrValidation = errors.New("参数校验失败")
	ErrConflict   = errors.New("资源冲突")

	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
)

// BusinessError 携带分类与原因的业务错误
type BusinessError struct {
	Kind   error
	Reason string
}

func (e *BusinessError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Reason
}

// Unwrap 使 errors.Is(err, ErrNotFound) 等判断成立
func (e *BusinessError) Unwrap() error { return e.Kind }

// NotFound 构造 404 类错误
func NotFound(format string, args ...interface{}) error {
	return &BusinessError{Kind: ErrNotFound, Reason: fmt.Sprintf(format, args...)}
}

// Forbidden 构造 403 类错误
func Forbidden(format string, args ...interface{}) error {
	return &BusinessError{Kind: ErrForbidden, Reason: fmt.Sprintf(format, args...)}
}

// Validation 构造 400 类错误
func Validation(format string, args ...interface{}) error {
	return &BusinessError{Kind: ErrValidation, Reason: fmt.Sprintf(format, args...)}
}

// Conflict 构造 409 类错误
func Conflict(format string, args ...interface{}) error {
	return &BusinessError{Kind: ErrConflict, Reason: fmt.Sprintf(format, args...)}
}

// Reason 返回适合直接展示给调用方的错误文案
func Reason(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Error()
	}
	switch {
	case errors.Is(err, ErrOptimisticLock):
		return ErrOptimisticLock.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return err.Error()
	}
	return ""
}
