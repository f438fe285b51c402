// Package fault defines the error taxonomy shared by the pipeline adapters
// and the turn orchestrator. Adapters convert low-level failures into one of
// these kinds; the orchestrator decides abort-vs-degrade per stage.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// Validation 表示输入缺失或格式错误，不重试，原样反馈给客户端。
	Validation Kind = "validation"
	// Permanent 表示上游明确拒绝了请求（4xx 类），不重试。
	Permanent Kind = "permanent"
	// Transient 表示重试额度用尽后上游仍不可用。
	Transient Kind = "transient"
	// NotFound 表示引用的会话/角色/场景不存在。
	NotFound Kind = "not_found"
	// Persistence 表示存储写入失败。
	Persistence Kind = "persistence"
)

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a fault of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a fault of the given kind around an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or empty when err is not a fault.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is a fault of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
