package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the closed error taxonomy exposed to host callers.
type Kind uint8

const (
	KindOperationFailed Kind = iota + 1
	KindGetResultItemsFailed
	KindInvalidInput
	KindTimeout
)

// Kinds lists every member of the taxonomy.
func Kinds() []Kind {
	return []Kind{KindOperationFailed, KindGetResultItemsFailed, KindInvalidInput, KindTimeout}
}

func (k Kind) String() string {
	switch k {
	case KindOperationFailed:
		return "OperationFailed"
	case KindGetResultItemsFailed:
		return "GetResultItemsFailed"
	case KindInvalidInput:
		return "InvalidInput"
	case KindTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is the only error shape that crosses the inventory boundary.
// Detail is free-form diagnostics and never widens the Kind set.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrOperationFailed      = &Error{Kind: KindOperationFailed}
	ErrGetResultItemsFailed = &Error{Kind: KindGetResultItemsFailed}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrTimeout              = &Error{Kind: KindTimeout}
)

// NewError builds a taxonomy error with a diagnostic detail.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// InvalidInput builds a KindInvalidInput error wrapping cause.
func InvalidInput(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Detail: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "inventory: " + e.Kind.String()
	}
	return "inventory: " + e.Kind.String() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf extracts the taxonomy kind from err.
func KindOf(err error) (Kind, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind, true
	}
	return 0, false
}

// FromNative maps any error produced by a Client into the taxonomy. The mapping
// over NativeError is total; codes outside the known set and errors that carry
// no native code become KindOperationFailed so nothing escapes untyped.
func FromNative(err error) *Error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}

	var ne NativeError
	if errors.As(err, &ne) {
		kind, known := kindFromNative(ne)
		detail := err.Error()
		if !known {
			detail = fmt.Sprintf("unrecognized native error code %d: %s", uint8(ne), err.Error())
		}
		return &Error{Kind: kind, Detail: detail, cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: err.Error(), cause: err}
	}
	return &Error{Kind: KindOperationFailed, Detail: err.Error(), cause: err}
}

func kindFromNative(ne NativeError) (Kind, bool) {
	switch ne {
	case NativeOperationFailed:
		return KindOperationFailed, true
	case NativeGetResultItemsFailed:
		return KindGetResultItemsFailed, true
	case NativeInvalidInput:
		return KindInvalidInput, true
	case NativeTimeout:
		return KindTimeout, true
	default:
		return KindOperationFailed, false
	}
}
