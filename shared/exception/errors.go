// Package exception defines the error kinds services and handlers raise and
// translates them into response codes for the uniform result envelope.
package exception

import (
	"errors"
	"fmt"
	"strings"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/go-playground/validator/v10"
)

var (
	ErrIllegalArgument  = errors.New("illegal argument")
	ErrIllegalState     = errors.New("illegal state")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// BizError is an explicit domain failure carrying its own code and message.
type BizError struct {
	Code    int
	Message string
	Status  int
	Err     error
}

func (e *BizError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("biz error %d: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("biz error %d: %s", e.Code, e.Message)
}

func (e *BizError) Unwrap() error { return e.Err }

// Is matches any BizError with the same code, so callers can test
// errors.Is(err, exception.ErrNotFound) regardless of the message.
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e that keeps err as its cause.
func (e *BizError) Wrap(err error) *BizError {
	cp := *e
	cp.Err = err
	return &cp
}

func NewBiz(ec errcode.Code, message string) *BizError {
	if message == "" {
		message = ec.Msg
	}
	return &BizError{Code: ec.Code, Message: message, Status: ec.Status}
}

// Sentinel biz errors, compared by code.
var (
	ErrNotFound     = NewBiz(errcode.NotFound, "")
	ErrConflict     = NewBiz(errcode.Conflict, "")
	ErrBadRequest   = NewBiz(errcode.BadRequest, "")
	ErrUnauthorized = NewBiz(errcode.Unauthorized, "")
	ErrForbidden    = NewBiz(errcode.Forbidden, "")
)

func NotFound(what string) *BizError {
	return NewBiz(errcode.NotFound, what+" not found")
}

// NewBizNotFound is a NotFound biz error with a caller supplied message.
func NewBizNotFound(message string) *BizError {
	return NewBiz(errcode.NotFound, message)
}

func Conflict(message string) *BizError {
	return NewBiz(errcode.Conflict, message)
}

func BadRequest(message string) *BizError {
	return NewBiz(errcode.BadRequest, message)
}

// NotReadableError means the request body could not be decoded at all.
type NotReadableError struct {
	Detail string
	Err    error
}

func (e *NotReadableError) Error() string {
	return "request body not readable: " + e.Err.Error()
}

func (e *NotReadableError) Unwrap() error { return e.Err }

// BindError is a query or form binding failure.
type BindError struct {
	Object string
	Value  string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Object, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// TypeMismatchError is a scalar parameter that cannot be converted to the
// type the endpoint expects.
type TypeMismatchError struct {
	Name         string
	Value        string
	RequiredType string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter [%s] value [%s] does not match the expected type [%s]", e.Name, e.Value, e.RequiredType)
}

type MissingParameterError struct {
	Name string
	Type string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter [%s] of type [%s]", e.Name, e.Type)
}

// MediaTypeError is a request whose Content-Type the endpoint does not accept.
type MediaTypeError struct {
	ContentType string
}

func (e *MediaTypeError) Error() string {
	if e.ContentType == "" {
		return "invalid Content-Type"
	}
	return fmt.Sprintf("content type [%s] does not match the endpoint", e.ContentType)
}

type MissingPartError struct {
	Name string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("required request part [%s] is not present", e.Name)
}

// MultipartError wraps a failure to parse a multipart request.
type MultipartError struct {
	Err error
}

func (e *MultipartError) Error() string {
	return "multipart: " + e.Err.Error()
}

func (e *MultipartError) Unwrap() error { return e.Err }

// ConstraintViolationError collects failed constraints on method arguments.
type ConstraintViolationError struct {
	Violations []string
}

func (e *ConstraintViolationError) Error() string {
	return strings.Join(e.Violations, ";")
}

// ArgumentNotValidError is a decoded request body that failed validation.
type ArgumentNotValidError struct {
	Errs validator.ValidationErrors
}

func (e *ArgumentNotValidError) Error() string {
	return "argument not valid: " + e.Errs.Error()
}

func (e *ArgumentNotValidError) Unwrap() error { return e.Errs }

// NullPointerError is a recovered nil dereference.
type NullPointerError struct {
	Value any
}

func (e *NullPointerError) Error() string {
	return fmt.Sprintf("nil pointer: %v", e.Value)
}
