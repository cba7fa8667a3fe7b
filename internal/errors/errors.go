package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is the stable machine-readable kind of an Error.
type Code string

const (
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL_SERVER_ERROR"
)

var code2http = map[Code]int{
	CodeBadRequest:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeConflict:     http.StatusConflict,
	CodeInternal:     http.StatusInternalServerError,
}

var code2grpc = map[Code]codes.Code{
	CodeBadRequest:   codes.InvalidArgument,
	CodeUnauthorized: codes.Unauthenticated,
	CodeForbidden:    codes.PermissionDenied,
	CodeNotFound:     codes.NotFound,
	CodeConflict:     codes.FailedPrecondition,
	CodeInternal:     codes.Internal,
}

var defaultMessages = map[Code]string{
	CodeBadRequest:   "Bad request",
	CodeUnauthorized: "Unauthorized",
	CodeForbidden:    "Forbidden",
	CodeNotFound:     "Not found",
	CodeConflict:     "Conflict",
	CodeInternal:     "Unexpected server error.",
}

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: defaultMessages[code],
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) GRPCStatus() *status.Status {
	c, ok := code2grpc[e.Code]
	if !ok {
		c = codes.Internal
	}

	return status.New(c, e.Message)
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

// Convert returns err as an *Error. Errors that carry no code are reported as internal.
func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func BadRequest(message string, opts ...Option) *Error {
	return New(CodeBadRequest, append([]Option{WithMessage(message)}, opts...)...)
}

func Unauthorized(opts ...Option) *Error {
	return New(CodeUnauthorized, opts...)
}

func Forbidden(opts ...Option) *Error {
	return New(CodeForbidden, opts...)
}

func NotFound(message string, opts ...Option) *Error {
	return New(CodeNotFound, append([]Option{WithMessage(message)}, opts...)...)
}

func Conflict(message string, opts ...Option) *Error {
	return New(CodeConflict, append([]Option{WithMessage(message)}, opts...)...)
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

func WithDetails(details any) Option {
	return optionFunc(func(e *Error) {
		e.Details = details
	})
}

// WithMessage replaces the default message of the error code.
func WithMessage(msg string) Option {
	return optionFunc(func(e *Error) {
		e.Message = msg
	})
}
