package errutil

import (
	"context"
	"errors"
	"fmt"
)

type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BaseError is the error shape returned to API clients. Err is kept for logs only.
type BaseError struct {
	Code    CoreStatus `json:"code"`
	Reason  string     `json:"reason,omitempty"`
	Message string     `json:"message"`
	Details []Detail   `json:"details,omitempty"`
	Err     error      `json:"-"`
}

func (e BaseError) Status() CoreStatus {
	return e.Code
}

func (e BaseError) JSON() interface{} {
	return map[string]interface{}{
		"error": e,
	}
}

func (e BaseError) Unwrap() error {
	return e.Err
}

func (e BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

type Option func(*BaseError)

func WithDetails(details ...Detail) Option {
	return func(be *BaseError) { be.Details = details }
}

func WithErr(err error) Option {
	return func(be *BaseError) { be.Err = err }
}

func WithReason(reason string) Option {
	return func(be *BaseError) { be.Reason = reason }
}

func New(code CoreStatus, message string, opts ...Option) error {
	be := BaseError{Code: code, Message: message}
	for _, opt := range opts {
		opt(&be)
	}
	return be
}

func newWithErr(code CoreStatus, msg string, err error, options []Option) error {
	if err != nil {
		options = append([]Option{WithErr(err)}, options...)
	}
	return New(code, msg, options...)
}

func NotFound(msg string, err error, options ...Option) error {
	return newWithErr(StatusNotFound, msg, err, options)
}

func UnprocessableEntity(msg string, err error, options ...Option) error {
	return newWithErr(StatusUnprocessableEntity, msg, err, options)
}

func Conflict(msg string, err error, options ...Option) error {
	return newWithErr(StatusConflict, msg, err, options)
}

func BadRequest(msg string, err error, options ...Option) error {
	return newWithErr(StatusBadRequest, msg, err, options)
}

func ValidationFailed(msg string, err error, options ...Option) error {
	return newWithErr(StatusValidationFailed, msg, err, options)
}

func Internal(msg string, err error, options ...Option) error {
	return newWithErr(StatusInternal, msg, err, options)
}

func Unauthorized(msg string, err error, options ...Option) error {
	return newWithErr(StatusUnauthorized, msg, err, options)
}

func Forbidden(msg string, err error, options ...Option) error {
	return newWithErr(StatusForbidden, msg, err, options)
}

func Unavailable(msg string, err error, options ...Option) error {
	return newWithErr(StatusServiceUnavailable, msg, err, options)
}

func BadGateway(msg string, err error, options ...Option) error {
	return newWithErr(StatusBadGateway, msg, err, options)
}

// From normalises any error into a BaseError. Unknown errors become an
// internal error with a generic message.
func From(err error) BaseError {
	var base BaseError
	if errors.As(err, &base) {
		return base
	}

	switch {
	case errors.Is(err, context.Canceled):
		return BaseError{Code: StatusClientClosedRequest, Message: "request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return BaseError{Code: StatusTimeout, Message: "request timed out", Err: err}
	}

	return BaseError{Code: StatusInternal, Message: "internal error", Err: err}
}
