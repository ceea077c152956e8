package services

import (
	"errors"
)

var (
	// ErrInvalidSurvey is returned when a session is started on a survey it cannot run.
	ErrInvalidSurvey = errors.New("invalid survey")
	// ErrInvalidState is returned for operations on a completed session.
	ErrInvalidState = errors.New("invalid session state")
	// ErrAnswerMismatch is returned when an answer's shape does not fit the current item.
	ErrAnswerMismatch = errors.New("answer does not match item kind")
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// wrapInvalid keeps err reachable through errors.Is while coding it as invalid.
func wrapInvalid(err error) error {
	return &ServiceError{Code: ErrorInvalid, Message: err.Error(), Err: err}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
