// Package apperror holds the domain errors every layer shares.
//
// Services return an *AppError (or wrap one with fmt.Errorf); the HTTP layer
// picks the status code from the sentinel with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	// ErrUnauthorized means there is no signed-in user, or the session is gone.
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a sentinel plus a message safe to show the caller.
type AppError struct {
	Err     error
	Message string
	Field   string // set for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found with id %s", resource, id)}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Conflict reports a write that collided with an existing record, such as a
// second follow of the same pick.
func Conflict(resource, id string) *AppError {
	return &AppError{Err: ErrConflict, Message: fmt.Sprintf("%s conflict with id %s", resource, id)}
}

// Forbidden is mapped to 403.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Unauthorized is mapped to 401.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}
