package handler

// JSON RESPONSES:
// Every API error has the same shape, whatever the status code:
//
//	{"error": "not_found", "message": "pick not found with id abc123"}
//
// "error" is machine-readable and stable; "message" is for people.
// Domain errors are mapped to status codes here and nowhere else.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
)

// ErrorResponse is the error envelope of every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sets the header and status before the body; once the body is
// written, header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and error type.
// Anything that is not an *apperror.AppError is a 500.
func errorStatus(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error"
	}
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError sends err in the error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	writeJSON(w, status, body)
}

// FollowErrorResponse is the error envelope of follow and unfollow. It keeps
// the result fields so clients read success and followerCount either way.
type FollowErrorResponse struct {
	ErrorResponse
	model.FollowResult
}

// writeFollowError sends err together with the failed follow result.
func writeFollowError(w http.ResponseWriter, err error, res model.FollowResult) {
	status, body := errorBody(err)
	writeJSON(w, status, FollowErrorResponse{ErrorResponse: body, FollowResult: res})
}

// errorBody builds the envelope for err. Internal errors get a generic
// message: raw store errors can carry SQL or file paths.
func errorBody(err error) (int, ErrorResponse) {
	status, errorType := errorStatus(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}
	return status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	}
}

// maxBodyBytes caps JSON request bodies; preferences and picks are tiny.
const maxBodyBytes = 64 << 10

// decodeJSON reads a JSON body into dst. Unknown fields are rejected so a
// misspelled field fails instead of being silently dropped.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
