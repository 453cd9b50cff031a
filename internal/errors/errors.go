// Package errors defines the HTTP error envelope shared by every handler and
// the JSON success envelope that mirrors it.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

var codeStatus = map[ErrorCode]int{
	CodeValidation:     http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// Status is the HTTP status answered for the code. Unknown codes are 500.
func (c ErrorCode) Status() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// logLevel keeps client mistakes out of the error log.
func (e *AppError) logLevel() slog.Level {
	if e.StatusCode < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func newError(code ErrorCode, cause error, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: code.Status(),
		Cause:      cause,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return newError(CodeInternal, nil, message)
}

func InternalWrap(err error, message string) *AppError {
	return newError(CodeInternal, err, message)
}

func ValidationWrap(err error, message string) *AppError {
	return newError(CodeValidation, err, message)
}

func NotFound(message string) *AppError {
	return newError(CodeNotFound, nil, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return newError(CodeBadRequest, err, message)
}

func RateLimit(message string) *AppError {
	return newError(CodeRateLimit, nil, message)
}

func ServiceUnavailableWrap(err error, message string) *AppError {
	return newError(CodeServiceUnavail, err, message)
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// WriteError renders err as the JSON error envelope. Errors that do not wrap
// an *AppError are reported as internal errors.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	if encodeErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"cause", err,
			"request_id", requestID,
		)
		return
	}

	logger.Log(context.Background(), appErr.logLevel(), "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	_ = writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
