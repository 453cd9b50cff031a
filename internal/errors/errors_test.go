package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestErrorCode_Status(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeServiceUnavail, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	cause := stderrors.New("disk gone")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"app error", BadRequestWrap(cause, "Invalid signals"), http.StatusBadRequest, CodeBadRequest},
		{"wrapped app error", fmt.Errorf("handler: %w", ServiceUnavailableWrap(cause, "Dataset not available")), http.StatusServiceUnavailable, CodeServiceUnavail},
		{"plain error", cause, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, testLogger(), tt.err, "req-1")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q", ct)
			}

			var response struct {
				Success bool `json:"success"`
				Error   struct {
					Code      ErrorCode `json:"code"`
					RequestID string    `json:"request_id"`
				} `json:"error"`
			}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if response.Success {
				t.Error("expected success=false")
			}
			if response.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", response.Error.Code, tt.wantCode)
			}
			if response.Error.RequestID != "req-1" {
				t.Errorf("request_id = %q, want req-1", response.Error.RequestID)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("bad json")
	err := BadRequestWrap(cause, "Invalid filter selection")

	if !stderrors.Is(err, cause) {
		t.Error("AppError should unwrap to its cause")
	}
	if err.logLevel() != slog.LevelWarn {
		t.Error("client errors should log at warn")
	}
	if InternalWrap(cause, "x").logLevel() != slog.LevelError {
		t.Error("server errors should log at error")
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()

	WriteSuccessWithHeaders(w, map[string]int{"records": 4}, map[string]string{"Cache-Control": "no-store"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var response SuccessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true")
	}
}
