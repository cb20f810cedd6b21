package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode int
		wantType string
	}{
		{"not found", NewNotFound("x"), http.StatusNotFound, TypeNotFound},
		{"bad request", NewBadRequest("x"), http.StatusBadRequest, TypeBadRequest},
		{"unauthorized", NewUnauthorized("x"), http.StatusUnauthorized, TypeUnauthorized},
		{"invalid credentials", NewInvalidCredentials(), http.StatusUnauthorized, TypeInvalidCredentials},
		{"user exists", NewUserExists(), http.StatusConflict, TypeUserExists},
		{"invalid date", NewInvalidDate("x"), http.StatusBadRequest, TypeInvalidDate},
		{"too many requests", NewTooManyRequests(), http.StatusTooManyRequests, TypeTooManyRequests},
		{"internal", NewInternal(errors.New("boom")), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Type != tt.wantType {
				t.Errorf("type = %q, want %q", tt.err.Type, tt.wantType)
			}
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewInternal(cause)

	if SafeMessage(err) == cause.Error() {
		t.Error("expected internal cause to be hidden from the safe message")
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause to errors.Is")
	}
}

func TestIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewInvalidCredentials())

	if !Is(wrapped, TypeInvalidCredentials) {
		t.Error("expected wrapped invalid_credentials to match")
	}
	if Is(wrapped, TypeUserExists) {
		t.Error("did not expect user_exists to match")
	}
	if SafeCode(wrapped) != http.StatusUnauthorized {
		t.Errorf("SafeCode = %d, want 401", SafeCode(wrapped))
	}
}

func TestSafeHelpers_PlainError(t *testing.T) {
	err := errors.New("select * from users")
	if SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("SafeCode = %d, want 500", SafeCode(err))
	}
	if SafeMessage(err) != "an unexpected error occurred" {
		t.Errorf("SafeMessage leaked %q", SafeMessage(err))
	}
}
