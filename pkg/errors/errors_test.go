package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Tenant not found"},
			expected: "NOT_FOUND: Tenant not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeStorage,
				Message: "Failed to load slot records",
				Err:     errors.New("connection reset"),
			},
			expected: "STORAGE_ERROR: Failed to load slot records (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Tenant"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("tenant_id is required"), CodeInvalidInput, http.StatusBadRequest},
		{"missing fields", MissingFields([]string{"name"}), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"conflict", Conflict("slot busy"), CodeConflict, http.StatusConflict},
		{"already canceled", AlreadyCanceled("ABC123"), CodeAlreadyCanceled, http.StatusConflict},
		{"cannot cancel blocked", CannotCancelBlocked("ABC123"), CodeCannotCancelBlocked, http.StatusConflict},
		{"storage", Storage("db down", errors.New("eof")), CodeStorage, http.StatusServiceUnavailable},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Kafka"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestMissingFields_Details(t *testing.T) {
	err := MissingFields([]string{"name", "party_size"})

	fields, ok := err.Details["missing_fields"].([]string)
	if !ok {
		t.Fatalf("expected missing_fields to be []string, got %T", err.Details["missing_fields"])
	}
	if len(fields) != 2 || fields[0] != "name" || fields[1] != "party_size" {
		t.Errorf("unexpected missing fields: %v", fields)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Reservation")
	wrapped := fmt.Errorf("lookup: %w", appErr)
	regularErr := errors.New("regular error")

	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCodeAndIsRetryable(t *testing.T) {
	storageErr := fmt.Errorf("create: %w", Storage("insert failed", errors.New("eof")))

	if !HasCode(storageErr, CodeStorage) {
		t.Errorf("HasCode() should see through wrapping")
	}
	if !IsRetryable(storageErr) {
		t.Errorf("storage errors should be retryable")
	}
	if IsRetryable(AlreadyCanceled("X")) {
		t.Errorf("ALREADY_CANCELED should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Errorf("plain errors should not be retryable")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Reservation", "QX7K2M9P").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code, got %s", jsonStr)
	}
	if !strings.Contains(jsonStr, "QX7K2M9P") {
		t.Errorf("ToJSON() should contain details, got %s", jsonStr)
	}
}
