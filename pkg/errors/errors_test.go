package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		want int
	}{
		{"unauthenticated", Unauthenticated("no credential"), CodeUnauthenticated, http.StatusUnauthorized},
		{"unknown resource", UnknownResource("Quadra Z"), CodeUnknownResource, http.StatusBadRequest},
		{"not found", NotFound("event"), CodeNotFound, http.StatusNotFound},
		{"forbidden", Forbidden("permission denied"), CodeForbidden, http.StatusForbidden},
		{"invalid date", InvalidDate("bad date"), CodeInvalidDate, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad input"), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("bad payload", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"permission check failed", PermissionCheckFailed(errors.New("boom")), CodePermissionCheckFailed, http.StatusInternalServerError},
		{"upstream unavailable", UpstreamUnavailable("create", errors.New("boom")), CodeUpstreamUnavailable, http.StatusBadGateway},
		{"internal", Internal("oops", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, tt.err.StatusCode())
			}
		})
	}
}

func TestPermissionCheckFailed_GenericMessage(t *testing.T) {
	cause := errors.New("calendar API: insufficient scopes for court-a@group.calendar.google.com")
	err := PermissionCheckFailed(cause)

	if err.Message != "could not verify calendar permissions" {
		t.Errorf("expected generic client message, got %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay reachable for logs")
	}
}

func TestIsCode(t *testing.T) {
	err := NotFound("event")
	if !IsCode(err, CodeNotFound) {
		t.Error("expected IsCode to match")
	}
	if IsCode(err, CodeForbidden) {
		t.Error("expected IsCode to reject a different code")
	}
	if IsCode(errors.New("plain"), CodeNotFound) {
		t.Error("expected IsCode to reject non-AppError")
	}
}

func TestAsAppError_WrapsUnknown(t *testing.T) {
	appErr := AsAppError(errors.New("plain"))
	if appErr.Code != CodeInternal {
		t.Errorf("expected INTERNAL_ERROR wrapper, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", appErr.HTTPStatus)
	}
}
