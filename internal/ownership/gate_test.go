package ownership

import (
	"context"
	"errors"
	"io"
	"testing"

	"quadras/internal/auth"
	"quadras/internal/gcal"
	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"
)

type mockEventSource struct {
	eventFunc func(ctx context.Context, calendarID, eventID string) (*model.Event, error)
	calls     int
}

func (m *mockEventSource) Event(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
	m.calls++
	if m.eventFunc != nil {
		return m.eventFunc(ctx, calendarID, eventID)
	}
	return &model.Event{ID: eventID}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	})
}

func ownedEvent(id, owner string) *model.Event {
	return &model.Event{
		ID: id,
		ExtendedProperties: &model.EventExtendedProperties{
			Private: map[string]string{model.OwnershipMarkerKey: owner},
		},
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		identity auth.Identity
		marker   string
		want     Decision
	}{
		{"admin wins regardless of marker", auth.Identity{Email: "admin@example.com", IsAdmin: true}, "someone-else@example.com", DecisionAdmin},
		{"owner matches marker", auth.Identity{Email: "user@example.com"}, "user@example.com", DecisionOwner},
		{"marker for another user", auth.Identity{Email: "user@example.com"}, "other@example.com", DecisionNotOwner},
		{"missing marker", auth.Identity{Email: "user@example.com"}, "", DecisionNotOwner},
		{"case mismatch is not ownership", auth.Identity{Email: "user@example.com"}, "User@example.com", DecisionNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.identity, tt.marker); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAuthorizeMutation_AdminSkipsFetch(t *testing.T) {
	source := &mockEventSource{}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "evt-1",
		auth.Identity{Email: "admin@example.com", IsAdmin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected admin path to skip the event fetch, got %d calls", source.calls)
	}
}

func TestAuthorizeMutation_Owner(t *testing.T) {
	source := &mockEventSource{
		eventFunc: func(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
			return ownedEvent(eventID, "user@example.com"), nil
		},
	}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "evt-1",
		auth.Identity{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("expected exactly one event fetch, got %d", source.calls)
	}
}

func TestAuthorizeMutation_NotOwner(t *testing.T) {
	source := &mockEventSource{
		eventFunc: func(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
			return ownedEvent(eventID, "owner@example.com"), nil
		},
	}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "evt-1",
		auth.Identity{Email: "intruder@example.com"})
	if err == nil {
		t.Fatal("expected denial for non-owner")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != 403 {
		t.Errorf("expected HTTP 403, got %d", appErr.HTTPStatus)
	}
}

func TestAuthorizeMutation_EventWithoutMarker(t *testing.T) {
	source := &mockEventSource{
		eventFunc: func(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
			return &model.Event{ID: eventID}, nil
		},
	}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "evt-1",
		auth.Identity{Email: "user@example.com"})
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN for unmarked event, got %v", err)
	}
}

func TestAuthorizeMutation_EventNotFound(t *testing.T) {
	source := &mockEventSource{
		eventFunc: func(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
			return nil, gcal.ErrNotFound
		},
	}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "gone",
		auth.Identity{Email: "user@example.com"})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for vanished event, got %v", err)
	}
}

func TestAuthorizeMutation_LookupFailure(t *testing.T) {
	source := &mockEventSource{
		eventFunc: func(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
			return nil, errors.New("upstream timeout")
		},
	}
	gate := NewGate(source, testLogger())

	err := gate.AuthorizeMutation(context.Background(), "court-a@cal", "evt-1",
		auth.Identity{Email: "user@example.com"})
	if err == nil {
		t.Fatal("expected error when the ownership lookup fails")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodePermissionCheckFailed {
		t.Errorf("expected PERMISSION_CHECK_FAILED, got %s", appErr.Code)
	}
	if appErr.Message != "could not verify calendar permissions" {
		t.Errorf("expected generic message, got %q", appErr.Message)
	}
}
