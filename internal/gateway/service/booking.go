package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"quadras/internal/audit"
	"quadras/internal/auth"
	"quadras/internal/directory"
	"quadras/internal/gateway/validator"
	"quadras/internal/gcal"
	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"
)

// Engine is the external booking collaborator. Real calendar IDs and built
// time windows pass through unchanged; results come back untouched except
// for response shaping.
type Engine interface {
	AccessibleCalendars(ctx context.Context, email string) ([]string, error)
	FindEvents(ctx context.Context, calendarID string, timeMin, timeMax *time.Time, pageToken string) (*model.EventList, error)
	CreateBooking(ctx context.Context, calendarID string, req *model.EventCreateRequest, requester string) (*model.CreateEventResponse, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, req *model.EventUpdateRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	DeleteSeries(ctx context.Context, calendarID, eventID, scope string) (int, error)
	BusyIntervals(ctx context.Context, calendarID string, window model.TimeWindow) ([]model.BusyInterval, error)
}

// MutationAuthorizer guards every mutation path.
type MutationAuthorizer interface {
	AuthorizeMutation(ctx context.Context, calendarID, eventID string, identity auth.Identity) error
}

// WindowBuilder constructs timezone-correct query bounds.
type WindowBuilder interface {
	DayWindow(ctx context.Context, calendarID, civilDate string) (model.TimeWindow, error)
	RangeWindow(ctx context.Context, calendarID, civilMin, civilMax string, hasPageToken bool) (*time.Time, *time.Time, error)
}

type BookingService interface {
	ListCalendars(ctx context.Context, identity auth.Identity) (*model.CalendarListResponse, error)
	FindEvents(ctx context.Context, identity auth.Identity, alias, civilMin, civilMax, pageToken string) (*model.FindEventsResponse, error)
	CreateEvent(ctx context.Context, identity auth.Identity, alias string, req *model.EventCreateRequest) (*model.CreateEventResponse, error)
	UpdateEvent(ctx context.Context, identity auth.Identity, alias, eventID string, req *model.EventUpdateRequest) (*model.ActionResponse, error)
	DeleteEvent(ctx context.Context, identity auth.Identity, alias, eventID string) (*model.ActionResponse, error)
	DeleteRecurringEvent(ctx context.Context, identity auth.Identity, alias, eventID, scope string) (*model.ActionResponse, error)
	FindAvailability(ctx context.Context, identity auth.Identity, alias, civilDate string) (*model.AvailabilityResponse, error)
}

type bookingService struct {
	dir             *directory.Directory
	engine          Engine
	gate            MutationAuthorizer
	windows         WindowBuilder
	validator       *validator.EventValidator
	audit           audit.Publisher
	defaultTimezone string
	log             *logger.Logger
}

func NewBookingService(
	dir *directory.Directory,
	engine Engine,
	gate MutationAuthorizer,
	windows WindowBuilder,
	eventValidator *validator.EventValidator,
	auditPublisher audit.Publisher,
	defaultTimezone string,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		dir:             dir,
		engine:          engine,
		gate:            gate,
		windows:         windows,
		validator:       eventValidator,
		audit:           auditPublisher,
		defaultTimezone: defaultTimezone,
		log:             log,
	}
}

// ListCalendars returns the courts visible to the caller, by alias only.
// Admins see every registered court without touching the calendar API. For
// everyone else the caller's accessible calendars are fetched by
// impersonation and intersected with the directory; accessible calendars
// without a registered alias are silently dropped.
func (s *bookingService) ListCalendars(ctx context.Context, identity auth.Identity) (*model.CalendarListResponse, error) {
	var aliases []string

	if identity.IsAdmin {
		aliases = s.dir.Aliases()
		s.log.Info("Admin listing all courts", "user", identity.Email, "count", len(aliases))
	} else {
		calendarIDs, err := s.engine.AccessibleCalendars(ctx, identity.Email)
		if err != nil {
			s.log.Error("Failed to list accessible calendars", "user", identity.Email, "error", err)
			return nil, apperrors.PermissionCheckFailed(err)
		}
		for _, id := range calendarIDs {
			if alias, ok := s.dir.AliasFor(id); ok {
				aliases = append(aliases, alias)
			}
		}
		sort.Strings(aliases)
		s.log.Info("User court visibility computed", "user", identity.Email, "count", len(aliases))
	}

	items := make([]model.CalendarListEntry, 0, len(aliases))
	for _, alias := range aliases {
		items = append(items, model.CalendarListEntry{
			ID:         alias,
			Summary:    alias,
			TimeZone:   s.defaultTimezone,
			AccessRole: "writer",
		})
	}
	return &model.CalendarListResponse{Items: items}, nil
}

func (s *bookingService) FindEvents(ctx context.Context, identity auth.Identity, alias, civilMin, civilMax, pageToken string) (*model.FindEventsResponse, error) {
	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}

	timeMin, timeMax, err := s.windows.RangeWindow(ctx, calendarID, civilMin, civilMax, pageToken != "")
	if err != nil {
		return nil, err
	}

	events, err := s.engine.FindEvents(ctx, calendarID, timeMin, timeMax, pageToken)
	if err != nil {
		s.log.Error("Event search failed", "court", alias, "calendar_id", calendarID, "error", err)
		return nil, err
	}

	return &model.FindEventsResponse{
		UserEmail: identity.Email,
		IsAdmin:   identity.IsAdmin,
		Events:    *events,
	}, nil
}

func (s *bookingService) CreateEvent(ctx context.Context, identity auth.Identity, alias string, req *model.EventCreateRequest) (*model.CreateEventResponse, error) {
	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}

	resp, err := s.engine.CreateBooking(ctx, calendarID, req, identity.Email)
	if err != nil {
		s.log.Error("Booking creation failed", "court", alias, "calendar_id", calendarID, "error", err)
		return nil, err
	}

	if resp.CreatedCount > 0 {
		eventID := ""
		if resp.Event != nil {
			eventID = resp.Event.ID
		}
		s.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionCreated,
			Actor:      identity.Email,
			Admin:      identity.IsAdmin,
			CourtAlias: alias,
			CalendarID: calendarID,
			EventID:    eventID,
			Detail:     req.Summary,
		})
	}
	return resp, nil
}

func (s *bookingService) UpdateEvent(ctx context.Context, identity auth.Identity, alias, eventID string, req *model.EventUpdateRequest) (*model.ActionResponse, error) {
	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(req); err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeMutation(ctx, calendarID, eventID, identity); err != nil {
		return nil, err
	}

	updated, err := s.engine.UpdateEvent(ctx, calendarID, eventID, req)
	if err != nil {
		if errors.Is(err, gcal.ErrNotFound) {
			return nil, apperrors.NotFound("event")
		}
		s.log.Error("Booking update failed", "court", alias, "event_id", eventID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdated,
		Actor:      identity.Email,
		Admin:      identity.IsAdmin,
		CourtAlias: alias,
		CalendarID: calendarID,
		EventID:    eventID,
	})
	return &model.ActionResponse{Message: "booking updated", Event: updated}, nil
}

func (s *bookingService) DeleteEvent(ctx context.Context, identity auth.Identity, alias, eventID string) (*model.ActionResponse, error) {
	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeMutation(ctx, calendarID, eventID, identity); err != nil {
		return nil, err
	}

	if err := s.engine.DeleteEvent(ctx, calendarID, eventID); err != nil {
		s.log.Error("Booking deletion failed", "court", alias, "event_id", eventID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDeleted,
		Actor:      identity.Email,
		Admin:      identity.IsAdmin,
		CourtAlias: alias,
		CalendarID: calendarID,
		EventID:    eventID,
	})
	return &model.ActionResponse{Message: "booking deleted"}, nil
}

func (s *bookingService) DeleteRecurringEvent(ctx context.Context, identity auth.Identity, alias, eventID, scope string) (*model.ActionResponse, error) {
	switch scope {
	case "this_event", "future_events", "all_events":
	default:
		return nil, apperrors.InvalidInput("delete_scope must be one of: this_event, future_events, all_events")
	}

	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeMutation(ctx, calendarID, eventID, identity); err != nil {
		return nil, err
	}

	deleted, err := s.engine.DeleteSeries(ctx, calendarID, eventID, scope)
	if err != nil {
		if errors.Is(err, gcal.ErrNotFound) {
			return nil, apperrors.NotFound("event")
		}
		s.log.Error("Recurring deletion failed", "court", alias, "event_id", eventID, "scope", scope, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDeleted,
		Actor:      identity.Email,
		Admin:      identity.IsAdmin,
		CourtAlias: alias,
		CalendarID: calendarID,
		EventID:    eventID,
		Detail:     scope,
	})
	s.log.Info("Recurring booking deleted", "court", alias, "scope", scope, "deleted", deleted)
	return &model.ActionResponse{Message: "booking(s) deleted"}, nil
}

func (s *bookingService) FindAvailability(ctx context.Context, identity auth.Identity, alias, civilDate string) (*model.AvailabilityResponse, error) {
	calendarID, err := s.dir.Resolve(alias)
	if err != nil {
		return nil, err
	}

	window, err := s.windows.DayWindow(ctx, calendarID, civilDate)
	if err != nil {
		return nil, err
	}

	busy, err := s.engine.BusyIntervals(ctx, calendarID, window)
	if err != nil {
		s.log.Error("Availability query failed", "court", alias, "date", civilDate, "error", err)
		return nil, err
	}
	return &model.AvailabilityResponse{Busy: busy}, nil
}
