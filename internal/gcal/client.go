// Package gcal is the booking engine: every calendar read and write goes
// through the Google Calendar API using service-account credentials that
// impersonate either the backend user or, for permission discovery, the
// caller.
package gcal

import (
	"context"
	"fmt"
	"time"

	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const listPageSize = 50

type Client struct {
	base    *jwt.Config
	subject string
	svc     *calendar.Service
	log     *logger.Logger
}

// NewClient loads service-account credentials and prepares a backend
// calendar service impersonating defaultSubject. Per-caller services are
// derived from the same key on demand.
func NewClient(ctx context.Context, keyJSON []byte, defaultSubject string, log *logger.Logger) (*Client, error) {
	base, err := google.JWTConfigFromJSON(keyJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parsing service account key: %w", err)
	}

	c := &Client{base: base, subject: defaultSubject, log: log}
	c.svc, err = c.serviceAs(ctx, defaultSubject)
	if err != nil {
		return nil, err
	}
	log.Info("Calendar service configured", "impersonating", defaultSubject)
	return c, nil
}

func (c *Client) serviceAs(ctx context.Context, subject string) (*calendar.Service, error) {
	conf := *c.base
	conf.Subject = subject
	svc, err := calendar.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gcal: creating calendar service for %s: %w", subject, err)
	}
	return svc, nil
}

// AccessibleCalendars lists the real calendar IDs visible to the given user
// by querying the calendar list as that user.
func (c *Client) AccessibleCalendars(ctx context.Context, email string) ([]string, error) {
	svc, err := c.serviceAs(ctx, email)
	if err != nil {
		return nil, err
	}

	var ids []string
	pageToken := ""
	for {
		call := svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gcal: listing calendars for %s: %w", email, err)
		}
		for _, entry := range list.Items {
			ids = append(ids, entry.Id)
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// CalendarTimezone returns the civil timezone the calendar declares.
func (c *Client) CalendarTimezone(ctx context.Context, calendarID string) (string, error) {
	cal, err := c.svc.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: fetching calendar %s: %w", calendarID, err)
	}
	return cal.TimeZone, nil
}

// Event fetches a single event including its private extended properties.
func (c *Client) Event(ctx context.Context, calendarID, eventID string) (*model.Event, error) {
	ev, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gcal: fetching event %s: %w", eventID, err)
	}
	return toModelEvent(ev), nil
}

// FindEvents lists events within the optional bounds, expanded to single
// instances and ordered by start time. The page token passes through to the
// upstream API unchanged.
func (c *Client) FindEvents(ctx context.Context, calendarID string, timeMin, timeMax *time.Time, pageToken string) (*model.EventList, error) {
	call := c.svc.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(listPageSize)
	if timeMin != nil {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if timeMax != nil {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	events, err := call.Do()
	if err != nil {
		return nil, apperrors.UpstreamUnavailable("event search", err)
	}

	out := &model.EventList{
		Items:         make([]model.Event, 0, len(events.Items)),
		NextPageToken: events.NextPageToken,
	}
	for _, item := range events.Items {
		out.Items = append(out.Items, *toModelEvent(item))
	}
	return out, nil
}

// CreateBooking inserts the requested slot and, for recurring requests,
// every expanded occurrence. Each occurrence is checked for conflicts first
// and skipped when the slot is already taken; skipped occurrences are
// reported back with the conflicting booking's summary as the reason. Every
// inserted event is stamped with the requester's email as the ownership
// marker, and recurring instances share a generated series ID.
func (c *Client) CreateBooking(ctx context.Context, calendarID string, req *model.EventCreateRequest, requester string) (*model.CreateEventResponse, error) {
	start, err := time.Parse(time.RFC3339, req.Start.DateTime)
	if err != nil {
		return nil, apperrors.InvalidInput("start must be an RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, req.End.DateTime)
	if err != nil {
		return nil, apperrors.InvalidInput("end must be an RFC3339 timestamp")
	}

	occurrences := []occurrence{{start: start, end: end}}
	seriesID := ""
	if req.Recurring() {
		until, err := time.ParseInLocation("2006-01-02", req.RecurrenceEndDate, start.Location())
		if err != nil {
			return nil, apperrors.InvalidDate("invalid recurrence end date, use YYYY-MM-DD")
		}
		occurrences, err = expandOccurrences(start, end, req.Frequency, until, req.RecurrenceDays)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		seriesID = uuid.NewString()
	}

	resp := &model.CreateEventResponse{SkippedEvents: []model.SkippedEventInfo{}}
	var lastCreated *calendar.Event

	for _, occ := range occurrences {
		conflict, err := c.conflictingSummary(ctx, calendarID, occ.start, occ.end)
		if err != nil {
			return nil, apperrors.UpstreamUnavailable("conflict check", err)
		}
		if conflict != "" {
			resp.SkippedCount++
			resp.SkippedEvents = append(resp.SkippedEvents, model.SkippedEventInfo{
				Start:  occ.start.Format(time.RFC3339),
				End:    occ.end.Format(time.RFC3339),
				Reason: conflict,
			})
			continue
		}

		inserted, err := c.svc.Events.Insert(calendarID, c.newEvent(req, occ, requester, seriesID)).Context(ctx).Do()
		if err != nil {
			return nil, apperrors.UpstreamUnavailable("event creation", err)
		}
		resp.CreatedCount++
		lastCreated = inserted
	}

	resp.Message = fmt.Sprintf("%d booking(s) created, %d skipped due to conflicts", resp.CreatedCount, resp.SkippedCount)
	if lastCreated != nil {
		resp.Event = toModelEvent(lastCreated)
	}
	c.log.Info("Booking request processed",
		"calendar_id", calendarID,
		"requester", requester,
		"created", resp.CreatedCount,
		"skipped", resp.SkippedCount,
	)
	return resp, nil
}

// conflictingSummary returns the summary of a confirmed event overlapping
// [start, end), or "" when the slot is free.
func (c *Client) conflictingSummary(ctx context.Context, calendarID string, start, end time.Time) (string, error) {
	events, err := c.svc.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		MaxResults(1).
		Do()
	if err != nil {
		return "", err
	}
	for _, item := range events.Items {
		if item.Status != "cancelled" {
			if item.Summary == "" {
				return "(untitled booking)", nil
			}
			return item.Summary, nil
		}
	}
	return "", nil
}

func (c *Client) newEvent(req *model.EventCreateRequest, occ occurrence, requester, seriesID string) *calendar.Event {
	private := map[string]string{model.OwnershipMarkerKey: requester}
	if seriesID != "" {
		private[model.SeriesIDKey] = seriesID
	}

	ev := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Start:       &calendar.EventDateTime{DateTime: occ.start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: occ.end.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: private,
		},
	}
	for _, email := range req.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}

// UpdateEvent patches only the provided fields.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, req *model.EventUpdateRequest) (*model.Event, error) {
	patch := &calendar.Event{}
	if req.Summary != nil {
		patch.Summary = *req.Summary
	}
	if req.Description != nil {
		patch.Description = *req.Description
	}
	if req.Location != nil {
		patch.Location = *req.Location
	}
	if req.Start != nil {
		patch.Start = &calendar.EventDateTime{DateTime: req.Start.DateTime, TimeZone: req.Start.TimeZone}
	}
	if req.End != nil {
		patch.End = &calendar.EventDateTime{DateTime: req.End.DateTime, TimeZone: req.End.TimeZone}
	}

	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.UpstreamUnavailable("event update", err)
	}
	return toModelEvent(updated), nil
}

// DeleteEvent removes a single event. Already-deleted events are treated as
// success.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return apperrors.UpstreamUnavailable("event deletion", err)
	}
	return nil
}

// DeleteSeries deletes a recurring booking according to scope: this_event
// removes one instance, all_events every instance sharing the series ID, and
// future_events the instances starting at or after the given one. Instances
// are located through the private series marker written at creation time.
// Returns the number of deleted events.
func (c *Client) DeleteSeries(ctx context.Context, calendarID, eventID, scope string) (int, error) {
	target, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, apperrors.UpstreamUnavailable("event lookup", err)
	}

	seriesID := ""
	if target.ExtendedProperties != nil {
		seriesID = target.ExtendedProperties.Private[model.SeriesIDKey]
	}

	if scope == "this_event" || seriesID == "" {
		if err := c.DeleteEvent(ctx, calendarID, eventID); err != nil {
			return 0, err
		}
		return 1, nil
	}

	cutoff := eventStart(target)
	deleted := 0
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			Context(ctx).
			PrivateExtendedProperty(model.SeriesIDKey + "=" + seriesID).
			ShowDeleted(false).
			MaxResults(listPageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return deleted, apperrors.UpstreamUnavailable("series lookup", err)
		}

		for _, item := range list.Items {
			if scope == "future_events" && eventStart(item).Before(cutoff) {
				continue
			}
			if err := c.DeleteEvent(ctx, calendarID, item.Id); err != nil {
				return deleted, err
			}
			deleted++
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			return deleted, nil
		}
	}
}

// BusyIntervals queries free/busy for the window.
func (c *Client) BusyIntervals(ctx context.Context, calendarID string, window model.TimeWindow) ([]model.BusyInterval, error) {
	resp, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.UpstreamUnavailable("availability query", err)
	}

	busy := []model.BusyInterval{}
	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return busy, nil
	}
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		busy = append(busy, model.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

func eventStart(ev *calendar.Event) time.Time {
	if ev.Start == nil {
		return time.Time{}
	}
	if ev.Start.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, ev.Start.DateTime)
		return t
	}
	t, _ := time.Parse("2006-01-02", ev.Start.Date)
	return t
}

func toModelEvent(ev *calendar.Event) *model.Event {
	out := &model.Event{
		ID:               ev.Id,
		Status:           ev.Status,
		HTMLLink:         ev.HtmlLink,
		Created:          ev.Created,
		Updated:          ev.Updated,
		Summary:          ev.Summary,
		Description:      ev.Description,
		Location:         ev.Location,
		Recurrence:       ev.Recurrence,
		RecurringEventID: ev.RecurringEventId,
	}
	if ev.Organizer != nil {
		out.Organizer = &model.EventOrganizer{Email: ev.Organizer.Email, DisplayName: ev.Organizer.DisplayName}
	}
	if ev.Start != nil {
		out.Start = model.EventDateTime{Date: ev.Start.Date, DateTime: ev.Start.DateTime, TimeZone: ev.Start.TimeZone}
	}
	if ev.End != nil {
		out.End = model.EventDateTime{Date: ev.End.Date, DateTime: ev.End.DateTime, TimeZone: ev.End.TimeZone}
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, model.EventAttendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			Optional:       a.Optional,
			ResponseStatus: a.ResponseStatus,
		})
	}
	if ev.ExtendedProperties != nil {
		out.ExtendedProperties = &model.EventExtendedProperties{
			Private: ev.ExtendedProperties.Private,
			Shared:  ev.ExtendedProperties.Shared,
		}
	}
	return out
}
