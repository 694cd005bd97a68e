// Package timewindow builds timezone-correct instant pairs for day-scoped
// queries. A court's calendar declares its own civil timezone, which is not
// necessarily the server's, so civil dates are always localized before use.
package timewindow

import (
	"context"
	"sync"
	"time"

	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"
)

const civilDateLayout = "2006-01-02"

// TimezoneSource reports the civil timezone a calendar declares upstream.
type TimezoneSource interface {
	CalendarTimezone(ctx context.Context, calendarID string) (string, error)
}

// Builder resolves calendar timezones through a process-lifetime cache and
// constructs day and range windows. A timezone lookup failure never fails
// the request: UTC is used and memoized instead.
type Builder struct {
	source TimezoneSource
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewBuilder(source TimezoneSource, log *logger.Logger) *Builder {
	return &Builder{
		source: source,
		log:    log,
		cache:  make(map[string]*time.Location),
	}
}

// location returns the calendar's civil timezone, consulting the cache
// first. Concurrent fills of the same key are benign: both writers store the
// same value.
func (b *Builder) location(ctx context.Context, calendarID string) *time.Location {
	b.mu.RLock()
	loc, ok := b.cache[calendarID]
	b.mu.RUnlock()
	if ok {
		return loc
	}

	loc = time.UTC
	name, err := b.source.CalendarTimezone(ctx, calendarID)
	if err != nil {
		b.log.Warn("Timezone lookup failed, defaulting to UTC", "calendar_id", calendarID, "error", err)
	} else if parsed, parseErr := time.LoadLocation(name); parseErr != nil {
		b.log.Warn("Calendar declares unknown timezone, defaulting to UTC",
			"calendar_id", calendarID,
			"timezone", name,
			"error", parseErr,
		)
	} else {
		loc = parsed
	}

	b.mu.Lock()
	b.cache[calendarID] = loc
	b.mu.Unlock()
	return loc
}

// DayWindow covers the full civil day [00:00:00, 23:59:59.999999999] in the
// calendar's own timezone.
func (b *Builder) DayWindow(ctx context.Context, calendarID, civilDate string) (model.TimeWindow, error) {
	day, err := time.Parse(civilDateLayout, civilDate)
	if err != nil {
		return model.TimeWindow{}, apperrors.InvalidDate("invalid date format, use YYYY-MM-DD")
	}

	loc := b.location(ctx, calendarID)
	return model.TimeWindow{
		Start: startOfDay(day, loc),
		End:   endOfDay(day, loc),
	}, nil
}

// RangeWindow resolves optional civil-date bounds for a paged event search.
// A missing minimum defaults to "now" only on the first page; a continuation
// token already encodes the position, so no implicit bound is injected then.
// Nil return values mean "unbounded".
func (b *Builder) RangeWindow(ctx context.Context, calendarID, civilMin, civilMax string, hasPageToken bool) (*time.Time, *time.Time, error) {
	var timeMin, timeMax *time.Time

	if civilMin != "" {
		day, err := time.Parse(civilDateLayout, civilMin)
		if err != nil {
			return nil, nil, apperrors.InvalidDate("invalid start date format, use YYYY-MM-DD")
		}
		t := startOfDay(day, b.location(ctx, calendarID))
		timeMin = &t
	} else if !hasPageToken {
		t := time.Now().UTC()
		timeMin = &t
	}

	if civilMax != "" {
		day, err := time.Parse(civilDateLayout, civilMax)
		if err != nil {
			return nil, nil, apperrors.InvalidDate("invalid end date format, use YYYY-MM-DD")
		}
		t := endOfDay(day, b.location(ctx, calendarID))
		timeMax = &t
	}

	return timeMin, timeMax, nil
}

func startOfDay(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}
