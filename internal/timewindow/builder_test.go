package timewindow

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
)

type mockTimezoneSource struct {
	timezoneFunc func(ctx context.Context, calendarID string) (string, error)
	calls        int
}

func (m *mockTimezoneSource) CalendarTimezone(ctx context.Context, calendarID string) (string, error) {
	m.calls++
	if m.timezoneFunc != nil {
		return m.timezoneFunc(ctx, calendarID)
	}
	return "UTC", nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	})
}

func TestDayWindow_CoversFullCivilDay(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "America/Sao_Paulo", nil
		},
	}
	b := NewBuilder(source, testLogger())

	window, err := b.DayWindow(context.Background(), "court-a@cal", "2024-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loc, _ := time.LoadLocation("America/Sao_Paulo")
	wantStart := time.Date(2024, 6, 15, 0, 0, 0, 0, loc)
	if !window.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, window.Start)
	}
	if window.End.Before(window.Start) {
		t.Error("expected end after start")
	}
	if got := window.End.Format("15:04:05"); got != "23:59:59" {
		t.Errorf("expected end of day, got %s", got)
	}
}

func TestDayWindow_SpringForwardDayIsShorter(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "America/New_York", nil
		},
	}
	b := NewBuilder(source, testLogger())

	// 2024-03-10 loses one hour to DST in America/New_York.
	window, err := b.DayWindow(context.Background(), "court-a@cal", "2024-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := window.Duration()
	if d >= 24*time.Hour {
		t.Errorf("expected spring-forward day shorter than 24h, got %v", d)
	}
	if d < 22*time.Hour {
		t.Errorf("expected roughly 23h, got %v", d)
	}
}

func TestDayWindow_TimezoneCachedPerCalendar(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "America/Sao_Paulo", nil
		},
	}
	b := NewBuilder(source, testLogger())

	for i := 0; i < 5; i++ {
		if _, err := b.DayWindow(context.Background(), "court-a@cal", "2024-06-15"); err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
	}
	if source.calls != 1 {
		t.Errorf("expected a single upstream timezone lookup, got %d", source.calls)
	}

	if _, err := b.DayWindow(context.Background(), "court-b@cal", "2024-06-15"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 2 {
		t.Errorf("expected one lookup per calendar, got %d", source.calls)
	}
}

func TestDayWindow_LookupFailureDefaultsToUTCAndIsCached(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "", errors.New("calendar service unavailable")
		},
	}
	b := NewBuilder(source, testLogger())

	window, err := b.DayWindow(context.Background(), "court-a@cal", "2024-06-15")
	if err != nil {
		t.Fatalf("expected lookup failure to not fail the request: %v", err)
	}
	wantStart := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !window.Start.Equal(wantStart) {
		t.Errorf("expected UTC fallback start %v, got %v", wantStart, window.Start)
	}

	// The UTC fallback is memoized too; the failing source is not retried.
	if _, err := b.DayWindow(context.Background(), "court-a@cal", "2024-06-16"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("expected failed lookup to be cached, got %d calls", source.calls)
	}
}

func TestDayWindow_UnknownTimezoneNameDefaultsToUTC(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "Not/AZone", nil
		},
	}
	b := NewBuilder(source, testLogger())

	window, err := b.DayWindow(context.Background(), "court-a@cal", "2024-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.Start.Location() != time.UTC {
		t.Errorf("expected UTC fallback, got %v", window.Start.Location())
	}
}

func TestDayWindow_InvalidDate(t *testing.T) {
	source := &mockTimezoneSource{}
	b := NewBuilder(source, testLogger())

	_, err := b.DayWindow(context.Background(), "court-a@cal", "15/06/2024")
	if !apperrors.IsCode(err, apperrors.CodeInvalidDate) {
		t.Errorf("expected INVALID_DATE, got %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected date parsing to fail before the timezone lookup, got %d calls", source.calls)
	}
}

func TestRangeWindow_ExplicitBounds(t *testing.T) {
	source := &mockTimezoneSource{
		timezoneFunc: func(ctx context.Context, calendarID string) (string, error) {
			return "America/Sao_Paulo", nil
		},
	}
	b := NewBuilder(source, testLogger())

	timeMin, timeMax, err := b.RangeWindow(context.Background(), "court-a@cal", "2024-06-15", "2024-06-20", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeMin == nil || timeMax == nil {
		t.Fatal("expected both bounds to be set")
	}

	loc, _ := time.LoadLocation("America/Sao_Paulo")
	if !timeMin.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected minimum bound %v", timeMin)
	}
	if got := timeMax.In(loc).Format("2006-01-02 15:04:05"); got != "2024-06-20 23:59:59" {
		t.Errorf("unexpected maximum bound %s", got)
	}
}

func TestRangeWindow_FirstPageDefaultsToNow(t *testing.T) {
	b := NewBuilder(&mockTimezoneSource{}, testLogger())

	before := time.Now().UTC()
	timeMin, timeMax, err := b.RangeWindow(context.Background(), "court-a@cal", "", "", false)
	after := time.Now().UTC()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeMin == nil {
		t.Fatal("expected implicit minimum on the first page")
	}
	if timeMin.Before(before) || timeMin.After(after) {
		t.Errorf("expected minimum near now, got %v", timeMin)
	}
	if timeMax != nil {
		t.Errorf("expected unbounded maximum, got %v", timeMax)
	}
}

func TestRangeWindow_ContinuationPageHasNoImplicitBound(t *testing.T) {
	b := NewBuilder(&mockTimezoneSource{}, testLogger())

	timeMin, timeMax, err := b.RangeWindow(context.Background(), "court-a@cal", "", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeMin != nil {
		t.Errorf("expected no implicit minimum on a continuation page, got %v", timeMin)
	}
	if timeMax != nil {
		t.Errorf("expected unbounded maximum, got %v", timeMax)
	}
}

func TestRangeWindow_InvalidDates(t *testing.T) {
	source := &mockTimezoneSource{}
	b := NewBuilder(source, testLogger())

	if _, _, err := b.RangeWindow(context.Background(), "court-a@cal", "junk", "", false); !apperrors.IsCode(err, apperrors.CodeInvalidDate) {
		t.Errorf("expected INVALID_DATE for bad minimum, got %v", err)
	}
	if _, _, err := b.RangeWindow(context.Background(), "court-a@cal", "", "junk", false); !apperrors.IsCode(err, apperrors.CodeInvalidDate) {
		t.Errorf("expected INVALID_DATE for bad maximum, got %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected validation to fail before any lookup, got %d calls", source.calls)
	}
}
