package gcal

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return loc
}

func TestExpandOccurrences_Daily(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, loc)
	end := start.Add(time.Hour)
	until := time.Date(2024, 6, 14, 0, 0, 0, 0, loc)

	occurrences, err := expandOccurrences(start, end, "daily", until, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 5 {
		t.Fatalf("expected 5 daily occurrences, got %d", len(occurrences))
	}
	if !occurrences[0].start.Equal(start) {
		t.Errorf("expected first occurrence at the requested slot, got %v", occurrences[0].start)
	}
	for i, occ := range occurrences {
		if occ.end.Sub(occ.start) != time.Hour {
			t.Errorf("occurrence %d: expected 1h duration, got %v", i, occ.end.Sub(occ.start))
		}
	}
	last := occurrences[len(occurrences)-1]
	if last.start.Day() != 14 {
		t.Errorf("expected series to run through the end date, last start %v", last.start)
	}
}

func TestExpandOccurrences_WeeklyByDays(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	// 2024-06-10 is a Monday.
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, loc)
	end := start.Add(90 * time.Minute)
	until := time.Date(2024, 6, 23, 0, 0, 0, 0, loc)

	occurrences, err := expandOccurrences(start, end, "weekly", until, []string{"MO", "WE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mondays 10, 17 and Wednesdays 12, 19.
	if len(occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		wd := occ.start.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Errorf("occurrence %d: expected Monday or Wednesday, got %v", i, wd)
		}
		if got := occ.start.Format("15:04"); got != "18:00" {
			t.Errorf("occurrence %d: expected slot time preserved, got %s", i, got)
		}
	}
}

func TestExpandOccurrences_Monthly(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, loc)
	end := start.Add(2 * time.Hour)
	until := time.Date(2024, 4, 15, 0, 0, 0, 0, loc)

	occurrences, err := expandOccurrences(start, end, "monthly", until, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 4 {
		t.Fatalf("expected 4 monthly occurrences, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		if occ.start.Day() != 15 {
			t.Errorf("occurrence %d: expected day 15, got %d", i, occ.start.Day())
		}
	}
}

func TestExpandOccurrences_EndDateInclusive(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	// Until equals the start date: the single requested slot still books.
	occurrences, err := expandOccurrences(start, end, "daily", time.Date(2024, 6, 10, 0, 0, 0, 0, loc), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 1 {
		t.Errorf("expected the end date itself to be included, got %d occurrences", len(occurrences))
	}
}

func TestExpandOccurrences_CappedFanOut(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 1, 1, 18, 0, 0, 0, loc)
	end := start.Add(time.Hour)
	until := time.Date(2030, 1, 1, 0, 0, 0, 0, loc)

	occurrences, err := expandOccurrences(start, end, "daily", until, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != maxOccurrences {
		t.Errorf("expected fan-out capped at %d, got %d", maxOccurrences, len(occurrences))
	}
}

func TestExpandOccurrences_UnknownFrequency(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, loc)

	if _, err := expandOccurrences(start, start.Add(time.Hour), "yearly", start.AddDate(0, 1, 0), nil); err == nil {
		t.Fatal("expected error for unsupported frequency")
	}
}

func TestExpandOccurrences_UnknownWeekday(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, loc)

	if _, err := expandOccurrences(start, start.Add(time.Hour), "weekly", start.AddDate(0, 1, 0), []string{"XX"}); err == nil {
		t.Fatal("expected error for unknown weekday code")
	}
}
