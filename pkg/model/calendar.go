package model

import "time"

// CalendarListEntry is a court as presented to clients: the alias stands in
// for the real calendar identifier everywhere.
type CalendarListEntry struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"timeZone"`
	AccessRole string `json:"accessRole,omitempty"`
}

type CalendarListResponse struct {
	Items []CalendarListEntry `json:"items"`
}

// TimeWindow is a pair of aware instants. Start and End always carry a fixed
// offset so comparisons against stored calendar instants are unambiguous.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
