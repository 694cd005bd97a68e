package model

type ActionResponse struct {
	Message string `json:"message"`
	Event   *Event `json:"event,omitempty"`
}

type FindEventsResponse struct {
	UserEmail string    `json:"user_email"`
	IsAdmin   bool      `json:"isAdmin"`
	Events    EventList `json:"events"`
}

// SkippedEventInfo reports one recurring occurrence that was not booked,
// with the summary of the conflicting booking as the reason.
type SkippedEventInfo struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

type CreateEventResponse struct {
	ActionResponse
	CreatedCount  int                `json:"created_count"`
	SkippedCount  int                `json:"skipped_count"`
	SkippedEvents []SkippedEventInfo `json:"skipped_events"`
}

type AvailabilityResponse struct {
	Busy []BusyInterval `json:"busy"`
}
