package model

// Private extended-property keys stamped on every booking at creation time.
// OwnershipMarkerKey records the end user who requested the booking and is
// the sole input to mutation authorization for non-admins. SeriesIDKey ties
// together the instances created from one recurring request.
const (
	OwnershipMarkerKey = "requesterEmail"
	SeriesIDKey        = "seriesId"
)

// EventDateTime carries either an all-day date or a timed instant, mirroring
// the upstream calendar representation.
type EventDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type EventAttendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type EventOrganizer struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type EventExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
	Shared  map[string]string `json:"shared,omitempty"`
}

type Event struct {
	ID                 string                   `json:"id"`
	Status             string                   `json:"status,omitempty"`
	HTMLLink           string                   `json:"htmlLink,omitempty"`
	Created            string                   `json:"created,omitempty"`
	Updated            string                   `json:"updated,omitempty"`
	Summary            string                   `json:"summary,omitempty"`
	Description        string                   `json:"description,omitempty"`
	Location           string                   `json:"location,omitempty"`
	Organizer          *EventOrganizer          `json:"organizer,omitempty"`
	Start              EventDateTime            `json:"start"`
	End                EventDateTime            `json:"end"`
	Attendees          []EventAttendee          `json:"attendees,omitempty"`
	Recurrence         []string                 `json:"recurrence,omitempty"`
	RecurringEventID   string                   `json:"recurringEventId,omitempty"`
	ExtendedProperties *EventExtendedProperties `json:"extendedProperties,omitempty"`
}

// PrivateProperty returns the private extended property for key, or "" when
// the event carries none.
func (e *Event) PrivateProperty(key string) string {
	if e == nil || e.ExtendedProperties == nil {
		return ""
	}
	return e.ExtendedProperties.Private[key]
}

type EventList struct {
	Items         []Event `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// EventCreateRequest is the booking payload accepted from clients. Recurrence
// is optional: Frequency empty or "none" means a single booking; "weekly"
// additionally requires RecurrenceDays (two-letter day codes, MO..SU).
type EventCreateRequest struct {
	Summary           string          `json:"summary" validate:"required,max=200"`
	Start             EventDateTime   `json:"start" validate:"required"`
	End               EventDateTime   `json:"end" validate:"required"`
	Description       string          `json:"description,omitempty" validate:"max=2000"`
	Location          string          `json:"location,omitempty" validate:"max=500"`
	Attendees         []string        `json:"attendees,omitempty" validate:"dive,email"`
	Frequency         string          `json:"frequency,omitempty" validate:"omitempty,oneof=none daily weekly monthly"`
	RecurrenceEndDate string          `json:"recurrence_end_date,omitempty"`
	RecurrenceDays    []string        `json:"recurrence_days,omitempty" validate:"dive,oneof=MO TU WE TH FR SA SU"`
}

func (r *EventCreateRequest) Recurring() bool {
	return r.Frequency != "" && r.Frequency != "none"
}

type EventUpdateRequest struct {
	Summary     *string        `json:"summary,omitempty"`
	Start       *EventDateTime `json:"start,omitempty"`
	End         *EventDateTime `json:"end,omitempty"`
	Description *string        `json:"description,omitempty"`
	Location    *string        `json:"location,omitempty"`
}
