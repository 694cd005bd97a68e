package gcal

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrences caps client-side expansion so a misconfigured request
// cannot fan out into thousands of inserts.
const maxOccurrences = 366

type occurrence struct {
	start time.Time
	end   time.Time
}

var weekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// expandOccurrences turns a recurrence request into concrete start/end
// pairs. The first occurrence is the requested slot itself; the series runs
// through the end of untilDate in the slot's own timezone. Every occurrence
// keeps the original duration.
func expandOccurrences(start, end time.Time, frequency string, untilDate time.Time, byDays []string) ([]occurrence, error) {
	opt := rrule.ROption{
		Dtstart: start,
		Until:   time.Date(untilDate.Year(), untilDate.Month(), untilDate.Day(), 23, 59, 59, 0, start.Location()),
	}

	switch frequency {
	case "daily":
		opt.Freq = rrule.DAILY
	case "weekly":
		opt.Freq = rrule.WEEKLY
		for _, day := range byDays {
			wd, ok := weekdays[day]
			if !ok {
				return nil, fmt.Errorf("gcal: unknown weekday code %q", day)
			}
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	case "monthly":
		opt.Freq = rrule.MONTHLY
	default:
		return nil, fmt.Errorf("gcal: unsupported recurrence frequency %q", frequency)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("gcal: building recurrence rule: %w", err)
	}

	duration := end.Sub(start)
	starts := rule.All()
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}

	occurrences := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		occurrences = append(occurrences, occurrence{start: s, end: s.Add(duration)})
	}
	return occurrences, nil
}
