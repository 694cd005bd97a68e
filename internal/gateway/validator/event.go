package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// EventValidator checks booking payloads before any upstream call. Struct
// tags handle per-field rules; the cross-field recurrence rules live here.
type EventValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	return &EventValidator{
		validate: validator.New(),
		log:      log,
	}
}

func (v *EventValidator) ValidateCreate(req *model.EventCreateRequest) error {
	var problems ValidationErrors

	if err := v.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				problems = append(problems, ValidationError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
				})
			}
		} else {
			problems = append(problems, ValidationError{Field: "request", Message: err.Error()})
		}
	}

	start, startErr := time.Parse(time.RFC3339, req.Start.DateTime)
	if startErr != nil {
		problems = append(problems, ValidationError{Field: "start", Message: "must be an RFC3339 timestamp"})
	}
	end, endErr := time.Parse(time.RFC3339, req.End.DateTime)
	if endErr != nil {
		problems = append(problems, ValidationError{Field: "end", Message: "must be an RFC3339 timestamp"})
	}
	if startErr == nil && endErr == nil && !end.After(start) {
		problems = append(problems, ValidationError{Field: "end", Message: "must be after start"})
	}

	if req.Recurring() {
		if req.RecurrenceEndDate == "" {
			problems = append(problems, ValidationError{Field: "recurrence_end_date", Message: "required for recurring bookings"})
		} else if _, err := time.Parse("2006-01-02", req.RecurrenceEndDate); err != nil {
			problems = append(problems, ValidationError{Field: "recurrence_end_date", Message: "must be YYYY-MM-DD"})
		}
		if req.Frequency == "weekly" && len(req.RecurrenceDays) == 0 {
			problems = append(problems, ValidationError{Field: "recurrence_days", Message: "at least one weekday required for weekly bookings"})
		}
	}

	if len(problems) > 0 {
		v.log.Warn("Booking payload rejected", "errors", problems.Error())
		return apperrors.Validation("invalid booking request", map[string]any{"errors": problems})
	}
	return nil
}

func (v *EventValidator) ValidateUpdate(req *model.EventUpdateRequest) error {
	var problems ValidationErrors

	if req.Summary != nil && *req.Summary == "" {
		problems = append(problems, ValidationError{Field: "summary", Message: "cannot be empty"})
	}
	if req.Start != nil && req.Start.DateTime != "" {
		if _, err := time.Parse(time.RFC3339, req.Start.DateTime); err != nil {
			problems = append(problems, ValidationError{Field: "start", Message: "must be an RFC3339 timestamp"})
		}
	}
	if req.End != nil && req.End.DateTime != "" {
		if _, err := time.Parse(time.RFC3339, req.End.DateTime); err != nil {
			problems = append(problems, ValidationError{Field: "end", Message: "must be an RFC3339 timestamp"})
		}
	}

	if len(problems) > 0 {
		return apperrors.Validation("invalid update request", map[string]any{"errors": problems})
	}
	return nil
}
