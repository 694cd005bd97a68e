// Package ownership decides whether a caller may mutate a booking. Ownership
// is not kept in a separate store: it rides on the booking itself as a
// private extended property written at creation time.
package ownership

import (
	"context"
	"errors"

	"quadras/internal/auth"
	"quadras/internal/gcal"
	apperrors "quadras/pkg/errors"
	"quadras/pkg/logger"
	"quadras/pkg/model"
)

// Decision is the outcome of the pure ownership check.
type Decision int

const (
	DecisionAdmin Decision = iota
	DecisionOwner
	DecisionNotOwner
	DecisionLookupFailed
)

// Decide computes the authorization outcome from data already fetched.
// Admins win unconditionally; otherwise the event's ownership marker must
// equal the caller's verified email exactly.
func Decide(identity auth.Identity, marker string) Decision {
	if identity.IsAdmin {
		return DecisionAdmin
	}
	if marker != "" && marker == identity.Email {
		return DecisionOwner
	}
	return DecisionNotOwner
}

// EventSource is the single upstream read the gate needs.
type EventSource interface {
	Event(ctx context.Context, calendarID, eventID string) (*model.Event, error)
}

type Gate struct {
	events EventSource
	log    *logger.Logger
}

func NewGate(events EventSource, log *logger.Logger) *Gate {
	return &Gate{events: events, log: log}
}

// AuthorizeMutation returns nil when the caller may mutate the event.
// Admins skip the upstream fetch entirely. For everyone else the event is
// fetched and the ownership marker compared; a missing event propagates as
// NotFound so clients can tell a vanished booking from a denied one, while
// any other upstream failure is reported generically.
func (g *Gate) AuthorizeMutation(ctx context.Context, calendarID, eventID string, identity auth.Identity) error {
	if identity.IsAdmin {
		return nil
	}

	event, err := g.events.Event(ctx, calendarID, eventID)
	if err != nil {
		if errors.Is(err, gcal.ErrNotFound) {
			return apperrors.NotFound("event")
		}
		g.log.Error("Ownership check failed against calendar API",
			"calendar_id", calendarID,
			"event_id", eventID,
			"error", err,
		)
		return apperrors.PermissionCheckFailed(err)
	}

	switch Decide(identity, event.PrivateProperty(model.OwnershipMarkerKey)) {
	case DecisionOwner:
		return nil
	default:
		return apperrors.Forbidden("permission denied")
	}
}
