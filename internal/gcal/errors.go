package gcal

import (
	"errors"

	"google.golang.org/api/googleapi"
)

// ErrNotFound marks an event or calendar the upstream API does not know.
// Callers distinguish it from transport or permission failures.
var ErrNotFound = errors.New("gcal: not found")

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	return gErr.Code == 404 || gErr.Code == 410
}
