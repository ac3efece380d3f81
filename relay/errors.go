package relay

import "github.com/pkg/errors"

// ErrMissingRecipient is returned when a message must be routed to a named
// recipient (supervised mode, or HandlePrivate) but carries none. This is a
// caller contract violation, not a delivery failure.
var ErrMissingRecipient = errors.New("message recipient required")
