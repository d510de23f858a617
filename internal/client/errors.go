package client

import (
	"errors"
	"fmt"
)

// ErrClientNotFound indicates an operation targeted an id with no live
// session in the registry.
var ErrClientNotFound = errors.New("client not found")

// NotFound wraps ErrClientNotFound with the offending id.
func NotFound(clientID string) error {
	return fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
}
