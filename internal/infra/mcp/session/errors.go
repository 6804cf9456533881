package session

import (
	"fmt"

	"github.com/quantforge/forge/internal/core/domain"
)

// UnknownServiceError indicates a request for a service that was never
// registered.
type UnknownServiceError struct {
	Service domain.ServiceID
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

// HandshakeError indicates a failed session handshake under the
// fail-closed policy.
type HandshakeError struct {
	Service domain.ServiceID
	Err     error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("session handshake for %s failed: %v", e.Service, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
