package mcp

import (
	"fmt"
	"strings"

	"github.com/quantforge/forge/internal/core/domain"
)

// TerminalError is returned after the retry bound is exhausted. It wraps
// the last observed failure; callers classify it for escalation routing.
type TerminalError struct {
	Service  domain.ServiceID
	Method   string
	Attempts int
	Err      error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s.%s failed after %d attempts: %v",
		e.Service, e.Method, e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// IsSessionError reports whether a failure indicates an invalidated or
// expired session. Matched on failure text so it covers both transports.
func IsSessionError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "session")
}
