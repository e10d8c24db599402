package types

import (
	"errors"
	"fmt"
)

// Usage errors: the caller drove the library incorrectly.
var (
	ErrAlreadyRunning      = errors.New("DHCP server already started")
	ErrNotStarted          = errors.New("DHCP server not started")
	ErrNoTimeoutConfigured = errors.New("no timeout given and no lease time configured")
	ErrNoInterface         = errors.New("no interface provided")
	ErrInvalidLeaseTime    = errors.New("invalid lease time")
	ErrInvalidTransition   = errors.New("invalid monitoring state transition")
)

// Assertion failures: a presence/absence check did not hold.
var (
	ErrLeaseNotFound = errors.New("no lease found")
	ErrLeaseExists   = errors.New("existing lease found")
)

// Infrastructure errors: the server or the notification channel misbehaved.
var (
	ErrServerStart = errors.New("DHCP server failed to start")
	ErrPortInUse   = errors.New("DHCP server port already in use")
	ErrServerStop  = errors.New("DHCP server failed to stop")
	ErrSubscribe   = errors.New("lease notification subscription failed")
	ErrVersion     = errors.New("DHCP server version query failed")
)

// UsageError wraps an error caused by incorrect use of the monitor.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *UsageError) Unwrap() error { return e.Err }

// AssertionError wraps a failed lease check.
type AssertionError struct {
	MAC string
	Err error
}

func (e *AssertionError) Error() string { return fmt.Sprintf("%v for %s", e.Err, e.MAC) }
func (e *AssertionError) Unwrap() error { return e.Err }

// InfrastructureError wraps a failure of the server process or of the notification channel.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *InfrastructureError) Unwrap() error { return e.Err }

// NewUsageError returns a UsageError for op.
func NewUsageError(op string, err error) error {
	return &UsageError{Op: op, Err: err}
}

// NewAssertionError returns an AssertionError about mac.
func NewAssertionError(mac string, err error) error {
	return &AssertionError{MAC: mac, Err: err}
}

// NewInfrastructureError returns an InfrastructureError for op.
func NewInfrastructureError(op string, err error) error {
	return &InfrastructureError{Op: op, Err: err}
}

func IsUsage(err error) bool {
	var target *UsageError
	return errors.As(err, &target)
}

func IsAssertion(err error) bool {
	var target *AssertionError
	return errors.As(err, &target)
}

func IsInfrastructure(err error) bool {
	var target *InfrastructureError
	return errors.As(err, &target)
}
