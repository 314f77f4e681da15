package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrIntentTerminal = errors.New("payment intent is in a terminal state")
	ErrIntentInFlight = errors.New("payment intent is already executing")
	ErrAbuseBlocked   = errors.New("request blocked")
)

// ValidationError rejects a malformed request before any guard or backend
// call happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WalletKindError marks an execution attempt against a wallet reference that
// requires human signing. Fatal for the unattended path, never retried.
type WalletKindError struct {
	WalletRef string
}

func (e *WalletKindError) Error() string {
	return fmt.Sprintf("wallet %q is an externally-signed wallet address; unattended execution requires a custodial wallet id", e.WalletRef)
}

// ExternalServiceError wraps a failed or timed-out payment-backend call.
type ExternalServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment backend %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("payment backend %s failed", e.Op)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
