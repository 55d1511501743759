package model

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: bad address, non-positive
// amount, wrong key length. Nothing was mutated and no network call was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError checks if error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a wallet name that is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("wallet %q not found", e.Name)
}

// IsNotFoundError checks if error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AuthorizationError terminates the current transfer attempt: the operator
// declined the confirmation or supplied a wrong second-factor code.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// IsAuthorizationError checks if error is an AuthorizationError.
func IsAuthorizationError(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// TransientNetworkError is a connection-level failure (including transport
// timeouts). The call may be re-invoked by the caller; the core never
// retries on its own.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// IsTransientNetworkError checks if error is a TransientNetworkError.
func IsTransientNetworkError(err error) bool {
	var te *TransientNetworkError
	return errors.As(err, &te)
}

// RemoteRejectionError means the request reached the endpoint and was
// refused (insufficient funds, expired blockhash). Never retried
// automatically: re-sending an already rejected transfer risks
// double-submission.
type RemoteRejectionError struct {
	Err error
}

func (e *RemoteRejectionError) Error() string {
	return fmt.Sprintf("rejected by network: %v", e.Err)
}

func (e *RemoteRejectionError) Unwrap() error {
	return e.Err
}

// IsRemoteRejectionError checks if error is a RemoteRejectionError.
func IsRemoteRejectionError(err error) bool {
	var re *RemoteRejectionError
	return errors.As(err, &re)
}

// ErrIntegrity is returned by the secret store when a ciphertext was not
// produced under the current key or has been tampered with. Fatal to the
// operation that needed the secret.
var ErrIntegrity = errors.New("integrity check failed")
