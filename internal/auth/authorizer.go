// Package auth gates transaction submission behind an operator confirmation
// and a time-based one-time code.
package auth

import (
	"fmt"
	"strings"

	"spica/internal/model"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
)

// Authorizer holds the process-wide rotating secret. A code is single-use
// only insofar as its window advances: replay inside one acceptance window is
// not detected at this layer.
type Authorizer struct {
	secret string
	log    *zap.Logger
}

// NewAuthorizer creates an Authorizer with an externally supplied base32
// TOTP secret. When secret is empty a fresh one is generated once and
// returned so the operator can enroll it; it lives for the process lifetime.
func NewAuthorizer(secret string, log *zap.Logger) (*Authorizer, string, error) {
	generated := ""
	if secret == "" {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "spica",
			AccountName: "operator",
			Period:      30,
			SecretSize:  32,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate TOTP secret: %w", err)
		}
		secret = key.Secret()
		generated = secret
		log.Info("generated new TOTP secret; reuse it via SPICA_TOTP_SECRET")
	}
	return &Authorizer{secret: secret, log: log}, generated, nil
}

// State is the position of one transfer attempt in the authorization flow.
type State int

const (
	StateAwaitingConfirmation State = iota
	StateAwaitingSecondFactor
	StateAuthorized
	StateRejected
)

// Attempt tracks a single transfer through
// AwaitingConfirmation → AwaitingSecondFactor → Authorized | Rejected.
// Rejection at either stage is terminal: the caller must start a new attempt.
type Attempt struct {
	a     *Authorizer
	state State
}

// Begin starts a new authorization attempt for one built transaction.
func (a *Authorizer) Begin() *Attempt {
	return &Attempt{a: a, state: StateAwaitingConfirmation}
}

// Confirm consumes the operator's answer. Anything other than an explicit
// affirmative ("yes"/"y", case-insensitive) rejects.
func (t *Attempt) Confirm(answer string) error {
	if t.state != StateAwaitingConfirmation {
		return fmt.Errorf("confirm called in state %d", t.state)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		t.state = StateAwaitingSecondFactor
		return nil
	default:
		t.state = StateRejected
		return &model.AuthorizationError{Reason: "user declined"}
	}
}

// VerifyCode checks the one-time code against the current acceptance window.
func (t *Attempt) VerifyCode(code string) error {
	if t.state != StateAwaitingSecondFactor {
		return fmt.Errorf("verify called in state %d", t.state)
	}

	if !totp.Validate(strings.TrimSpace(code), t.a.secret) {
		t.state = StateRejected
		return &model.AuthorizationError{Reason: "invalid code"}
	}
	t.state = StateAuthorized
	return nil
}

// Authorized reports whether the attempt passed both gates.
func (t *Attempt) Authorized() bool {
	return t.state == StateAuthorized
}
