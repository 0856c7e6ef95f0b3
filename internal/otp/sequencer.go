// Package otp implements the two-step custom-authentication protocol: issue
// a one-time code out of band, then verify the submitted answer. The three
// entry points (Define, Create, Verify) share state only through the session
// store, never through process memory.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/denizaksu/calcgate/internal/notify"
)

// ChallengeName is the only challenge kind this sequencer issues.
const ChallengeName = "CUSTOM_CHALLENGE"

// Step is one completed protocol step recorded on the session.
type Step struct {
	Challenge string `json:"challenge"`
	Result    bool   `json:"result"`
}

// Directive tells the login flow what to do next.
type Directive struct {
	IssueTokens        bool
	FailAuthentication bool
	Challenge          string
}

// DefineChallenge sequences the protocol from the recorded prior steps.
// Zero steps issues the challenge; one successful custom-challenge step
// issues tokens; anything else fails authentication. There is no second
// attempt.
func DefineChallenge(steps []Step) Directive {
	switch {
	case len(steps) == 0:
		return Directive{Challenge: ChallengeName}
	case len(steps) == 1 && steps[0].Challenge == ChallengeName && steps[0].Result:
		return Directive{IssueTokens: true}
	default:
		return Directive{FailAuthentication: true}
	}
}

// VerifyChallenge reports whether the submitted answer matches the recorded
// secret. An empty secret never verifies.
func VerifyChallenge(answer, secret string) bool {
	return secret != "" && answer == secret
}

// GenerateCode returns a random 6-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// MaskPhone returns the last four digits of the contact address as the
// client-visible hint.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return phone[len(phone)-4:]
}

// CreateChallenge generates the code, delivers it out of band and returns the
// secret plus the public hint. Delivery failure is logged, not raised: the
// secret is still recorded so an operator can recover it from the session.
func CreateChallenge(ctx context.Context, notifier notify.Notifier, phone string) (secret, hint string, err error) {
	code, err := GenerateCode()
	if err != nil {
		return "", "", err
	}

	message := fmt.Sprintf("Your Calculator App login OTP is: %s. Valid for 5 minutes.", code)
	if phone == "" {
		slog.Warn("otp user has no registered phone, skipping delivery")
	} else if err := notifier.Send(ctx, phone, message); err != nil {
		slog.Error("otp delivery failed", "error", err)
	}

	return code, MaskPhone(phone), nil
}
