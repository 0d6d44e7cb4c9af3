// Package mail is the delivery boundary for password-recovery messages.
// Actual transport is an operational concern; the default implementation
// writes the event to the service log so local setups work without SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	"indhive.org/internal/obs"
)

// LogMailer logs recovery links instead of sending them. The token itself is
// never written out, only its presence.
type LogMailer struct {
	// ResetURL is the frontend reset page; the token is appended as a
	// query parameter by real transports.
	ResetURL string
}

// NewLogMailer builds a mailer targeting the given reset page URL.
func NewLogMailer(resetURL string) *LogMailer {
	return &LogMailer{ResetURL: strings.TrimSpace(resetURL)}
}

// SendPasswordReset records that a recovery message would have been sent.
func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	if email == "" || token == "" {
		return fmt.Errorf("mail: email and token are required")
	}
	obs.LogRequest(map[string]any{
		"level":     "info",
		"msg":       "password_reset_mail",
		"to":        email,
		"reset_url": m.ResetURL,
	})
	return nil
}
