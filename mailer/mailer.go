// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/danielhkuo/vote-for-me/cliparse"
)

// Invitation is everything needed to invite one participant.
type Invitation struct {
	To                 string
	SessionTitle       string
	SessionDescription string
	VotingURL          string
}

// Sender delivers voting invitations. The core never depends on delivery
// succeeding; handlers report failures as warnings, not errors.
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// FromConfig picks an SMTP sender when a host is configured, otherwise a
// log-only sender suitable for demos and tests.
func FromConfig(cfg cliparse.SMTP) Sender {
	if cfg.Host == "" {
		slog.Info("SMTP not configured, invitations will be logged only")
		return &LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

// LogSender records invitations in the log instead of delivering them.
type LogSender struct{}

func (*LogSender) SendInvitation(_ context.Context, inv Invitation) error {
	slog.Info("invitation (not sent, SMTP unconfigured)",
		"to", inv.To,
		"session_title", inv.SessionTitle,
		"voting_url", inv.VotingURL,
	)
	return nil
}

// SMTPSender delivers invitations over SMTP.
type SMTPSender struct {
	cfg cliparse.SMTP
}

func (s *SMTPSender) SendInvitation(ctx context.Context, inv Invitation) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.SenderName, s.cfg.SenderEmail); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(inv.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Voting Invitation: " + inv.SessionTitle)
	msg.SetBodyString(gomail.TypeTextPlain, composeBody(inv))

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
	}
	if s.cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to build SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}

	slog.Info("invitation sent", "to", inv.To, "session_title", inv.SessionTitle)
	return nil
}

func composeBody(inv Invitation) string {
	var b strings.Builder
	b.WriteString("You're invited to vote\n\n")
	b.WriteString(inv.SessionTitle + "\n\n")
	if inv.SessionDescription != "" {
		b.WriteString(inv.SessionDescription + "\n\n")
	}
	b.WriteString("To vote, open this link in your browser:\n")
	b.WriteString(inv.VotingURL + "\n\n")
	b.WriteString("This is your personal voting link - don't share it with others.\n\n")
	b.WriteString("Vote For Me Platform\n")
	return b.String()
}
