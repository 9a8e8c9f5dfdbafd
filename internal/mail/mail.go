// Package mail delivers password reset links.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/gomail.v2"
)

// Sender dispatches a password reset token to its owner.
type Sender interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

const resetSubject = "SnapGram Password Reset"

// ResetLink is the page a reset token is redeemed on.
func ResetLink(rootURL, token string) string {
	return strings.TrimRight(rootURL, "/") + "/register/reset-password/" + token
}

// ResetMessage returns the subject and plain-text body of the reset mail.
func ResetMessage(rootURL, token string) (string, string) {
	body := fmt.Sprintf("Click the link to reset your SnapGram account password: %s\n"+
		"If you did not request this, please ignore this email", ResetLink(rootURL, token))
	return resetSubject, body
}

// Dialer is the part of *gomail.Dialer SMTPSender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends reset mails over SMTP.
type SMTPSender struct {
	dialer  Dialer
	from    string
	rootURL string
}

// NewSMTPSender dials host:port with the given credentials for every mail.
// from defaults to user.
func NewSMTPSender(host string, port int, user, pass, from, rootURL string) *SMTPSender {
	if from == "" {
		from = user
	}
	return NewSMTPSenderWithDialer(gomail.NewDialer(host, port, user, pass), from, rootURL)
}

func NewSMTPSenderWithDialer(d Dialer, from, rootURL string) *SMTPSender {
	return &SMTPSender{dialer: d, from: from, rootURL: rootURL}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := ResetMessage(s.rootURL, token)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// LogSender writes the reset link to the log instead of mailing it.
type LogSender struct {
	logger  echo.Logger
	rootURL string
}

func NewLogSender(logger echo.Logger, rootURL string) *LogSender {
	return &LogSender{logger: logger, rootURL: rootURL}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, token string) error {
	s.logger.Infof("password reset for %s: %s", email, ResetLink(s.rootURL, token))
	return nil
}
