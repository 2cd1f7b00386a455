package mailer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/tour-booking/internal/config"
)

// Mailer sends transactional email over SMTP.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// New creates a Mailer from the SMTP settings.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)
	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
	return m.dialer.DialAndSend(msg)
}

// SendPasswordReset mails the reset link to a user.
func (m *Mailer) SendPasswordReset(to, name, resetURL string, ttl time.Duration) error {
	first := strings.Fields(name)
	greeting := "Hi,"
	if len(first) > 0 {
		greeting = fmt.Sprintf("Hi %s,", first[0])
	}
	body := fmt.Sprintf("%s\n\nForgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\n"+
		"If you didn't forget your password, please ignore this email!\n", greeting, resetURL)
	return m.Send(Email{
		To:      []string{to},
		Subject: fmt.Sprintf("Your password reset token (valid for %d min)", int(ttl.Minutes())),
		Body:    body,
	})
}
