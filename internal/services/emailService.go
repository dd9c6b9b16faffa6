package services

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"konnectia/internal/metrics"
)

var errEmailDisabled = errors.New("email delivery is not configured")

type EmailService interface {
	SendEmail(to, subject, msg string) error
}

type emailService struct {
	from   string
	dialer *gomail.Dialer
}

// NewEmailService sends through the given SMTP relay. Without a host or
// account every send fails with errEmailDisabled; callers treat email as
// best-effort.
func NewEmailService(host string, port int, username, password string) EmailService {
	if host == "" || username == "" {
		return &emailService{}
	}
	return &emailService{
		from:   username,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (e *emailService) SendEmail(to, subject, msg string) error {
	if e.dialer == nil {
		return errEmailDisabled
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.from, "Konnectia")
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", msg)

	if err := e.dialer.DialAndSend(m); err != nil {
		metrics.MessagesSentTotal.WithLabelValues("email", "error").Inc()
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	metrics.MessagesSentTotal.WithLabelValues("email", "success").Inc()
	return nil
}
