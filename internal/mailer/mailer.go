// Package mailer delivers rendered report artifacts over SMTP.
package mailer

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends one message per recipient with the report attached
type SMTPMailer struct {
	logger *zap.Logger
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(config Config, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		logger: logger,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

// Send delivers the attachment to a single recipient
func (m *SMTPMailer) Send(recipient, subject, body, attachmentPath string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if attachmentPath != "" {
		msg.Attach(attachmentPath)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}

	m.logger.Debug("Sent report email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}
