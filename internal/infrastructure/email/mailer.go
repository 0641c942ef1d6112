// Package email sends operator mail over SMTP.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	sharedconfig "verge/internal/shared/config"
	"verge/internal/shared/logger"
)

// Mailer sends plain-text mail to the configured operator address.
type Mailer struct {
	config sharedconfig.EmailConfig
	logger logger.Interface
}

// NewMailer creates a Mailer.
func NewMailer(cfg sharedconfig.EmailConfig, log logger.Interface) *Mailer {
	return &Mailer{config: cfg, logger: log}
}

// Enabled reports whether the mailer is configured.
func (m *Mailer) Enabled() bool {
	return m.config.Enabled()
}

// SendAdminAlert delivers an alert to the operator address.
func (m *Mailer) SendAdminAlert(subject, body string) error {
	if !m.Enabled() {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.config.FromAddress, m.config.FromName)
	msg.SetHeader("To", m.config.AdminAddress)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.config.SMTPHost, m.config.SMTPPort, m.config.SMTPUser, m.config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.Errorw("failed to send admin alert email",
			"to", m.config.AdminAddress,
			"subject", subject,
			"error", err,
		)
		return fmt.Errorf("failed to send admin alert email: %w", err)
	}
	return nil
}
