// Package notification delivers operator alerts over the configured
// channels.
package notification

import (
	"context"

	"verge/internal/infrastructure/email"
	"verge/internal/infrastructure/telegram"
	"verge/internal/shared/logger"
)

// OperatorAlerter pages the operator with a plain-text message.
type OperatorAlerter interface {
	Alert(ctx context.Context, message string)
}

// CompositeAlerter fans an alert out to Telegram and email. The alert itself
// is never retried; channel failures are logged and swallowed so a broken
// channel cannot mask the original failure being reported.
type CompositeAlerter struct {
	bot    *telegram.BotService
	mailer *email.Mailer
	logger logger.Interface
}

// NewCompositeAlerter creates an alerter over the given channels. Either
// channel may be nil or unconfigured.
func NewCompositeAlerter(bot *telegram.BotService, mailer *email.Mailer, log logger.Interface) *CompositeAlerter {
	return &CompositeAlerter{bot: bot, mailer: mailer, logger: log}
}

func (a *CompositeAlerter) Alert(ctx context.Context, message string) {
	delivered := false

	if a.bot != nil {
		if err := a.bot.SendMessageToAdmins(ctx, message); err == nil {
			delivered = true
		}
	}

	if a.mailer != nil && a.mailer.Enabled() {
		if err := a.mailer.SendAdminAlert("verge operator alert", message); err == nil {
			delivered = true
		}
	}

	if !delivered {
		a.logger.Errorw("operator alert could not be delivered on any channel",
			"message", message,
		)
	}
}
