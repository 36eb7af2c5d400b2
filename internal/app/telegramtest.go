package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TelegramTest sends a short test message to verify bot configuration.
func (a *App) TelegramTest(ctx context.Context) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("telegram is not enabled; set telegram.enabled, bot_token and chat_id")
	}

	text := fmt.Sprintf("[%s] quilmon test message (%s)", a.Config.Node.Name, time.Now().Format(time.RFC3339))
	if err := notifier.Notify(ctx, text); err != nil {
		return fmt.Errorf("telegram test failed: %w", err)
	}

	a.Logger.Info().Msg("telegram test message delivered")
	return nil
}
