package cli

import (
	"github.com/spf13/cobra"
)

var telegramTestCmd = &cobra.Command{
	Use:   "telegram-test",
	Short: "Send a test message to verify Telegram configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TelegramTest(cmd.Context())
	},
}
