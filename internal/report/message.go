package report

import (
	"fmt"
	"strings"
)

// RenderTelegram renders the summary as a plain-text Telegram message.
func RenderTelegram(s Summary) string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("[%s] QUIL Daily Report\n", s.NodeName))
	b.WriteString(fmt.Sprintf("Date: %s\n", s.GeneratedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: $%s\n", s.Price.StringFixed(4)))
	b.WriteString(fmt.Sprintf("Balance: %s QUIL ($%s)\n", s.Today.Balance.StringFixed(6), s.usd(s.Today.Balance)))
	b.WriteString(fmt.Sprintf("Earnings: %s QUIL ($%s)\n", s.Today.Earnings.StringFixed(6), s.usd(s.Today.Earnings)))
	b.WriteString(fmt.Sprintf("Shards: %d (avg %.2fs)\n", s.Today.ShardCount, s.Today.AvgDuration()))
	b.WriteString(fmt.Sprintf("Fast/Medium/Slow: %d/%d/%d\n", s.Today.Buckets.Fast, s.Today.Buckets.Medium, s.Today.Buckets.Slow))
	landing := s.Performance.Landing
	b.WriteString(fmt.Sprintf("Landing Rate: %.2f%% (%d/%d frames)\n", landing.Pct(), landing.Transactions, landing.Frames))
	b.WriteString(fmt.Sprintf("7d avg: %s QUIL, 30d avg: %s QUIL\n", s.Avg7.StringFixed(6), s.Avg30.StringFixed(6)))
	return b.String()
}
