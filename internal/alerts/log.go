package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes notices to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the notice
func (s *LogSender) Send(ctx context.Context, notice *Notice) error {
	fields := logrus.Fields{
		"severity":     notice.Severity,
		"wallet":       notice.WalletShort,
		"trader":       notice.TraderName,
		"market":       notice.MarketTitle,
		"side":         notice.Side,
		"outcome":      notice.Outcome,
		"direction":    notice.Direction(),
		"notional_usd": notice.NotionalUSD,
		"price":        notice.Price,
		"tx_hash":      notice.TradeHashShort,
	}
	if notice.WalletAgeDays >= 0 {
		fields["wallet_age_days"] = notice.WalletAgeDays
		fields["fresh_wallet"] = notice.FreshWallet()
	}
	s.log.WithFields(fields).Info("Whale trade noticed")
	return nil
}
