package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordSender sends notices to Discord via webhook
type DiscordSender struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends the notice to Discord
func (s *DiscordSender) Send(ctx context.Context, notice *Notice) error {
	embed := s.buildEmbed(notice)

	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (s *DiscordSender) buildEmbed(notice *Notice) map[string]interface{} {
	// Determine title and color
	var title string
	var color int
	switch notice.Severity {
	case SeverityAlert:
		title = "🐋 Massive whale trade (ALERT)"
		color = 0xFF0000 // Red
	case SeverityWarn:
		title = "🐋 Large whale trade (WARN)"
		color = 0xFFA500 // Orange
	default:
		title = "🐋 Whale trade detected"
		color = 0x0099FF // Blue
	}

	// Build description
	description := fmt.Sprintf("**$%.2f** %s **%s** @ **%.2f**\nMarket read: **%s**",
		notice.NotionalUSD,
		notice.Side,
		notice.Outcome,
		notice.Price,
		notice.Direction(),
	)

	wallet := notice.WalletShort
	if notice.TraderName != "" {
		wallet = fmt.Sprintf("%s (`%s`)", notice.TraderName, notice.WalletShort)
	} else {
		wallet = fmt.Sprintf("`%s`", notice.WalletShort)
	}
	if notice.FreshWallet() {
		wallet += fmt.Sprintf("\n🆕 %dd old account", notice.WalletAgeDays)
	} else if notice.WalletAgeDays >= 0 {
		wallet += fmt.Sprintf("\n%dd old account", notice.WalletAgeDays)
	}

	// Build fields
	fields := []map[string]interface{}{
		{
			"name":   "Wallet",
			"value":  wallet,
			"inline": true,
		},
		{
			"name":   "Market",
			"value":  truncate(notice.MarketTitle, 100),
			"inline": true,
		},
		{
			"name":   "Side",
			"value":  fmt.Sprintf("%s %s", notice.Side, notice.Outcome),
			"inline": true,
		},
		{
			"name":   "Notional",
			"value":  fmt.Sprintf("$%.2f", notice.NotionalUSD),
			"inline": true,
		},
		{
			"name":   "Price",
			"value":  fmt.Sprintf("%.2f", notice.Price),
			"inline": true,
		},
		{
			"name":   "Tx",
			"value":  fmt.Sprintf("`%s`", notice.TradeHashShort),
			"inline": true,
		},
	}

	// Footer
	footer := map[string]interface{}{
		"text": fmt.Sprintf("Debatefloor • %s • %s", notice.Environment, notice.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
	}

	embed := map[string]interface{}{
		"title":       title,
		"url":         notice.MarketURL,
		"description": description,
		"color":       color,
		"fields":      fields,
		"footer":      footer,
		"timestamp":   notice.Timestamp.Format(time.RFC3339),
	}

	return embed
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
