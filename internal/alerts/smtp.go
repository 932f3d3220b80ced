package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"time"
)

// SMTPSender sends notices via email
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, user, password, from string, to []string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
	}
}

// Send sends the notice via email
func (s *SMTPSender) Send(ctx context.Context, notice *Notice) error {
	subject := fmt.Sprintf("[%s] Whale trade: $%.2f on %s", notice.Severity, notice.NotionalUSD, notice.MarketTitle)
	body := s.buildEmailBody(notice)

	message := fmt.Sprintf("From: %s\r\n", s.from)
	message += fmt.Sprintf("To: %s\r\n", s.to[0])
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "Content-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, s.to, []byte(message))
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (s *SMTPSender) buildEmailBody(notice *Notice) string {
	body := fmt.Sprintf("DEBATEFLOOR WHALE NOTICE - %s\n", notice.Severity)
	body += "═══════════════════════════════════════\n\n"
	body += "A large trade was spotted on a tracked market:\n\n"
	body += "TRADE DETAILS\n"
	body += "─────────────────────────────────────\n"
	body += fmt.Sprintf("Notional:       $%.2f\n", notice.NotionalUSD)
	body += fmt.Sprintf("Side:           %s %s\n", notice.Side, notice.Outcome)
	body += fmt.Sprintf("Price:          %.2f\n", notice.Price)
	body += fmt.Sprintf("Market read:    %s\n", notice.Direction())
	body += fmt.Sprintf("Market:         %s\n", notice.MarketTitle)
	body += fmt.Sprintf("Market URL:     %s\n\n", notice.MarketURL)
	body += "WALLET DETAILS\n"
	body += "─────────────────────────────────────\n"
	body += fmt.Sprintf("Address:        %s\n", notice.WalletAddress)
	if notice.TraderName != "" {
		body += fmt.Sprintf("Name:           %s\n", notice.TraderName)
	}
	if notice.WalletAgeDays >= 0 {
		age := fmt.Sprintf("%d days", notice.WalletAgeDays)
		if notice.FreshWallet() {
			age += " (FRESH WALLET)"
		}
		body += fmt.Sprintf("Account age:    %s\n", age)
	}
	body += "\nTRANSACTION\n"
	body += "─────────────────────────────────────\n"
	body += fmt.Sprintf("Hash:           %s\n", notice.TradeHash)
	body += fmt.Sprintf("Time:           %s\n\n", notice.Timestamp.Format(time.RFC3339))
	body += "═══════════════════════════════════════\n"
	body += fmt.Sprintf("Environment: %s\n", notice.Environment)
	body += fmt.Sprintf("Generated: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))

	return body
}
