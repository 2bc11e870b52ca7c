package email

import (
	"context"
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers transactional mail over SMTP. Sends are best-effort from
// the caller's point of view; the delivery worker owns retries.
type Sender struct {
	from    string
	dialer  *gomail.Dialer
	baseURL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSender(cfg SMTPConfig, baseURL string) (*Sender, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("smtp host, username, and password are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Sender{
		from:    from,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		baseURL: baseURL,
	}, nil
}

func (s *Sender) SendPurchaseEmail(ctx context.Context, recipient, productName, downloadURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", fmt.Sprintf("Your %s is ready", productName))
	msg.SetBody("text/plain", purchaseText(productName, downloadURL))
	msg.AddAlternative("text/html", purchaseHTML(productName, downloadURL))
	return s.dialer.DialAndSend(msg)
}

func (s *Sender) SendTestEmail(ctx context.Context, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recipient == "" {
		recipient = s.from
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", "Storefront test email")
	msg.SetBody("text/plain", "This is a test email from the storefront service. If you received it, the email configuration works.")
	return s.dialer.DialAndSend(msg)
}

func purchaseText(productName, downloadURL string) string {
	return fmt.Sprintf(`Thank you for your purchase!

Your %s is ready to download:

%s

Important: this link is valid for 24 hours for security reasons.

If you have any questions, just reply to this email.
`, productName, downloadURL)
}

func purchaseHTML(productName, downloadURL string) string {
	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Thank you for your purchase!</h2>
  <p>Your <strong>%s</strong> is ready to download.</p>
  <div style="background: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <a href="%s" style="display: inline-block; background: #4CAF50; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Download now</a>
  </div>
  <p><strong>Important:</strong> this link is valid for 24 hours for security reasons.</p>
  <p style="font-size: 14px; color: #666;">If you have any questions, just reply to this email.</p>
</body>
</html>`, productName, downloadURL)
}
