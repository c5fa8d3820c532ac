package mailer

import (
	"fmt"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP connection details for outgoing notifications.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends customer notification emails over SMTP.
type Mailer struct {
	cfg Config
}

// NewMailer creates a new Mailer.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendPaymentConfirmation emails the customer that their payment was
// recorded with the given final status. Called from the queue
// consumer, never from the request path.
func (m *Mailer) SendPaymentConfirmation(toEmail, orderID string, amount float64, currency, status string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %s: %w", m.cfg.From, err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("invalid recipient address %s: %w", toEmail, err)
	}
	msg.Subject("Payment Confirmation")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your payment for Order #%s of %.2f %s has been marked as %s.",
		orderID, amount, currency, status,
	))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send payment confirmation to %s: %w", toEmail, err)
	}
	return nil
}
