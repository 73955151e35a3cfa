package notify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/wneessen/go-mail"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

var _ Notifier = (*Mailer)(nil)

// MailerConfig holds the SMTP transport settings for the Mailer.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address on outgoing confirmations.
	From string
}

// Mailer is an SMTP Notifier. Each Send dials the configured server,
// delivers one message, and closes the connection; the order flow sends too
// few emails to justify a persistent connection.
type Mailer struct {
	cfg MailerConfig
}

// NewMailer creates a Mailer with the given SMTP settings.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send emails the order confirmation to recipient. The context bounds the
// whole dial-and-send exchange.
func (m *Mailer) Send(ctx context.Context, recipient string, rec *order.Record) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := msg.To(recipient); err != nil {
		return errors.Wrap(err, "set recipient")
	}
	msg.Subject(Subject(rec))
	msg.SetBodyString(mail.TypeTextPlain, Body(rec))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return errors.Wrap(err, "create SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "send confirmation %s", rec.Number)
	}
	return nil
}
