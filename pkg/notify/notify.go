package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dataweston/Dinewith/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers best-effort messages to users.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP notifier when a relay is configured, otherwise one
// that only logs.
func New(config utils.EmailConfig, log *zap.Logger) Notifier {
	if !config.Enabled() {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(config, log)
}

type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

func NewSMTPNotifier(config utils.EmailConfig, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		from:   config.From,
		log:    log.With(zap.String("component", "notifier")),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := n.dialer.DialAndSend(m); err != nil {
		n.log.Warn("Could not send email",
			zap.Error(err),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("Notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

const timeLayout = "Mon Jan 2, 2006 at 3:04 PM MST"

func BookingRequested(to, listingTitle string, start time.Time, guests int) Message {
	return Message{
		To:      to,
		Subject: "New booking request: " + listingTitle,
		Body:    fmt.Sprintf("You have a new request for %s on %s for %d guest(s).", listingTitle, start.Format(timeLayout), guests),
	}
}

func BookingAccepted(to, listingTitle string, start time.Time) Message {
	return Message{
		To:      to,
		Subject: "Your booking was accepted",
		Body:    fmt.Sprintf("Your booking for %s on %s was accepted. Complete payment to confirm your seat.", listingTitle, start.Format(timeLayout)),
	}
}

func BookingDeclined(to, listingTitle string, reason *string) Message {
	body := fmt.Sprintf("Your booking for %s was declined by the host.", listingTitle)
	if reason != nil && *reason != "" {
		body += " Reason: " + *reason
	}
	return Message{
		To:      to,
		Subject: "Your booking was declined",
		Body:    body,
	}
}

func PayoutRequested(to string, amount int64, currency string) Message {
	return Message{
		To:      to,
		Subject: "Payout requested",
		Body:    fmt.Sprintf("We received your payout request for %s %d.%02d.", currency, amount/100, amount%100),
	}
}

func PayoutCompleted(to string, amount int64, currency string) Message {
	return Message{
		To:      to,
		Subject: "Payout sent",
		Body:    fmt.Sprintf("Your payout of %s %d.%02d has been sent.", currency, amount/100, amount%100),
	}
}
