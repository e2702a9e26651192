// Package outbound delivers email and SMS side-channel notifications off the request path.
package outbound

import (
	"context"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/domain"
	"go.uber.org/zap"
)

// Message is one side-channel delivery. Push notifications travel as SMS.
type Message struct {
	NotificationID string                  `json:"notification_id"`
	RecipientID    string                  `json:"recipient_id"`
	Type           domain.NotificationType `json:"type"`
	Channel        domain.Channel          `json:"channel"`
	To             string                  `json:"to"`
	Subject        string                  `json:"subject"`
	Body           string                  `json:"body"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type Transport interface {
	EmailSender
	SMSSender
}

type combined struct {
	EmailSender
	SMSSender
}

// Combine pairs independent email and SMS senders into one Transport.
func Combine(email EmailSender, sms SMSSender) Transport {
	return combined{EmailSender: email, SMSSender: sms}
}

// Sender hands a message to whatever performs or queues the delivery.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type transportSender struct {
	transport Transport
}

func NewTransportSender(t Transport) Sender {
	return transportSender{transport: t}
}

func (s transportSender) Send(ctx context.Context, m Message) error {
	switch m.Channel {
	case domain.ChannelEmail:
		return s.transport.SendEmail(ctx, m.To, m.Subject, m.Body)
	case domain.ChannelPush:
		return s.transport.SendSMS(ctx, m.To, m.Body)
	default:
		return fmt.Errorf("channel %q has no outbound transport", m.Channel)
	}
}

// LogTransport writes deliveries to the log instead of sending them.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) SendEmail(_ context.Context, to, subject, _ string) error {
	t.logger.Info("email delivered to log", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (t *LogTransport) SendSMS(_ context.Context, to, body string) error {
	t.logger.Info("sms delivered to log", zap.String("to", to), zap.Int("length", len(body)))
	return nil
}
