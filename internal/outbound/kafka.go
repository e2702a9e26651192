package outbound

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/kafka"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// KafkaSender forwards messages to a topic that a separate worker drains.
type KafkaSender struct {
	publisher Publisher
	topic     string
}

func NewKafkaSender(publisher Publisher, topic string) *KafkaSender {
	return &KafkaSender{publisher: publisher, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, m Message) error {
	return s.publisher.Publish(ctx, s.topic, m.RecipientID, m)
}

// HandleKafkaMessage returns a consumer handler that delivers each queued message through sender.
// Undecodable messages are logged and skipped; delivery failures are logged and the offset still
// advances, so one bad address cannot stall the partition.
func HandleKafkaMessage(sender Sender, logger *zap.Logger, metrics *Metrics) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var m Message
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			logger.Error("decode outbound message", zap.Error(err), zap.Int64("offset", msg.Offset))
			return nil
		}
		if err := sender.Send(ctx, m); err != nil {
			metrics.delivery(string(m.Channel), resultFailed)
			logger.Error("outbound delivery failed",
				zap.Error(fmt.Errorf("notification %s: %w", m.NotificationID, err)),
				zap.String("channel", string(m.Channel)))
			return nil
		}
		metrics.delivery(string(m.Channel), resultSent)
		return nil
	}
}
