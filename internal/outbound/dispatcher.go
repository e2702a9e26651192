package outbound

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher queues messages in memory and drains them with a fixed pool of workers.
// Enqueue never blocks; when the queue is full the message is dropped.
type Dispatcher struct {
	queue   chan Message
	sender  Sender
	workers int
	logger  *zap.Logger
	metrics *Metrics
}

func NewDispatcher(sender Sender, workers, queueSize int, logger *zap.Logger, metrics *Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		queue:   make(chan Message, queueSize),
		sender:  sender,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

func (d *Dispatcher) Enqueue(m Message) bool {
	select {
	case d.queue <- m:
		return true
	default:
		d.metrics.delivery(string(m.Channel), resultDropped)
		d.logger.Warn("outbound queue full, dropping message",
			zap.String("notification_id", m.NotificationID),
			zap.String("channel", string(m.Channel)))
		return false
	}
}

// Run drains the queue until ctx is cancelled, then delivers whatever is still buffered.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-d.queue:
					d.deliver(ctx, m)
				}
			}
		}()
	}
	wg.Wait()

	drainCtx := context.WithoutCancel(ctx)
	for {
		select {
		case m := <-d.queue:
			d.deliver(drainCtx, m)
		default:
			return nil
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m Message) {
	if err := d.sender.Send(ctx, m); err != nil {
		d.metrics.delivery(string(m.Channel), resultFailed)
		d.logger.Error("outbound delivery failed",
			zap.Error(err),
			zap.String("notification_id", m.NotificationID),
			zap.String("recipient_id", m.RecipientID),
			zap.String("channel", string(m.Channel)))
		return
	}
	d.metrics.delivery(string(m.Channel), resultSent)
}
