package outbound

import (
	"context"
	"time"

	"github.com/Domenick1991/servicebooking/config"
	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerTransport guards each channel of a Transport with its own circuit breaker.
// Every failure, including a rejected call while open, comes back as a Transient error.
type BreakerTransport struct {
	next  Transport
	email *gobreaker.CircuitBreaker[struct{}]
	sms   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerTransport(next Transport, cfg config.BreakerConfig, logger *zap.Logger, metrics *Metrics) *BreakerTransport {
	newBreaker := func(name string) *gobreaker.CircuitBreaker[struct{}] {
		metrics.breaker(name, gobreaker.StateClosed)
		return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    time.Duration(cfg.IntervalSecond) * time.Second,
			Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
				metrics.breaker(name, to)
			},
		})
	}

	return &BreakerTransport{
		next:  next,
		email: newBreaker("email"),
		sms:   newBreaker("sms"),
	}
}

func (t *BreakerTransport) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := t.email.Execute(func() (struct{}, error) {
		return struct{}{}, t.next.SendEmail(ctx, to, subject, body)
	})
	if err != nil {
		return apperrors.Transient("email", err)
	}
	return nil
}

func (t *BreakerTransport) SendSMS(ctx context.Context, to, body string) error {
	_, err := t.sms.Execute(func() (struct{}, error) {
		return struct{}{}, t.next.SendSMS(ctx, to, body)
	})
	if err != nil {
		return apperrors.Transient("sms", err)
	}
	return nil
}
