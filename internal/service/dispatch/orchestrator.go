// Package dispatch routes the side effects of booking and review writes: cache
// invalidation, rating recomputation and notifications to the other party.
package dispatch

import (
	"context"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/service/notification"
	"go.uber.org/zap"
)

type Notifier interface {
	Create(ctx context.Context, input notification.CreateInput) (*domain.Notification, error)
}

type RatingRecomputer interface {
	Recompute(ctx context.Context, professionalID string) (domain.RatingAggregate, error)
}

type ReviewChange string

const (
	ReviewCreated ReviewChange = "created"
	ReviewUpdated ReviewChange = "updated"
	ReviewDeleted ReviewChange = "deleted"
)

type Orchestrator struct {
	invalidator *Invalidator
	notifier    Notifier
	ratings     RatingRecomputer
	logger      *zap.Logger
}

func NewOrchestrator(invalidator *Invalidator, notifier Notifier, ratings RatingRecomputer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		invalidator: invalidator,
		notifier:    notifier,
		ratings:     ratings,
		logger:      logger,
	}
}

func (o *Orchestrator) BookingCreated(ctx context.Context, b *domain.Booking) {
	o.invalidator.BookingsChanged(ctx, b.ClientID, b.ProfessionalID)
	o.notify(ctx, notification.CreateInput{
		RecipientID: b.ProfessionalID,
		Type:        domain.NotificationNewBooking,
		Title:       "New booking request",
		Message:     fmt.Sprintf("You have a new %s booking request.", b.ServiceType),
		Data:        map[string]any{"bookingId": b.ID},
		Priority:    domain.PriorityHigh,
	})
}

// BookingStatusChanged notifies every party that did not make the change.
func (o *Orchestrator) BookingStatusChanged(ctx context.Context, b *domain.Booking, previous domain.BookingStatus, actorID string) {
	o.invalidator.BookingsChanged(ctx, b.ClientID, b.ProfessionalID)
	for _, recipient := range b.OtherParties(actorID) {
		o.notify(ctx, notification.CreateInput{
			RecipientID: recipient,
			Type:        domain.NotificationBookingUpdate,
			Title:       "Booking " + string(b.Status),
			Message:     fmt.Sprintf("Your %s booking changed from %s to %s.", b.ServiceType, previous, b.Status),
			Data: map[string]any{
				"bookingId":      b.ID,
				"status":         string(b.Status),
				"previousStatus": string(previous),
			},
		})
	}
}

// ReviewChanged recomputes the professional's aggregate before returning. The cached
// review, profile and booking reads are dropped whether or not the recompute succeeded.
func (o *Orchestrator) ReviewChanged(ctx context.Context, change ReviewChange, r *domain.Review) (domain.RatingAggregate, error) {
	agg, err := o.ratings.Recompute(ctx, r.ProfessionalID)
	o.invalidator.ReviewWritten(ctx, r)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("recompute rating after review %s: %w", change, err)
	}

	if change == ReviewCreated {
		o.notify(ctx, notification.CreateInput{
			RecipientID: r.ProfessionalID,
			Type:        domain.NotificationNewReview,
			Title:       "New review",
			Message:     fmt.Sprintf("You received a %d-star review.", r.Rating),
			Data:        map[string]any{"reviewId": r.ID, "bookingId": r.BookingID},
		})
	}
	return agg, nil
}

// ReviewListingsChanged drops cached review reads for writes that leave the aggregate alone.
func (o *Orchestrator) ReviewListingsChanged(ctx context.Context, professionalID string) {
	o.invalidator.ReviewsChanged(ctx, professionalID)
}

// ReviewReverted drops the reads touched by undoing a review write.
func (o *Orchestrator) ReviewReverted(ctx context.Context, r *domain.Review) {
	o.invalidator.ReviewWritten(ctx, r)
}

func (o *Orchestrator) notify(ctx context.Context, input notification.CreateInput) {
	if o.notifier == nil || input.RecipientID == "" {
		return
	}
	if _, err := o.notifier.Create(ctx, input); err != nil {
		o.logger.Error("failed to create notification",
			zap.String("recipient_id", input.RecipientID),
			zap.String("type", string(input.Type)),
			zap.Error(err))
	}
}
