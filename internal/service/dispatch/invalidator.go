package dispatch

import (
	"context"

	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/domain"
)

// Invalidator knows which cached reads each kind of write can change.
type Invalidator struct {
	loader *cache.Loader
}

func NewInvalidator(loader *cache.Loader) *Invalidator {
	return &Invalidator{loader: loader}
}

// BookingsChanged drops the booking lists of both parties and the unscoped admin lists.
func (i *Invalidator) BookingsChanged(ctx context.Context, clientID, professionalID string) {
	i.loader.Invalidate(ctx, cache.OwnedBy(cache.CollectionBookings, clientID, professionalID, cache.OwnerAll)...)
}

// ReviewsChanged drops the professional's review lists and profile reads, which carry the aggregate.
func (i *Invalidator) ReviewsChanged(ctx context.Context, professionalID string) {
	i.loader.Invalidate(ctx, reviewScopes(professionalID)...)
}

// ReviewWritten covers a review write that also touched its booking: the review link
// shows up in the booking lists of both parties and of admins.
func (i *Invalidator) ReviewWritten(ctx context.Context, r *domain.Review) {
	scopes := reviewScopes(r.ProfessionalID)
	scopes = append(scopes, cache.OwnedBy(cache.CollectionBookings, r.ClientID, r.ProfessionalID, cache.OwnerAll)...)
	i.loader.Invalidate(ctx, scopes...)
}

func reviewScopes(professionalID string) []cache.Scope {
	scopes := cache.OwnedBy(cache.CollectionReviews, professionalID)
	return append(scopes, cache.OwnedBy(cache.CollectionProfessionals, professionalID)...)
}

func (i *Invalidator) NotificationsChanged(ctx context.Context, recipientID string) {
	i.loader.Invalidate(ctx, cache.OwnedBy(cache.CollectionNotifications, recipientID)...)
}
