// Package review handles client reviews of completed bookings and keeps the reviewed
// professional's rating aggregate in step with every write.
package review

import (
	"context"
	"slices"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/repository"
	"github.com/Domenick1991/servicebooking/internal/service/dispatch"
	"github.com/Domenick1991/servicebooking/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewUseCase interface {
	Create(ctx context.Context, user domain.User, input CreateInput) (*domain.Review, error)
	Update(ctx context.Context, user domain.User, id string, input UpdateInput) (*domain.Review, error)
	Delete(ctx context.Context, user domain.User, id string) error
	ToggleHelpful(ctx context.Context, user domain.User, id string) (*HelpfulResult, error)
	ListByProfessional(ctx context.Context, professionalID string, query ListQuery) (*Page, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

// Orchestrator runs the side effects of review writes.
type Orchestrator interface {
	ReviewChanged(ctx context.Context, change dispatch.ReviewChange, r *domain.Review) (domain.RatingAggregate, error)
	ReviewListingsChanged(ctx context.Context, professionalID string)
	ReviewReverted(ctx context.Context, r *domain.Review)
}

type CreateInput struct {
	BookingID string   `json:"bookingId" validate:"required"`
	Rating    int      `json:"rating" validate:"gte=1,lte=5"`
	Comment   string   `json:"comment" validate:"max=1000"`
	Images    []string `json:"images" validate:"max=5,dive,required"`
}

// UpdateInput replaces only the fields that are set.
type UpdateInput struct {
	Rating  *int     `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string  `json:"comment" validate:"omitempty,max=1000"`
	Images  []string `json:"images" validate:"omitempty,max=5,dive,required"`
}

type ListQuery struct {
	Sort  domain.ReviewSort
	Page  int
	Limit int
}

type Page struct {
	Data       []domain.Review `json:"data"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

type HelpfulResult struct {
	ReviewID      string   `json:"reviewId"`
	Helpful       bool     `json:"helpful"`
	HelpfulCount  int      `json:"helpfulCount"`
	HelpfulVoters []string `json:"helpfulVoters"`
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	bookings BookingReader
	orch     Orchestrator
	loader   *cache.Loader
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	bookings BookingReader,
	orch Orchestrator,
	loader *cache.Loader,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		orch:     orch,
		loader:   loader,
		logger:   logger,
		now:      time.Now,
	}
}

// Create reviews a completed booking of the caller. Bookings that are not the caller's
// or not completed are reported as not found; a booking already reviewed is a conflict.
func (s *ReviewService) Create(ctx context.Context, user domain.User, input CreateInput) (*domain.Review, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != user.ID || booking.Status != domain.BookingStatusCompleted {
		return nil, apperrors.NotFound("completed booking", input.BookingID)
	}
	if booking.ReviewID != nil {
		return nil, apperrors.Conflict("booking already has a review")
	}

	now := s.now().UTC()
	r := &domain.Review{
		ID:             uuid.NewString(),
		BookingID:      booking.ID,
		ClientID:       user.ID,
		ProfessionalID: booking.ProfessionalID,
		Rating:         input.Rating,
		Comment:        input.Comment,
		Images:         input.Images,
		HelpfulVoters:  []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}

	if _, err := s.orch.ReviewChanged(ctx, dispatch.ReviewCreated, r); err != nil {
		s.compensate(ctx, r, "create", func(ctx context.Context) error {
			return s.reviews.Delete(ctx, r)
		})
		return nil, apperrors.Internal(err)
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, user domain.User, id string, input UpdateInput) (*domain.Review, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ClientID != user.ID {
		return nil, apperrors.Forbidden("only the reviewer can edit a review")
	}

	prev := *r
	if input.Rating != nil {
		r.Rating = *input.Rating
	}
	if input.Comment != nil {
		r.Comment = *input.Comment
	}
	if input.Images != nil {
		r.Images = input.Images
	}
	r.UpdatedAt = s.now().UTC()

	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	if _, err := s.orch.ReviewChanged(ctx, dispatch.ReviewUpdated, r); err != nil {
		s.compensate(ctx, r, "update", func(ctx context.Context) error {
			return s.reviews.Update(ctx, &prev)
		})
		return nil, apperrors.Internal(err)
	}
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, user domain.User, id string) error {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.ClientID != user.ID && !user.IsAdmin() {
		return apperrors.Forbidden("only the reviewer or an admin can delete a review")
	}

	if err := s.reviews.Delete(ctx, r); err != nil {
		return err
	}
	if _, err := s.orch.ReviewChanged(ctx, dispatch.ReviewDeleted, r); err != nil {
		s.compensate(ctx, r, "delete", func(ctx context.Context) error {
			return s.reviews.Create(ctx, r)
		})
		return apperrors.Internal(err)
	}
	return nil
}

// compensate undoes a review write whose aggregate could not be recomputed. It runs even
// if the request was cancelled, and drops the cached reads again once the undo is in.
func (s *ReviewService) compensate(ctx context.Context, r *domain.Review, op string, undo func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	if err := undo(ctx); err != nil {
		s.logger.Error("failed to compensate review write",
			zap.String("op", op),
			zap.String("review_id", r.ID),
			zap.String("professional_id", r.ProfessionalID),
			zap.Error(err))
	}
	s.orch.ReviewReverted(ctx, r)
}

func (s *ReviewService) ToggleHelpful(ctx context.Context, user domain.User, id string) (*HelpfulResult, error) {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	voters, err := s.reviews.ToggleHelpful(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	s.orch.ReviewListingsChanged(ctx, r.ProfessionalID)

	return &HelpfulResult{
		ReviewID:      id,
		Helpful:       slices.Contains(voters, user.ID),
		HelpfulCount:  len(voters),
		HelpfulVoters: voters,
	}, nil
}

func (s *ReviewService) ListByProfessional(ctx context.Context, professionalID string, query ListQuery) (*Page, error) {
	if query.Sort == "" {
		query.Sort = domain.ReviewSortNewest
	}
	if !query.Sort.Valid() {
		return nil, apperrors.Validation("sort must be one of newest, oldest, highest, lowest, helpful")
	}
	query.Page, query.Limit = domain.NormalizePage(query.Page, query.Limit)

	key := cache.Key{
		Collection: cache.CollectionReviews,
		Owner:      professionalID,
		Page:       query.Page,
		Limit:      query.Limit,
		SortField:  string(query.Sort),
	}
	page, err := cache.Fetch(ctx, s.loader, key, func(ctx context.Context) (Page, error) {
		items, total, err := s.reviews.ListByProfessional(ctx, professionalID, query.Sort, query.Page, query.Limit)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Data:       items,
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: domain.TotalPages(total, query.Limit),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

var _ ReviewUseCase = (*ReviewService)(nil)
