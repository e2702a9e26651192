// Package rating keeps a professional's rating aggregate equal to a full re-scan of their reviews.
package rating

import (
	"context"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/lock"
	"go.uber.org/zap"
)

const DefaultAttempts = 3

type ProfessionalStore interface {
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
	UpdateRating(ctx context.Context, id string, rating domain.RatingAggregate, version int64) (bool, error)
}

type RatingSource interface {
	RatingsFor(ctx context.Context, professionalID string) ([]int, error)
}

// Compute derives {average, count} from a full set of ratings. No ratings yields {0, 0}.
func Compute(ratings []int) domain.RatingAggregate {
	if len(ratings) == 0 {
		return domain.RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return domain.RatingAggregate{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}

type Aggregator struct {
	professionals ProfessionalStore
	reviews       RatingSource
	locks         *lock.Keyed
	attempts      int
	logger        *zap.Logger
}

func NewAggregator(professionals ProfessionalStore, reviews RatingSource, locks *lock.Keyed, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		professionals: professionals,
		reviews:       reviews,
		locks:         locks,
		attempts:      DefaultAttempts,
		logger:        logger,
	}
}

// Recompute re-reads every rating for the professional and writes the aggregate with a
// version check. Writers in this process are serialized per professional; writers in other
// processes are caught by the version check and the read is redone.
func (a *Aggregator) Recompute(ctx context.Context, professionalID string) (domain.RatingAggregate, error) {
	unlock := a.locks.Lock(professionalID)
	defer unlock()

	for attempt := 1; attempt <= a.attempts; attempt++ {
		pro, err := a.professionals.GetByID(ctx, professionalID)
		if err != nil {
			return domain.RatingAggregate{}, err
		}
		ratings, err := a.reviews.RatingsFor(ctx, professionalID)
		if err != nil {
			return domain.RatingAggregate{}, err
		}

		agg := Compute(ratings)
		ok, err := a.professionals.UpdateRating(ctx, professionalID, agg, pro.RatingVersion)
		if err != nil {
			return domain.RatingAggregate{}, err
		}
		if ok {
			return agg, nil
		}
		a.logger.Warn("rating aggregate version moved, retrying",
			zap.String("professional_id", professionalID),
			zap.Int("attempt", attempt))
	}

	return domain.RatingAggregate{}, apperrors.Internal(
		fmt.Errorf("rating aggregate for %s kept changing after %d attempts", professionalID, a.attempts))
}
