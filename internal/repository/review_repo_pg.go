package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ReviewRepository interface {
	// Create inserts the review and links it from its booking in one transaction.
	// A booking that already carries a review yields a Conflict.
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	// Delete removes the review and clears the booking link in one transaction.
	Delete(ctx context.Context, review *domain.Review) error
	ListByProfessional(ctx context.Context, professionalID string, sort domain.ReviewSort, page, limit int) ([]domain.Review, int, error)
	RatingsFor(ctx context.Context, professionalID string) ([]int, error)
	ToggleHelpful(ctx context.Context, id, userID string) ([]string, error)
}

type PGReviewRepository struct {
	db DB
}

func NewReviewRepository(db DB) ReviewRepository {
	return &PGReviewRepository{db: db}
}

const reviewColumns = `id, booking_id, client_id, professional_id, rating, comment, images, helpful_voters, created_at, updated_at`

var reviewOrder = map[domain.ReviewSort]string{
	domain.ReviewSortNewest:  "created_at DESC, id DESC",
	domain.ReviewSortOldest:  "created_at ASC, id ASC",
	domain.ReviewSortHighest: "rating DESC, created_at DESC, id DESC",
	domain.ReviewSortLowest:  "rating ASC, created_at DESC, id DESC",
	domain.ReviewSortHelpful: "cardinality(helpful_voters) DESC, created_at DESC, id DESC",
}

func (r *PGReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO reviews (`+reviewColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			review.ID, review.BookingID, review.ClientID, review.ProfessionalID, review.Rating,
			review.Comment, nonNil(review.Images), nonNil(review.HelpfulVoters), review.CreatedAt, review.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("booking already has a review")
			}
			return fmt.Errorf("insert review: %w", err)
		}

		res, err := tx.Exec(ctx, `UPDATE bookings SET review_id=$2, updated_at=now() WHERE id=$1 AND review_id IS NULL`,
			review.BookingID, review.ID)
		if err != nil {
			return fmt.Errorf("link review to booking: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.Conflict("booking already has a review")
		}
		return nil
	})
}

func (r *PGReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *PGReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	res, err := r.db.Exec(ctx, `UPDATE reviews SET rating=$2, comment=$3, images=$4, updated_at=$5 WHERE id=$1`,
		review.ID, review.Rating, review.Comment, nonNil(review.Images), review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}
	return nil
}

func (r *PGReviewRepository) Delete(ctx context.Context, review *domain.Review) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, review.ID)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.NotFound("review", review.ID)
		}
		if _, err := tx.Exec(ctx, `UPDATE bookings SET review_id=NULL, updated_at=now() WHERE id=$1 AND review_id=$2`,
			review.BookingID, review.ID); err != nil {
			return fmt.Errorf("unlink review from booking: %w", err)
		}
		return nil
	})
}

func (r *PGReviewRepository) ListByProfessional(ctx context.Context, professionalID string, sort domain.ReviewSort, page, limit int) ([]domain.Review, int, error) {
	order, ok := reviewOrder[sort]
	if !ok {
		order = reviewOrder[domain.ReviewSortNewest]
	}

	rows, err := r.db.Query(ctx, `SELECT `+reviewColumns+`, count(*) OVER() AS total_count
		FROM reviews WHERE professional_id=$1
		ORDER BY `+order+`
		LIMIT $2 OFFSET $3`, professionalID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var total int
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}
	rows.Close()

	total, err = totalPastEnd(ctx, r.db, total, len(reviews), (page-1)*limit,
		`SELECT count(*) FROM reviews WHERE professional_id=$1`, professionalID)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *PGReviewRepository) RatingsFor(ctx context.Context, professionalID string) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT rating FROM reviews WHERE professional_id=$1`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]int, 0)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// ToggleHelpful flips userID's membership in the voter set in a single statement.
func (r *PGReviewRepository) ToggleHelpful(ctx context.Context, id, userID string) ([]string, error) {
	var voters []string
	err := r.db.QueryRow(ctx, `UPDATE reviews SET helpful_voters = CASE
			WHEN $2::text = ANY(helpful_voters) THEN array_remove(helpful_voters, $2::text)
			ELSE array_append(helpful_voters, $2::text)
		END
		WHERE id=$1
		RETURNING helpful_voters`, id, userID).Scan(&voters)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("toggle helpful: %w", err)
	}
	return nonNil(voters), nil
}

func scanReview(row pgx.Row, extra ...any) (*domain.Review, error) {
	var rv domain.Review
	dest := []any{
		&rv.ID, &rv.BookingID, &rv.ClientID, &rv.ProfessionalID, &rv.Rating,
		&rv.Comment, &rv.Images, &rv.HelpfulVoters, &rv.CreatedAt, &rv.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	rv.HelpfulVoters = nonNil(rv.HelpfulVoters)
	return &rv, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
