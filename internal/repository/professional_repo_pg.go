package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ProfessionalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
	// UpdateRating writes the aggregate only if rating_version still equals version.
	// It reports false when another writer got there first.
	UpdateRating(ctx context.Context, id string, rating domain.RatingAggregate, version int64) (bool, error)
}

type PGProfessionalRepository struct {
	db DB
}

func NewProfessionalRepository(db DB) ProfessionalRepository {
	return &PGProfessionalRepository{db: db}
}

func (r *PGProfessionalRepository) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	row := r.db.QueryRow(ctx, `SELECT u.id, u.name, u.email, u.phone, u.role, u.created_at,
			p.trade, p.available, p.rating_average, p.rating_count, p.rating_version
		FROM professionals p JOIN users u ON u.id = p.user_id
		WHERE p.user_id=$1`, id)

	var p domain.Professional
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Role, &p.CreatedAt,
		&p.Trade, &p.Available, &p.Rating.Average, &p.Rating.Count, &p.RatingVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("professional", id)
		}
		return nil, fmt.Errorf("get professional: %w", err)
	}
	return &p, nil
}

func (r *PGProfessionalRepository) UpdateRating(ctx context.Context, id string, rating domain.RatingAggregate, version int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE professionals
		SET rating_average=$2, rating_count=$3, rating_version=rating_version+1
		WHERE user_id=$1 AND rating_version=$4`, id, rating.Average, rating.Count, version)
	if err != nil {
		return false, fmt.Errorf("update professional rating: %w", err)
	}
	return res.RowsAffected() == 1, nil
}

var _ ProfessionalRepository = (*PGProfessionalRepository)(nil)
