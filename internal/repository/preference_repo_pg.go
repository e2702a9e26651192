package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PreferenceRepository interface {
	// Get returns a NotFound error when the user has no stored record.
	Get(ctx context.Context, userID string) (*domain.Preference, error)
	Upsert(ctx context.Context, pref *domain.Preference) error
}

type PGPreferenceRepository struct {
	db DB
}

func NewPreferenceRepository(db DB) PreferenceRepository {
	return &PGPreferenceRepository{db: db}
}

func (r *PGPreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	var raw []byte
	var p domain.Preference
	err := r.db.QueryRow(ctx, `SELECT prefs, updated_at FROM notification_preferences WHERE user_id=$1`, userID).
		Scan(&raw, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification preferences", userID)
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	updatedAt := p.UpdatedAt
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	p.UserID = userID
	p.UpdatedAt = updatedAt
	return &p, nil
}

func (r *PGPreferenceRepository) Upsert(ctx context.Context, pref *domain.Preference) error {
	raw, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO notification_preferences (user_id, prefs, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET prefs=EXCLUDED.prefs, updated_at=EXCLUDED.updated_at`,
		pref.UserID, raw, pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

var _ PreferenceRepository = (*PGPreferenceRepository)(nil)
