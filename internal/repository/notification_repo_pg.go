package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// List returns one page of live notifications, the matching total and the recipient's unread count.
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int, int, error)
	MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error)
	Delete(ctx context.Context, id, recipientID string) error
}

type PGNotificationRepository struct {
	db DB
}

func NewNotificationRepository(db DB) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, type, title, message, data, priority, is_read, read_at, expires_at, created_at`

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.RecipientID, n.Type, n.Title, n.Message, data, n.Priority,
		n.IsRead, n.ReadAt, n.ExpiresAt, n.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("user", n.RecipientID)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PGNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int, int, error) {
	where := ` WHERE recipient_id=$1 AND (expires_at IS NULL OR expires_at > $2)`
	args := []any{filter.RecipientID, filter.Now}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type=$%d", len(args))
	}
	if filter.UnreadOnly {
		where += " AND NOT is_read"
	}
	filterArgs := slices.Clone(args)
	query := `SELECT ` + notificationColumns + `, count(*) OVER() AS total_count FROM notifications` + where
	args = append(args, filter.Limit, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var total int
	items := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows, &total)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("scan notification row: %w", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("iterate notification rows: %w", err)
	}
	rows.Close()

	total, err = totalPastEnd(ctx, r.db, total, len(items), filter.Offset(),
		`SELECT count(*) FROM notifications`+where, filterArgs...)
	if err != nil {
		return nil, 0, 0, err
	}

	var unread int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications
		WHERE recipient_id=$1 AND NOT is_read AND (expires_at IS NULL OR expires_at > $2)`,
		filter.RecipientID, filter.Now).Scan(&unread); err != nil {
		return nil, 0, 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return items, total, unread, nil
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*domain.Notification, error) {
	row := r.db.QueryRow(ctx, `UPDATE notifications SET is_read=TRUE, read_at=COALESCE(read_at, $3)
		WHERE id=$1 AND recipient_id=$2
		RETURNING `+notificationColumns, id, recipientID, at)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification", id)
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (r *PGNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error) {
	res, err := r.db.Exec(ctx, `UPDATE notifications SET is_read=TRUE, read_at=$2
		WHERE recipient_id=$1 AND NOT is_read`, recipientID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(res.RowsAffected()), nil
}

func (r *PGNotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

func scanNotification(row pgx.Row, extra ...any) (*domain.Notification, error) {
	var (
		n    domain.Notification
		data []byte
	)
	dest := []any{
		&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &data, &n.Priority,
		&n.IsRead, &n.ReadAt, &n.ExpiresAt, &n.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return &n, nil
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
