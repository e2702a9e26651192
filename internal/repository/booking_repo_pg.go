package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// UpdateStatus moves the booking from one status to another only if it is still in from.
	// It returns ErrStatusChanged when the row is missing or no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, schedule domain.Schedule) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, client_id, professional_id, service_type, status, contact, job, schedule, payment, review_id, created_at, updated_at`

var bookingSortColumns = map[domain.BookingSortField]string{
	domain.BookingSortCreatedAt:     "created_at",
	domain.BookingSortPreferredDate: "preferred_date",
	domain.BookingSortBudget:        "budget",
	domain.BookingSortStatus:        "status",
}

type bookingDocs struct {
	contact, job, schedule, payment []byte
}

func marshalBookingDocs(b *domain.Booking) (bookingDocs, error) {
	var (
		d   bookingDocs
		err error
	)
	if d.contact, err = json.Marshal(b.Contact); err != nil {
		return d, fmt.Errorf("marshal contact: %w", err)
	}
	if d.job, err = json.Marshal(b.Job); err != nil {
		return d, fmt.Errorf("marshal job: %w", err)
	}
	if d.schedule, err = json.Marshal(b.Schedule); err != nil {
		return d, fmt.Errorf("marshal schedule: %w", err)
	}
	if d.payment, err = json.Marshal(b.Payment); err != nil {
		return d, fmt.Errorf("marshal payment: %w", err)
	}
	return d, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	docs, err := marshalBookingDocs(booking)
	if err != nil {
		return err
	}

	var budget *float64
	if booking.Job.Budget > 0 {
		budget = &booking.Job.Budget
	}

	_, err = r.db.Exec(ctx, `INSERT INTO bookings (id, client_id, professional_id, service_type, status, contact, job, schedule, payment, preferred_date, budget, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		booking.ID, booking.ClientID, booking.ProfessionalID, booking.ServiceType, booking.Status,
		docs.contact, docs.job, docs.schedule, docs.payment,
		booking.Job.PreferredDate, budget, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("professional", booking.ProfessionalID)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("booking", id)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, schedule domain.Schedule) (*domain.Booking, error) {
	scheduleJSON, err := json.Marshal(schedule)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}

	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$3, schedule=$4, updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING `+bookingColumns, id, from, to, scheduleJSON)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ClientID != "" {
		where = append(where, "client_id = "+arg(filter.ClientID))
	}
	if filter.ProfessionalID != "" {
		where = append(where, "professional_id = "+arg(filter.ProfessionalID))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.Search != "" {
		p := arg(containsPattern(filter.Search))
		where = append(where, fmt.Sprintf(`(service_type ILIKE %[1]s ESCAPE '\' OR job->>'location' ILIKE %[1]s ESCAPE '\' OR job->>'description' ILIKE %[1]s ESCAPE '\')`, p))
	}
	if filter.Date != nil {
		where = append(where, "preferred_date = "+arg(filter.Date.Format(time.DateOnly))+"::date")
	}

	var whereSQL string
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}
	filterArgs := slices.Clone(args)
	query := `SELECT ` + bookingColumns + `, count(*) OVER() AS total_count FROM bookings` + whereSQL

	column, ok := bookingSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", column, direction, direction)
	query += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(filter.Limit), arg(filter.Offset()))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var total int
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBookingWith(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate booking rows: %w", err)
	}
	rows.Close()

	total, err = totalPastEnd(ctx, r.db, total, len(bookings), filter.Offset(),
		`SELECT count(*) FROM bookings`+whereSQL, filterArgs...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	return scanBookingWith(row)
}

func scanBookingWith(row pgx.Row, extra ...any) (*domain.Booking, error) {
	var (
		b    domain.Booking
		docs bookingDocs
	)
	dest := []any{
		&b.ID, &b.ClientID, &b.ProfessionalID, &b.ServiceType, &b.Status,
		&docs.contact, &docs.job, &docs.schedule, &docs.payment,
		&b.ReviewID, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	for _, doc := range []struct {
		name string
		raw  []byte
		into any
	}{
		{"contact", docs.contact, &b.Contact},
		{"job", docs.job, &b.Job},
		{"schedule", docs.schedule, &b.Schedule},
		{"payment", docs.payment, &b.Payment},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.into); err != nil {
			return nil, fmt.Errorf("unmarshal booking %s: %w", doc.name, err)
		}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
