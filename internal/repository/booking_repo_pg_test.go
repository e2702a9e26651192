package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{
	"id", "client_id", "professional_id", "service_type", "status", "contact", "job",
	"schedule", "payment", "review_id", "created_at", "updated_at",
}

func sampleBooking() *domain.Booking {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:             "b-1",
		ClientID:       "c-1",
		ProfessionalID: "p-1",
		ServiceType:    "painting",
		Status:         domain.BookingStatusPending,
		Contact:        domain.ContactInfo{Method: domain.ContactEmail, Address: "c1@example.com"},
		Job:            domain.JobDetails{Location: "Riga", PreferredDate: &date, Budget: 300},
		Payment:        domain.Payment{Amount: 300, Status: domain.PaymentPending},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func bookingRow(t *testing.T, b *domain.Booking) []any {
	t.Helper()
	docs, err := marshalBookingDocs(b)
	require.NoError(t, err)
	return []any{
		b.ID, b.ClientID, b.ProfessionalID, b.ServiceType, string(b.Status),
		docs.contact, docs.job, docs.schedule, docs.payment,
		b.ReviewID, b.CreatedAt, b.UpdatedAt,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, b.ClientID, b.ProfessionalID, b.ServiceType, b.Status,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			b.Job.PreferredDate, &b.Job.Budget, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Create_UnknownProfessional(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), sampleBooking())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()

	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id").
		WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows(bookingCols).AddRow(bookingRow(t, b)...))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Status, got.Status)
	assert.Equal(t, b.Contact, got.Contact)
	assert.Equal(t, "Riga", got.Job.Location)
	assert.True(t, b.Job.PreferredDate.Equal(*got.Job.PreferredDate))
	assert.Nil(t, got.Schedule.ActualEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM bookings").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	end := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	schedule := domain.Schedule{ActualEnd: &end}
	scheduleJSON, _ := json.Marshal(schedule)

	updated := sampleBooking()
	updated.Status = domain.BookingStatusCompleted
	updated.Schedule = schedule

	mock.ExpectQuery(`UPDATE bookings SET status=\$3, schedule=\$4`).
		WithArgs("b-1", domain.BookingStatusAccepted, domain.BookingStatusCompleted, scheduleJSON).
		WillReturnRows(pgxmock.NewRows(bookingCols).AddRow(bookingRow(t, updated)...))

	got, err := repo.UpdateStatus(context.Background(), "b-1", domain.BookingStatusAccepted, domain.BookingStatusCompleted, schedule)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, got.Status)
	require.NotNil(t, got.Schedule.ActualEnd)
	assert.True(t, end.Equal(*got.Schedule.ActualEnd))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus_LostRace(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	mock.ExpectQuery("UPDATE bookings").WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "b-1", domain.BookingStatusPending, domain.BookingStatusAccepted, domain.Schedule{})
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestBookingRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	filter := domain.BookingFilter{
		ClientID: "c-1",
		Status:   domain.BookingStatusPending,
		Search:   "paint",
		Date:     &date,
		SortBy:   domain.BookingSortBudget,
		SortDesc: true,
		Page:     2,
		Limit:    5,
	}

	cols := append(append([]string{}, bookingCols...), "total_count")
	mock.ExpectQuery(`WHERE client_id = \$1 AND status = \$2 AND \(service_type ILIKE \$3 .+\) AND preferred_date = \$4::date ORDER BY budget DESC NULLS LAST, id DESC LIMIT \$5 OFFSET \$6`).
		WithArgs("c-1", domain.BookingStatusPending, "%paint%", "2026-03-10", 5, 5).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(bookingRow(t, b), 6)...))

	items, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, items, 1)
	assert.Equal(t, "b-1", items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_List_UnknownSortFallsBackToCreatedAt(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	cols := append(append([]string{}, bookingCols...), "total_count")
	mock.ExpectQuery(`FROM bookings ORDER BY created_at ASC NULLS LAST, id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	items, total, err := repo.List(context.Background(), domain.BookingFilter{SortBy: "budget; DROP TABLE", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestBookingRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, _, err := repo.List(context.Background(), domain.BookingFilter{Page: 1, Limit: 10})
	assert.ErrorContains(t, err, "list bookings")
}

func TestBookingRepository_List_PastLastPageKeepsTotal(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	cols := append(append([]string{}, bookingCols...), "total_count")
	mock.ExpectQuery(`FROM bookings WHERE client_id = \$1 ORDER BY created_at DESC NULLS LAST, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("c-1", 10, 40).
		WillReturnRows(pgxmock.NewRows(cols))
	mock.ExpectQuery(`SELECT count\(\*\) FROM bookings WHERE client_id = \$1$`).
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	items, total, err := repo.List(context.Background(), domain.BookingFilter{
		ClientID: "c-1",
		SortBy:   domain.BookingSortCreatedAt,
		SortDesc: true,
		Page:     5,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_List_SearchWildcardsAreLiteral(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock)

	cols := append(append([]string{}, bookingCols...), "total_count")
	mock.ExpectQuery(`service_type ILIKE \$1 ESCAPE '\\'`).
		WithArgs(`%100\%\_off\\%`, 10, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	_, total, err := repo.List(context.Background(), domain.BookingFilter{Search: `100%_off\`, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
