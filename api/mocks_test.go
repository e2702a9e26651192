package api

import (
	"context"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/service/booking"
	"github.com/Domenick1991/servicebooking/internal/service/notification"
	"github.com/Domenick1991/servicebooking/internal/service/review"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, user domain.User, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, user domain.User, id string) (*domain.Booking, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) UpdateStatus(ctx context.Context, user domain.User, id string, next domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, user, id, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, user domain.User, query booking.ListQuery) (*booking.Page, error) {
	args := m.Called(ctx, user, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Page), args.Error(1)
}

type MockReviewUseCase struct {
	mock.Mock
}

func (m *MockReviewUseCase) Create(ctx context.Context, user domain.User, input review.CreateInput) (*domain.Review, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewUseCase) Update(ctx context.Context, user domain.User, id string, input review.UpdateInput) (*domain.Review, error) {
	args := m.Called(ctx, user, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewUseCase) Delete(ctx context.Context, user domain.User, id string) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockReviewUseCase) ToggleHelpful(ctx context.Context, user domain.User, id string) (*review.HelpfulResult, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.HelpfulResult), args.Error(1)
}

func (m *MockReviewUseCase) ListByProfessional(ctx context.Context, professionalID string, query review.ListQuery) (*review.Page, error) {
	args := m.Called(ctx, professionalID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Page), args.Error(1)
}

type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) Create(ctx context.Context, input notification.CreateInput) (*domain.Notification, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationUseCase) List(ctx context.Context, user domain.User, query notification.ListQuery) (*notification.Page, error) {
	args := m.Called(ctx, user, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Page), args.Error(1)
}

func (m *MockNotificationUseCase) MarkRead(ctx context.Context, user domain.User, id string) (*domain.Notification, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationUseCase) MarkAllRead(ctx context.Context, user domain.User) (int, error) {
	args := m.Called(ctx, user)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationUseCase) Delete(ctx context.Context, user domain.User, id string) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockNotificationUseCase) GetPreferences(ctx context.Context, user domain.User) (*domain.Preference, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

func (m *MockNotificationUseCase) UpdatePreferences(ctx context.Context, user domain.User, pref domain.Preference) (*domain.Preference, error) {
	args := m.Called(ctx, user, pref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

type MockProfessionalUseCase struct {
	mock.Mock
}

func (m *MockProfessionalUseCase) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Professional), args.Error(1)
}

// tokenAuth accepts a fixed set of tokens.
type tokenAuth map[string]domain.User

func (a tokenAuth) Resolve(_ context.Context, token string) (domain.User, error) {
	u, ok := a[token]
	if !ok {
		return domain.User{}, apperrors.Unauthenticated("invalid token")
	}
	return u, nil
}
