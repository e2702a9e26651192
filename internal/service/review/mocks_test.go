package review

import (
	"context"

	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/service/dispatch"
	"github.com/stretchr/testify/mock"
)

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) ListByProfessional(ctx context.Context, professionalID string, sort domain.ReviewSort, page, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, professionalID, sort, page, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) RatingsFor(ctx context.Context, professionalID string) ([]int, error) {
	args := m.Called(ctx, professionalID)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockReviewRepository) ToggleHelpful(ctx context.Context, id, userID string) ([]string, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockBookingReader struct {
	mock.Mock
}

func (m *MockBookingReader) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) ReviewChanged(ctx context.Context, change dispatch.ReviewChange, r *domain.Review) (domain.RatingAggregate, error) {
	args := m.Called(ctx, change, r)
	return args.Get(0).(domain.RatingAggregate), args.Error(1)
}

func (m *MockOrchestrator) ReviewListingsChanged(ctx context.Context, professionalID string) {
	m.Called(ctx, professionalID)
}

func (m *MockOrchestrator) ReviewReverted(ctx context.Context, r *domain.Review) {
	m.Called(ctx, r)
}
