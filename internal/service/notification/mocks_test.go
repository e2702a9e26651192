package notification

import (
	"context"
	"time"

	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/outbound"
	"github.com/stretchr/testify/mock"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Int(2), args.Error(3)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*domain.Notification, error) {
	args := m.Called(ctx, id, recipientID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error) {
	args := m.Called(ctx, recipientID, at)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

func (m *MockPreferenceRepository) Upsert(ctx context.Context, pref *domain.Preference) error {
	return m.Called(ctx, pref).Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockOutbound struct {
	mock.Mock
}

func (m *MockOutbound) Enqueue(msg outbound.Message) bool {
	return m.Called(msg).Bool(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) NotificationsChanged(ctx context.Context, recipientID string) {
	m.Called(ctx, recipientID)
}
