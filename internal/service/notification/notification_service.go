// Package notification persists in-app notifications, gates side-channel delivery and
// manages per-user delivery preferences.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/outbound"
	"github.com/Domenick1991/servicebooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTitleLength   = 200
	maxMessageLength = 2000
)

type NotificationUseCase interface {
	Create(ctx context.Context, input CreateInput) (*domain.Notification, error)
	List(ctx context.Context, user domain.User, query ListQuery) (*Page, error)
	MarkRead(ctx context.Context, user domain.User, id string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, user domain.User) (int, error)
	Delete(ctx context.Context, user domain.User, id string) error
	GetPreferences(ctx context.Context, user domain.User) (*domain.Preference, error)
	UpdatePreferences(ctx context.Context, user domain.User, pref domain.Preference) (*domain.Preference, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Outbound interface {
	Enqueue(m outbound.Message) bool
}

type Invalidator interface {
	NotificationsChanged(ctx context.Context, recipientID string)
}

type CreateInput struct {
	RecipientID string                  `json:"recipientId" binding:"required"`
	Type        domain.NotificationType `json:"type" binding:"required"`
	Title       string                  `json:"title" binding:"required"`
	Message     string                  `json:"message" binding:"required"`
	Data        map[string]any          `json:"data"`
	Priority    domain.Priority         `json:"priority"`
	ExpiresAt   *time.Time              `json:"expiresAt"`
}

type ListQuery struct {
	Type       domain.NotificationType
	UnreadOnly bool
	Page       int
	Limit      int
}

type Page struct {
	Data        []domain.Notification `json:"data"`
	Total       int                   `json:"total"`
	UnreadCount int                   `json:"unreadCount"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
}

// CacheUntil is the earliest expiry on the page: from then on the page would list a
// notification the store no longer returns.
func (p Page) CacheUntil() time.Time {
	var until time.Time
	for _, n := range p.Data {
		if n.ExpiresAt != nil && (until.IsZero() || n.ExpiresAt.Before(until)) {
			until = *n.ExpiresAt
		}
	}
	return until
}

type NotificationService struct {
	notifications repository.NotificationRepository
	prefs         repository.PreferenceRepository
	users         UserStore
	gate          *Gate
	outbound      Outbound
	invalidator   Invalidator
	loader        *cache.Loader
	defaultTZ     string
	logger        *zap.Logger
	now           func() time.Time
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	prefs repository.PreferenceRepository,
	users UserStore,
	gate *Gate,
	out Outbound,
	invalidator Invalidator,
	loader *cache.Loader,
	defaultTZ string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		prefs:         prefs,
		users:         users,
		gate:          gate,
		outbound:      out,
		invalidator:   invalidator,
		loader:        loader,
		defaultTZ:     defaultTZ,
		logger:        logger,
		now:           time.Now,
	}
}

// Create persists the in-app record and then offers the notification to each outbound channel
// the gate allows. Outbound problems are logged and never fail the call.
func (s *NotificationService) Create(ctx context.Context, input CreateInput) (*domain.Notification, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Data:        input.Data,
		Priority:    input.Priority,
		ExpiresAt:   input.ExpiresAt,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	s.invalidator.NotificationsChanged(ctx, n.RecipientID)

	s.dispatch(ctx, n)
	return n, nil
}

func validateCreate(input *CreateInput) error {
	if input.RecipientID == "" {
		return apperrors.Validation("recipientId is required")
	}
	if !input.Type.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown notification type %q", input.Type))
	}
	if input.Title == "" || utf8.RuneCountInString(input.Title) > maxTitleLength {
		return apperrors.Validation(fmt.Sprintf("title must be 1..%d characters", maxTitleLength))
	}
	if input.Message == "" || utf8.RuneCountInString(input.Message) > maxMessageLength {
		return apperrors.Validation(fmt.Sprintf("message must be 1..%d characters", maxMessageLength))
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if !input.Priority.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown priority %q", input.Priority))
	}
	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, n *domain.Notification) {
	if s.outbound == nil {
		return
	}
	recipient, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		s.logger.Warn("notification recipient lookup failed, skipping outbound",
			zap.String("notification_id", n.ID), zap.Error(err))
		return
	}

	now := s.now()
	for _, ch := range domain.OutboundChannels() {
		decision := s.gate.ShouldDeliver(ctx, n.RecipientID, ch, n.Type, now)
		if !decision.Allowed {
			s.logger.Debug("outbound delivery suppressed",
				zap.String("notification_id", n.ID),
				zap.String("channel", string(ch)),
				zap.String("reason", decision.Reason))
			continue
		}

		to := recipient.Email
		if ch == domain.ChannelPush {
			to = recipient.Phone
		}
		if to == "" {
			s.logger.Debug("recipient has no address for channel",
				zap.String("notification_id", n.ID), zap.String("channel", string(ch)))
			continue
		}

		s.outbound.Enqueue(outbound.Message{
			NotificationID: n.ID,
			RecipientID:    n.RecipientID,
			Type:           n.Type,
			Channel:        ch,
			To:             to,
			Subject:        n.Title,
			Body:           n.Message,
		})
	}
}

func (s *NotificationService) List(ctx context.Context, user domain.User, query ListQuery) (*Page, error) {
	query.Page, query.Limit = domain.NormalizePage(query.Page, query.Limit)
	if query.Type != "" && !query.Type.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown notification type %q", query.Type))
	}
	key := cache.Key{
		Collection: cache.CollectionNotifications,
		Owner:      user.ID,
		Filters: map[string]string{
			"type":       string(query.Type),
			"unreadOnly": strconv.FormatBool(query.UnreadOnly),
		},
		Page:  query.Page,
		Limit: query.Limit,
	}

	page, err := cache.Fetch(ctx, s.loader, key, func(ctx context.Context) (Page, error) {
		items, total, unread, err := s.notifications.List(ctx, domain.NotificationFilter{
			RecipientID: user.ID,
			Type:        query.Type,
			UnreadOnly:  query.UnreadOnly,
			Page:        query.Page,
			Limit:       query.Limit,
			Now:         s.now().UTC(),
		})
		if err != nil {
			return Page{}, err
		}
		return Page{Data: items, Total: total, UnreadCount: unread, Page: query.Page, Limit: query.Limit}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, user domain.User, id string) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, user.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidator.NotificationsChanged(ctx, user.ID)
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, user domain.User) (int, error) {
	n, err := s.notifications.MarkAllRead(ctx, user.ID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidator.NotificationsChanged(ctx, user.ID)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, user domain.User, id string) error {
	if err := s.notifications.Delete(ctx, id, user.ID); err != nil {
		return err
	}
	s.invalidator.NotificationsChanged(ctx, user.ID)
	return nil
}

// GetPreferences returns the stored record, creating the all-enabled default on first access.
func (s *NotificationService) GetPreferences(ctx context.Context, user domain.User) (*domain.Preference, error) {
	pref, err := s.prefs.Get(ctx, user.ID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	def := domain.DefaultPreference(user.ID, s.defaultTZ)
	def.UpdatedAt = s.now().UTC()
	if err := s.prefs.Upsert(ctx, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, user domain.User, pref domain.Preference) (*domain.Preference, error) {
	if pref.QuietHours.Timezone == "" {
		pref.QuietHours.Timezone = s.defaultTZ
	}
	if _, err := time.LoadLocation(pref.QuietHours.Timezone); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("unknown timezone %q", pref.QuietHours.Timezone))
	}

	pref.UserID = user.ID
	pref.UpdatedAt = s.now().UTC()
	if err := s.prefs.Upsert(ctx, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

var _ NotificationUseCase = (*NotificationService)(nil)
