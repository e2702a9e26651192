package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/kafka"
	"github.com/Domenick1991/servicebooking/internal/repository"
	"github.com/Domenick1991/servicebooking/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTransitionAttempts bounds how often a status change is re-validated after losing a race.
const maxTransitionAttempts = 3

type BookingUseCase interface {
	CreateBooking(ctx context.Context, user domain.User, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, user domain.User, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, user domain.User, id string, next domain.BookingStatus) (*domain.Booking, error)
	ListBookings(ctx context.Context, user domain.User, query ListQuery) (*Page, error)
}

type ProfessionalReader interface {
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Orchestrator runs the side effects of booking writes.
type Orchestrator interface {
	BookingCreated(ctx context.Context, b *domain.Booking)
	BookingStatusChanged(ctx context.Context, b *domain.Booking, previous domain.BookingStatus, actorID string)
}

type BookingService struct {
	bookings      repository.BookingRepository
	professionals ProfessionalReader
	orch          Orchestrator
	loader        *cache.Loader
	producer      Producer
	bookingTopic  string
	logger        *zap.Logger
	now           func() time.Time
}

type CreateBookingInput struct {
	ProfessionalID string              `json:"professionalId" validate:"required"`
	ServiceType    string              `json:"serviceType" validate:"required,max=100"`
	Job            domain.JobDetails   `json:"jobDetails"`
	Contact        *domain.ContactInfo `json:"contactInfo" validate:"required"`
}

type ListQuery struct {
	Status    string
	Search    string
	Date      string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type Page struct {
	Data       []domain.Booking `json:"data"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes booking events to topic.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	professionals ProfessionalReader,
	orch Orchestrator,
	loader *cache.Loader,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		professionals: professionals,
		orch:          orch,
		loader:        loader,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, user domain.User, input CreateBookingInput) (*domain.Booking, error) {
	if user.Role != domain.RoleClient {
		return nil, apperrors.Forbidden("only clients can create bookings")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validateContact(*input.Contact); err != nil {
		return nil, err
	}
	if input.Job.Budget < 0 || input.Job.DurationHours < 0 {
		return nil, apperrors.Validation("budget and duration must not be negative")
	}

	pro, err := s.professionals.GetByID(ctx, input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !pro.Available {
		return nil, apperrors.NotFound("available professional", input.ProfessionalID)
	}

	now := s.now().UTC()
	booking := &domain.Booking{
		ID:             uuid.NewString(),
		ClientID:       user.ID,
		ProfessionalID: pro.ID,
		ServiceType:    input.ServiceType,
		Status:         domain.BookingStatusPending,
		Contact:        *input.Contact,
		Job:            input.Job,
		Payment:        domain.Payment{Amount: input.Job.Budget, Status: domain.PaymentPending},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.orch.BookingCreated(ctx, booking)
	s.publish(ctx, kafka.EventBookingCreated, booking, "", user.ID)
	return booking, nil
}

func validateContact(c domain.ContactInfo) error {
	switch c.Method {
	case domain.ContactEmail:
		return validation.Var("contactInfo.address", strings.TrimSpace(c.Address), "required,email")
	case domain.ContactPhone:
		return validation.Var("contactInfo.address", strings.TrimSpace(c.Address), "required,e164")
	default:
		return apperrors.Validation("contactInfo.method must be one of: email phone")
	}
}

func (s *BookingService) GetBooking(ctx context.Context, user domain.User, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(user.ID) && !user.IsAdmin() {
		return nil, apperrors.Forbidden("not a party to this booking")
	}
	return b, nil
}

// UpdateStatus moves the booking to next if the caller may act on it and the move is legal.
// The write only applies if the status is still the one validated; otherwise the booking is
// re-read and the checks run again.
func (s *BookingService) UpdateStatus(ctx context.Context, user domain.User, id string, next domain.BookingStatus) (*domain.Booking, error) {
	if !next.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", next))
	}

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.IsParty(user.ID) && !user.IsAdmin() {
			return nil, apperrors.Forbidden("not a party to this booking")
		}
		if !current.Status.CanTransition(next) {
			return nil, apperrors.InvalidTransition(string(current.Status), string(next))
		}

		schedule := current.Schedule
		if next == domain.BookingStatusCompleted {
			end := s.now().UTC()
			schedule.ActualEnd = &end
		}

		updated, err := s.bookings.UpdateStatus(ctx, id, current.Status, next, schedule)
		if errors.Is(err, repository.ErrStatusChanged) {
			s.logger.Info("booking status moved during transition, re-validating",
				zap.String("booking_id", id), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.orch.BookingStatusChanged(ctx, updated, current.Status, user.ID)
		s.publish(ctx, kafka.EventBookingStatusChanged, updated, current.Status, user.ID)
		return updated, nil
	}
	return nil, apperrors.Conflict("booking is being changed concurrently, try again")
}

var bookingSortFields = map[string]domain.BookingSortField{
	"":              domain.BookingSortCreatedAt,
	"createdAt":     domain.BookingSortCreatedAt,
	"preferredDate": domain.BookingSortPreferredDate,
	"budget":        domain.BookingSortBudget,
	"status":        domain.BookingSortStatus,
}

// ListBookings lists the bookings the caller is a party to; admins see every booking.
func (s *BookingService) ListBookings(ctx context.Context, user domain.User, query ListQuery) (*Page, error) {
	filter, err := s.buildFilter(user, query)
	if err != nil {
		return nil, err
	}

	owner := user.ID
	if user.IsAdmin() {
		owner = cache.OwnerAll
	}
	key := cache.Key{
		Collection: cache.CollectionBookings,
		Owner:      owner,
		Filters: map[string]string{
			"status": string(filter.Status),
			"date":   query.Date,
		},
		Page:      filter.Page,
		Limit:     filter.Limit,
		SortField: string(filter.SortBy),
		SortOrder: sortOrder(filter.SortDesc),
		Search:    filter.Search,
	}

	page, err := cache.Fetch(ctx, s.loader, key, func(ctx context.Context) (Page, error) {
		items, total, err := s.bookings.List(ctx, filter)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Data:       items,
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: domain.TotalPages(total, filter.Limit),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *BookingService) buildFilter(user domain.User, query ListQuery) (domain.BookingFilter, error) {
	var filter domain.BookingFilter
	switch {
	case user.IsAdmin():
	case user.Role == domain.RoleProfessional:
		filter.ProfessionalID = user.ID
	default:
		filter.ClientID = user.ID
	}

	if query.Status != "" {
		status := domain.BookingStatus(query.Status)
		if !status.Valid() {
			return filter, apperrors.Validation(fmt.Sprintf("unknown status %q", query.Status))
		}
		filter.Status = status
	}

	sortBy, ok := bookingSortFields[query.SortBy]
	if !ok {
		return filter, apperrors.Validation("sortBy must be one of: createdAt preferredDate budget status")
	}
	filter.SortBy = sortBy

	switch strings.ToLower(query.SortOrder) {
	case "", "desc":
		filter.SortDesc = true
	case "asc":
	default:
		return filter, apperrors.Validation("sortOrder must be one of: asc desc")
	}

	if query.Date != "" {
		d, err := time.Parse(time.DateOnly, query.Date)
		if err != nil {
			return filter, apperrors.Validation("date must be formatted as YYYY-MM-DD")
		}
		filter.Date = &d
	}

	filter.Search = strings.TrimSpace(query.Search)
	filter.Page, filter.Limit = domain.NormalizePage(query.Page, query.Limit)
	return filter, nil
}

func sortOrder(desc bool) string {
	if desc {
		return "desc"
	}
	return "asc"
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, previous domain.BookingStatus, actorID string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:           eventType,
		BookingID:      b.ID,
		ClientID:       b.ClientID,
		ProfessionalID: b.ProfessionalID,
		Status:         string(b.Status),
		PreviousStatus: string(previous),
		ActorID:        actorID,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.ID, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.String("booking_id", b.ID),
			zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
