package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusDeclined,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusDeclined, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether next is reachable from s in one step.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusAccepted || next == BookingStatusDeclined || next == BookingStatusCancelled
	case BookingStatusAccepted:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	case BookingStatusDeclined, BookingStatusCompleted, BookingStatusCancelled:
		return false
	default:
		return false
	}
}

type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
)

type ContactInfo struct {
	Method  ContactMethod `json:"method"`
	Address string        `json:"address"`
}

type JobDetails struct {
	Description   string     `json:"description,omitempty"`
	Location      string     `json:"location"`
	PreferredDate *time.Time `json:"preferredDate,omitempty"`
	PreferredTime string     `json:"preferredTime,omitempty"`
	DurationHours float64    `json:"durationHours,omitempty"`
	Budget        float64    `json:"budget,omitempty"`
}

type Schedule struct {
	PlannedStart *time.Time `json:"plannedStartDate,omitempty"`
	PlannedEnd   *time.Time `json:"plannedEndDate,omitempty"`
	ActualStart  *time.Time `json:"actualStartDate,omitempty"`
	ActualEnd    *time.Time `json:"actualEndDate,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payment struct {
	Amount   float64       `json:"amount"`
	Currency string        `json:"currency,omitempty"`
	Status   PaymentStatus `json:"status"`
}

type Booking struct {
	ID             string        `json:"id"`
	ClientID       string        `json:"clientId"`
	ProfessionalID string        `json:"professionalId"`
	ServiceType    string        `json:"serviceType"`
	Status         BookingStatus `json:"status"`
	Contact        ContactInfo   `json:"contactInfo"`
	Job            JobDetails    `json:"jobDetails"`
	Schedule       Schedule      `json:"schedule"`
	Payment        Payment       `json:"payment"`
	ReviewID       *string       `json:"reviewId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// IsParty reports whether userID is the client or the assigned professional.
func (b *Booking) IsParty(userID string) bool {
	return userID != "" && (b.ClientID == userID || b.ProfessionalID == userID)
}

// OtherParties returns the parties of the booking that are not userID. An admin acting
// on a booking gets both the client and the professional.
func (b *Booking) OtherParties(userID string) []string {
	parties := make([]string, 0, 2)
	for _, id := range []string{b.ClientID, b.ProfessionalID} {
		if id != "" && id != userID {
			parties = append(parties, id)
		}
	}
	return parties
}

type BookingSortField string

const (
	BookingSortCreatedAt     BookingSortField = "createdAt"
	BookingSortPreferredDate BookingSortField = "preferredDate"
	BookingSortBudget        BookingSortField = "budget"
	BookingSortStatus        BookingSortField = "status"
)

// BookingFilter is the normalized shape of a booking list query.
type BookingFilter struct {
	ClientID       string
	ProfessionalID string
	Status         BookingStatus
	Search         string
	Date           *time.Time
	SortBy         BookingSortField
	SortDesc       bool
	Page           int
	Limit          int
}

func (f BookingFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
