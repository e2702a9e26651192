package domain

import "time"

// TypeToggles holds one switch per notification type.
type TypeToggles struct {
	NewBooking      bool `json:"new_booking"`
	BookingUpdate   bool `json:"booking_update"`
	NewReview       bool `json:"new_review"`
	NewMessage      bool `json:"new_message"`
	PaymentReceived bool `json:"payment_received"`
	System          bool `json:"system"`
}

func AllTypesEnabled() TypeToggles {
	return TypeToggles{
		NewBooking:      true,
		BookingUpdate:   true,
		NewReview:       true,
		NewMessage:      true,
		PaymentReceived: true,
		System:          true,
	}
}

func (t TypeToggles) Enabled(nt NotificationType) bool {
	switch nt {
	case NotificationNewBooking:
		return t.NewBooking
	case NotificationBookingUpdate:
		return t.BookingUpdate
	case NotificationNewReview:
		return t.NewReview
	case NotificationNewMessage:
		return t.NewMessage
	case NotificationPaymentReceived:
		return t.PaymentReceived
	case NotificationSystem:
		return t.System
	default:
		return false
	}
}

func (t *TypeToggles) Set(nt NotificationType, enabled bool) {
	switch nt {
	case NotificationNewBooking:
		t.NewBooking = enabled
	case NotificationBookingUpdate:
		t.BookingUpdate = enabled
	case NotificationNewReview:
		t.NewReview = enabled
	case NotificationNewMessage:
		t.NewMessage = enabled
	case NotificationPaymentReceived:
		t.PaymentReceived = enabled
	case NotificationSystem:
		t.System = enabled
	}
}

type ChannelPreference struct {
	Enabled bool        `json:"enabled"`
	Types   TypeToggles `json:"types"`
}

type QuietHours struct {
	Enabled  bool      `json:"enabled"`
	Start    TimeOfDay `json:"start"`
	End      TimeOfDay `json:"end"`
	Timezone string    `json:"timezone"`
}

// Covers reports whether the local wall-clock time falls in [Start, End).
// A window with Start after End wraps midnight.
func (q QuietHours) Covers(local time.Time) bool {
	m := local.Hour()*60 + local.Minute()
	start, end := q.Start.Minutes(), q.End.Minutes()
	switch {
	case start < end:
		return m >= start && m < end
	case start > end:
		return m >= start || m < end
	default:
		return false
	}
}

type Preference struct {
	UserID     string            `json:"userId"`
	Email      ChannelPreference `json:"email"`
	Push       ChannelPreference `json:"push"`
	InApp      ChannelPreference `json:"inApp"`
	QuietHours QuietHours        `json:"quietHours"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// DefaultPreference is the all-enabled record used when a user has none stored.
func DefaultPreference(userID, timezone string) Preference {
	all := ChannelPreference{Enabled: true, Types: AllTypesEnabled()}
	return Preference{
		UserID: userID,
		Email:  all,
		Push:   all,
		InApp:  all,
		QuietHours: QuietHours{
			Enabled:  false,
			Start:    TimeOfDay{Hour: 22},
			End:      TimeOfDay{Hour: 8},
			Timezone: timezone,
		},
	}
}

func (p *Preference) Channel(c Channel) (ChannelPreference, bool) {
	switch c {
	case ChannelEmail:
		return p.Email, true
	case ChannelPush:
		return p.Push, true
	case ChannelInApp:
		return p.InApp, true
	default:
		return ChannelPreference{}, false
	}
}
