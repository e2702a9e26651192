package domain

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationNewBooking      NotificationType = "new_booking"
	NotificationBookingUpdate   NotificationType = "booking_update"
	NotificationNewReview       NotificationType = "new_review"
	NotificationNewMessage      NotificationType = "new_message"
	NotificationPaymentReceived NotificationType = "payment_received"
	NotificationSystem          NotificationType = "system"
)

// NotificationTypes lists every notification type in a stable order.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationNewBooking,
		NotificationBookingUpdate,
		NotificationNewReview,
		NotificationNewMessage,
		NotificationPaymentReceived,
		NotificationSystem,
	}
}

func (t NotificationType) Valid() bool {
	for _, v := range NotificationTypes() {
		if v == t {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// OutboundChannels are the side channels governed by the notification gate.
func OutboundChannels() []Channel {
	return []Channel{ChannelEmail, ChannelPush}
}

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data,omitempty"`
	Priority    Priority         `json:"priority"`
	IsRead      bool             `json:"isRead"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type NotificationFilter struct {
	RecipientID string
	Type        NotificationType
	UnreadOnly  bool
	Page        int
	Limit       int
	Now         time.Time
}

func (f NotificationFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TimeOfDay is a local wall-clock time with minute precision, encoded as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since local midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
