package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID             string    `json:"id"`
	BookingID      string    `json:"bookingId"`
	ClientID       string    `json:"clientId"`
	ProfessionalID string    `json:"professionalId"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	Images         []string  `json:"images,omitempty"`
	HelpfulVoters  []string  `json:"helpfulVoters"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (r *Review) HelpfulCount() int {
	return len(r.HelpfulVoters)
}

type ReviewSort string

const (
	ReviewSortNewest  ReviewSort = "newest"
	ReviewSortOldest  ReviewSort = "oldest"
	ReviewSortHighest ReviewSort = "highest"
	ReviewSortLowest  ReviewSort = "lowest"
	ReviewSortHelpful ReviewSort = "helpful"
)

func (s ReviewSort) Valid() bool {
	switch s {
	case ReviewSortNewest, ReviewSortOldest, ReviewSortHighest, ReviewSortLowest, ReviewSortHelpful:
		return true
	}
	return false
}
