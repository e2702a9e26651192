package domain

import "time"

type Role string

const (
	RoleClient       Role = "client"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RatingAggregate is derived from the reviews referencing a professional.
type RatingAggregate struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Professional struct {
	User
	Trade         string          `json:"trade"`
	Available     bool            `json:"available"`
	Rating        RatingAggregate `json:"rating"`
	RatingVersion int64           `json:"-"`
}
