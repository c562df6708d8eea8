package domain

import "time"

// User is an authenticated account. The RSVP core only ever sees its ID;
// credential checks happen in the auth service before any request reaches
// the coordinator.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
