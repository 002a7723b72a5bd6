package models

import "time"

// User is the account record. Password is nil for social-only accounts,
// GoogleID is nil for password accounts; exactly one is set at creation.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  *string   `json:"-"`
	GoogleID  *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
