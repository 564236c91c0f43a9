package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                    int64     `json:"id"`
	FullName              string    `json:"full_name"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	Phone                 string    `json:"phone,omitempty"`
	Role                  string    `json:"role"`
	IsVerified            bool      `json:"is_verified"`
	VerificationCode      string    `json:"-"`
	VerificationExpiresAt time.Time `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
