package domain

import "time"

// User models an authenticated marketplace account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleGrant records that a user holds a role.
type RoleGrant struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	GrantedBy string    `json:"granted_by,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}
