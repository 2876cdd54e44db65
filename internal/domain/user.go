package domain

import (
	"slices"
	"time"
)

// Role names as reported by the upstream API.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an account record served by the upstream API.
//
// The current-user endpoint returns a reduced shape (id, username, name);
// the remaining fields are populated only on profile and admin pages.
type User struct {
	ID        int64     `json:"userId"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the user carries the ADMIN role.
// Display affordance only; the API enforces admin access on every call.
func (u *User) IsAdmin() bool {
	return u != nil && slices.Contains(u.Roles, RoleAdmin)
}

// SignupParams holds the fields for the account registration form.
type SignupParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Credentials holds a login submission.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
