package models

import "time"

// UserRole is the closed set of marketplace roles.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User represents a marketplace account. Accounts are created on first
// registration and never deleted; an empty role reads as student.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  string    `db:"photo_url" json:"photo_url,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveRole resolves the stored role, defaulting to student.
func (u *User) EffectiveRole() UserRole {
	if u == nil || !u.Role.Valid() {
		return RoleStudent
	}
	return u.Role
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
