package domain

import (
	"strings"
	"time"
)

// UserRole distinguishes regular members from archive administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User is the internal record for an authenticated member. SubjectID is the
// stable identifier issued by the external auth provider; the record is
// created lazily the first time a session for that subject is seen.
type User struct {
	ID        string
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Username  string
	Role      UserRole
	AvatarKey string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName joins the name parts, falling back to username then email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// IsAdmin reports whether the user may access admin surfaces.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
