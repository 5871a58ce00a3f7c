package auth

import "errors"

// Role is an authorisation tier.
type Role string

// Roles.
const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// ParseRole validates a configured role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleGuest:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// CanControl reports whether the role may change device state.
func (r Role) CanControl() bool {
	return r == RoleAdmin
}

// User is a configured dashboard account.
type User struct {
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrUnknownRole        = errors.New("auth: unknown role")
	ErrForbidden          = errors.New("auth: insufficient permissions")
)
