package auth

import (
	"fmt"

	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
)

// Directory holds the configured accounts.
type Directory struct {
	users map[string]User
	dummy string
}

// NewDirectory builds a directory from configuration.
func NewDirectory(accounts []config.UserConfig) (*Directory, error) {
	d := &Directory{users: make(map[string]User, len(accounts))}
	for _, a := range accounts {
		role, err := ParseRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", a.Username, err)
		}
		if _, err := parsePHC(a.PasswordHash); err != nil {
			return nil, fmt.Errorf("user %q: %w", a.Username, err)
		}
		d.users[a.Username] = User{Username: a.Username, Role: role, PasswordHash: a.PasswordHash}
	}

	// Unknown usernames are verified against this so they take as long as
	// a wrong password.
	dummy, err := HashPassword("smartaura")
	if err != nil {
		return nil, err
	}
	d.dummy = dummy
	return d, nil
}

// Authenticate checks a username and password.
func (d *Directory) Authenticate(username, password string) (User, error) {
	u, known := d.users[username]
	hash := u.PasswordHash
	if !known {
		hash = d.dummy
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return User{}, fmt.Errorf("verifying password: %w", err)
	}
	if !known || !ok {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
