package auth

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

// Credentials checks usernames and passwords against configured hashes.
//
// Thread Safety: immutable after NewCredentials; safe for concurrent use.
type Credentials struct {
	hashes map[string]string
	dummy  string // verified for unknown users so timing does not leak them
}

// NewCredentials validates every configured user.
func NewCredentials(users []config.UserConfig) (*Credentials, error) {
	c := &Credentials{hashes: make(map[string]string, len(users))}
	for _, u := range users {
		if _, dup := c.hashes[u.Username]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, u.Username)
		}
		if _, err := decodePHC(u.PasswordHash); err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Username, err)
		}
		c.hashes[u.Username] = u.PasswordHash
		if c.dummy == "" {
			c.dummy = u.PasswordHash
		}
	}
	return c, nil
}

// Len returns the number of configured users.
func (c *Credentials) Len() int { return len(c.hashes) }

// Verify returns nil when password is correct for username and
// ErrInvalidCredentials otherwise.
func (c *Credentials) Verify(username, password string) error {
	hash, known := c.hashes[username]
	if !known {
		if c.dummy != "" {
			VerifyPassword(password, c.dummy) //nolint:errcheck // timing only
		}
		return ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", username, err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
