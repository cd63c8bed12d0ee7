// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxUsernameLen = 36

var ErrUsernameTooLong = errors.New("username too long")

type UserID string

type User struct {
	ID       UserID `json:"id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	Avatar   string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// NormalizeUser fills in the identity a client attaches to voice
// presence. A missing id falls back to the connection identity and a
// missing username gets a minted guest name; an oversized username is
// a validation failure.
func NormalizeUser(u User, fallback UserID) (User, error) {
	if u.ID == "" {
		u.ID = fallback
	}
	if u.Username == "" {
		u.Username = "guest-" + uuid.NewString()[:8]
	}
	if len(u.Username) > MaxUsernameLen {
		return User{}, ErrUsernameTooLong
	}
	return u, nil
}
