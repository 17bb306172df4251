// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxFullNameLen = 72
)

var (
	ErrFullNameTooLong = errors.New("full name too long")
	ErrFullNameEmpty   = errors.New("full name empty")
)

type UserID string

type User struct {
	ID        UserID `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in callers.
func NewUser(email, fullName string) (*User, error) {
	if len(fullName) == 0 {
		return nil, ErrFullNameEmpty
	}
	if len(fullName) > MaxFullNameLen {
		return nil, ErrFullNameTooLong
	}
	return &User{ID: UserID(uuid.NewString()), Email: email, FullName: fullName}, nil
}

func (u *User) SetFullName(name string) error {
	if len(name) == 0 {
		return ErrFullNameEmpty
	}
	if len(name) > MaxFullNameLen {
		return ErrFullNameTooLong
	}
	u.FullName = name
	return nil
}
