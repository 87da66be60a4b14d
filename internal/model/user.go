package model

import (
	"context"
	"strings"
	"time"
)

// Experience is a founder's self-declared experience level.
type Experience string

const (
	ExperienceBeginner     Experience = "Beginner"
	ExperienceIntermediate Experience = "Intermediate"
	ExperienceExpert       Experience = "Expert"
)

// Valid reports whether e is one of the known levels.
func (e Experience) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceExpert:
		return true
	}
	return false
}

// UserStore defines persistence operations for users.
// GetByEmail returns ErrNotFound when no record matches, Create returns
// ErrDuplicateEmail when the email is already taken.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored founder profile with its optional credential.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash *string
	Avatar       *string
	Bio          *string
	Skills       []string
	Interests    []string
	Experience   Experience
	LookingFor   []string
	Location     *string
	Timezone     *string
	IsPublic     bool
	Connections  []string
	CreatedAt    time.Time
}

// NewUser returns a record carrying the profile defaults: empty lists,
// Beginner experience, public visibility and no password.
func NewUser(name, email string, now time.Time) User {
	return User{
		Name:        name,
		Email:       NormalizeEmail(email),
		Skills:      []string{},
		Interests:   []string{},
		Experience:  ExperienceBeginner,
		LookingFor:  []string{},
		IsPublic:    true,
		Connections: []string{},
		CreatedAt:   now,
	}
}

// HasPassword reports whether the record can be used for credential login.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// NormalizeEmail case-folds and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
