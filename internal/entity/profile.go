package entity

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleBDA   Role = "bda"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleBDA:
		return RoleBDA, nil
	default:
		return "", errors.New("role must be admin or bda")
	}
}

// Profile is the role record keyed by the auth user id. The role lives here,
// not in the credential, so a fresh sign-in always goes through a profile
// lookup.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProfileRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
	ListByRole(ctx context.Context, role Role) ([]*Profile, error)
}
