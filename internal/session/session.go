// Package session resolves an authenticated credential into an identity plus
// role and keeps that pair current while the auth provider changes
// underneath (token refresh, sign-out from another device).
package session

import (
	"context"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// Session is the opaque credential exchange result. The role is deliberately
// not part of it; it comes from the profile store.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthProvider is the external authentication collaborator.
type AuthProvider interface {
	SignIn(ctx context.Context, email, secret string) (*Session, error)
	// CurrentSession reports an existing session, nil when there is none.
	CurrentSession(ctx context.Context) (*Session, error)
	// Subscribe registers a change callback and returns its unsubscribe.
	Subscribe(fn func(event AuthEvent, s *Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// SessionRefresher is implemented by providers that can rotate an access
// token in place.
type SessionRefresher interface {
	Refresh(ctx context.Context) (*Session, error)
}

// ProfileStore is the slice of the profile repository the resolver needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (*entity.Profile, error)
	Upsert(ctx context.Context, profile *entity.Profile) error
}

// Identity is the resolved (user, role) pair.
type Identity struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name,omitempty"`
	Role        entity.Role `json:"role"`
}

type State string

const (
	StateIdle            State = "idle"
	StateAuthenticating  State = "authenticating"
	StateRolePending     State = "role_pending"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is a point-in-time view of the resolver. The auth flags are
// computed from it, never stored, so they cannot drift apart.
type Snapshot struct {
	State    State
	Identity *Identity
	Err      error
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Identity != nil
}

func (s Snapshot) IsAdmin() bool {
	return s.Identity != nil && s.Identity.Role == entity.RoleAdmin
}

func (s Snapshot) IsBDA() bool {
	return s.Identity != nil && s.Identity.Role == entity.RoleBDA
}
