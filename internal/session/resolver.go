package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

const DefaultRoleFetchTimeout = 10 * time.Second

// Resolver drives one user's auth state machine:
//
//	Idle -> Authenticating -> RolePending -> Authenticated
//	                       \-> Unauthenticated (on any failure, Err set)
//
// On construction it checks the provider for an existing session exactly
// once and then relies on the subscription for every later transition. The
// subscription handler never re-issues that initial check; an earlier
// frontend build did and refetched itself in a loop.
//
// Concurrent events are resolved last-writer-wins: every adopted session
// bumps an epoch and a role fetch only commits if its epoch is still
// current. A duplicate role fetch for the same identity is harmless; both
// compute the same role.
type Resolver struct {
	auth       AuthProvider
	profiles   ProfileStore
	adminEmail string
	timeout    time.Duration

	mu       sync.Mutex
	state    State
	identity *Identity
	session  *Session
	err      error
	epoch    uint64

	unsubscribe func()
}

func NewResolver(ctx context.Context, auth AuthProvider, profiles ProfileStore, adminEmail string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultRoleFetchTimeout
	}
	r := &Resolver{
		auth:       auth,
		profiles:   profiles,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		timeout:    timeout,
		state:      StateIdle,
	}

	// Initial session check, exactly once.
	if existing, err := auth.CurrentSession(ctx); err == nil && existing != nil {
		epoch := r.adopt(existing)
		go r.resolveRole(epoch, existing)
	}

	r.unsubscribe = auth.Subscribe(r.onAuthChange)
	return r
}

// Close detaches the resolver from the provider's event stream.
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Session returns a copy of the current session credential, nil when signed
// out.
func (r *Resolver) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	sess := *r.session
	return &sess
}

// Refresh rotates the access token when the provider supports rotation. The
// refreshed session reaches local state through the subscription, like any
// other provider-side change.
func (r *Resolver) Refresh(ctx context.Context) (*Session, error) {
	refresher, ok := r.auth.(SessionRefresher)
	if !ok {
		return nil, errors.New("auth provider does not support refresh")
	}
	return refresher.Refresh(ctx)
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{State: r.state, Err: r.err}
	if r.identity != nil {
		ident := *r.identity
		snap.Identity = &ident
	}
	return snap
}

// Login exchanges the credential and resolves the role synchronously.
func (r *Resolver) Login(ctx context.Context, email, secret string) (*Identity, error) {
	r.mu.Lock()
	r.state = StateAuthenticating
	r.err = nil
	r.mu.Unlock()

	sess, err := r.auth.SignIn(ctx, email, secret)
	if err != nil {
		r.clear(err)
		return nil, err
	}

	epoch := r.adopt(sess)
	return r.resolveRole(epoch, sess)
}

// Logout invalidates the external session and clears local state. It is
// best-effort: a failing provider is logged, never surfaced.
func (r *Resolver) Logout(ctx context.Context) {
	if err := r.auth.SignOut(ctx); err != nil {
		log.Printf("session: sign-out failed (continuing): %v", err)
	}
	r.clear(nil)
}

// adopt records a new session with role still unknown and bumps the epoch
// so any in-flight role fetch for an older session cannot commit.
func (r *Resolver) adopt(sess *Session) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	r.session = sess
	r.identity = &Identity{
		ID:          sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
	}
	r.state = StateRolePending
	r.err = nil
	return r.epoch
}

func (r *Resolver) clear(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	r.session = nil
	r.identity = nil
	r.state = StateUnauthenticated
	r.err = cause
}

// resolveRole fetches the profile for an adopted session, provisioning a
// default profile when none exists. A timeout or store failure clears the
// whole session: a user without a role is not authenticated.
func (r *Resolver) resolveRole(epoch uint64, sess *Session) (*Identity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	profile, err := r.profiles.FindByID(ctx, sess.UserID)
	if errors.Is(err, entity.ErrProfileNotFound) {
		profile, err = r.provision(ctx, sess)
	}
	if err != nil {
		r.mu.Lock()
		stale := r.epoch != epoch
		r.mu.Unlock()
		if stale {
			// A newer sign-in or sign-out superseded this fetch.
			return nil, err
		}
		log.Printf("session: role fetch for %s failed: %v", sess.UserID, err)
		r.clear(err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		// Superseded; the newer event's outcome stands.
		return nil, errors.New("session superseded during role fetch")
	}

	r.identity.Role = profile.Role
	if profile.Name != "" {
		r.identity.DisplayName = profile.Name
	}
	r.state = StateAuthenticated
	r.err = nil

	ident := *r.identity
	return &ident, nil
}

// provision creates the default profile on first sight of an identity. The
// configured administrator address gets admin, everyone else gets bda.
func (r *Resolver) provision(ctx context.Context, sess *Session) (*entity.Profile, error) {
	role := entity.RoleBDA
	if r.adminEmail != "" && strings.EqualFold(sess.Email, r.adminEmail) {
		role = entity.RoleAdmin
	}

	profile := &entity.Profile{
		ID:        sess.UserID,
		Email:     sess.Email,
		Name:      sess.DisplayName,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	log.Printf("session: provisioned default profile for %s (role=%s)", sess.Email, role)
	return profile, nil
}

// onAuthChange applies provider events. It works only with the session the
// event carries; it never queries CurrentSession again.
func (r *Resolver) onAuthChange(event AuthEvent, sess *Session) {
	switch event {
	case EventSignedOut:
		r.clear(nil)

	case EventSignedIn:
		if sess == nil {
			return
		}
		epoch := r.adopt(sess)
		go r.resolveRole(epoch, sess)

	case EventTokenRefreshed:
		if sess == nil {
			return
		}
		r.mu.Lock()
		if r.identity != nil && r.identity.ID == sess.UserID {
			r.session = sess
		}
		r.mu.Unlock()
	}
}
