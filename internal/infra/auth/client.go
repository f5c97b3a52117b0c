package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/session"
)

// Client owns at most one session against the Service and satisfies the
// resolver's AuthProvider contract.
type Client struct {
	svc *Service
	id  int

	mu      sync.Mutex
	session *session.Session
	jti     string
}

var _ session.AuthProvider = (*Client)(nil)

func (c *Client) SignIn(ctx context.Context, email, secret string) (*session.Session, error) {
	profile, err := c.svc.profiles.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return nil, entity.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(secret)) != nil {
		return nil, entity.ErrInvalidCredentials
	}

	token, jti, expiresAt, err := c.svc.issueToken(profile)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		UserID:      profile.ID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}

	c.mu.Lock()
	c.session = sess
	c.jti = jti
	c.mu.Unlock()

	c.svc.mu.Lock()
	c.svc.boundUsers[c.id] = profile.ID
	c.svc.mu.Unlock()

	c.svc.broadcast(c.id, profile.ID, session.EventSignedIn, sess)
	return sess, nil
}

// CurrentSession reports the held session, nil once it has expired.
func (c *Client) CurrentSession(ctx context.Context) (*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}
	if time.Now().After(c.session.ExpiresAt) {
		c.session = nil
		return nil, nil
	}
	return c.session, nil
}

// Refresh rotates the access token for the held session and notifies every
// client of the same user.
func (c *Client) Refresh(ctx context.Context) (*session.Session, error) {
	c.mu.Lock()
	current := c.session
	oldJTI := c.jti
	c.mu.Unlock()

	if current == nil {
		return nil, entity.ErrSessionExpired
	}

	profile, err := c.svc.profiles.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	token, jti, expiresAt, err := c.svc.issueToken(profile)
	if err != nil {
		return nil, err
	}
	c.svc.revoke(oldJTI, current.ExpiresAt)

	refreshed := &session.Session{
		UserID:      current.UserID,
		Email:       current.Email,
		DisplayName: current.DisplayName,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}

	c.mu.Lock()
	c.session = refreshed
	c.jti = jti
	c.mu.Unlock()

	c.svc.broadcast(c.id, refreshed.UserID, session.EventTokenRefreshed, refreshed)
	return refreshed, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.session
	jti := c.jti
	c.session = nil
	c.jti = ""
	c.mu.Unlock()

	if current == nil {
		return nil
	}

	c.svc.revoke(jti, current.ExpiresAt)

	c.svc.mu.Lock()
	delete(c.svc.boundUsers, c.id)
	c.svc.mu.Unlock()

	c.svc.broadcast(c.id, current.UserID, session.EventSignedOut, nil)
	return nil
}

// Subscribe forwards service events relevant to this client: its own, plus
// anything for the user it is bound to.
func (c *Client) Subscribe(fn func(event session.AuthEvent, s *session.Session)) func() {
	c.svc.mu.Lock()
	c.svc.nextID++
	subID := c.svc.nextID
	c.svc.subs[subID] = subscriber{clientID: c.id, fn: fn}
	c.svc.mu.Unlock()

	return func() {
		c.svc.mu.Lock()
		delete(c.svc.subs, subID)
		c.svc.mu.Unlock()
	}
}
