package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

// fakeAuth is an in-memory AuthProvider whose event stream the tests drive
// by hand.
type fakeAuth struct {
	mu          sync.Mutex
	session     *Session
	signInErr   error
	signOutErr  error
	signOuts    int
	currentHits int
	handlers    []func(AuthEvent, *Session)
}

func (f *fakeAuth) SignIn(ctx context.Context, email, secret string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.session = &Session{UserID: "u-" + email, Email: email, AccessToken: "tok"}
	return f.session, nil
}

func (f *fakeAuth) CurrentSession(ctx context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentHits++
	return f.session, nil
}

func (f *fakeAuth) Subscribe(fn func(AuthEvent, *Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
	return func() {}
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.session = nil
	return f.signOutErr
}

func (f *fakeAuth) emit(event AuthEvent, sess *Session) {
	f.mu.Lock()
	handlers := append([]func(AuthEvent, *Session){}, f.handlers...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(event, sess)
	}
}

// fakeProfiles is an in-memory ProfileStore.
type fakeProfiles struct {
	mu        sync.Mutex
	profiles  map[string]*entity.Profile
	findErr   error
	findDelay time.Duration
	upserts   int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*entity.Profile)}
}

func (f *fakeProfiles) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	if f.findDelay > 0 {
		select {
		case <-time.After(f.findDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Upsert(ctx context.Context, profile *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.profiles[profile.ID] = profile
	return nil
}

func TestResolver_LoginResolvesExistingRole(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{
		ID: "u-alice@x.com", Email: "alice@x.com", Name: "Alice", Role: entity.RoleAdmin,
	}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	identity, err := r.Login(context.Background(), "alice@x.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, identity.Role)
	assert.Equal(t, "Alice", identity.DisplayName)

	snap := r.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.True(t, snap.IsAuthenticated())
	assert.True(t, snap.IsAdmin())
	assert.False(t, snap.IsBDA())
}

func TestResolver_ProvisionsDefaultRoleOnFirstSight(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()

	r := NewResolver(context.Background(), auth, profiles, "boss@x.com", time.Second)
	defer r.Close()

	identity, err := r.Login(context.Background(), "newbie@x.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, entity.RoleBDA, identity.Role)
	assert.Equal(t, 1, profiles.upserts)
}

func TestResolver_ProvisionsAdminForConfiguredEmail(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()

	r := NewResolver(context.Background(), auth, profiles, "Boss@X.com", time.Second)
	defer r.Close()

	identity, err := r.Login(context.Background(), "boss@x.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, identity.Role)
}

func TestResolver_RoleFetchTimeoutClearsSession(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.findDelay = 200 * time.Millisecond

	r := NewResolver(context.Background(), auth, profiles, "", 20*time.Millisecond)
	defer r.Close()

	_, err := r.Login(context.Background(), "slow@x.com", "secret")

	assert.Error(t, err)

	snap := r.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())
	assert.Error(t, snap.Err)
	assert.Nil(t, r.Session())
}

func TestResolver_StoreFailureDoesNotAuthenticate(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.findErr = errors.New("connection reset")

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	_, err := r.Login(context.Background(), "alice@x.com", "secret")

	assert.Error(t, err)
	assert.Equal(t, StateUnauthenticated, r.Snapshot().State)
}

func TestResolver_InitialSessionCheckHappensExactlyOnce(t *testing.T) {
	auth := &fakeAuth{}
	auth.session = &Session{UserID: "u-1", Email: "alice@x.com"}
	profiles := newFakeProfiles()
	profiles.profiles["u-1"] = &entity.Profile{ID: "u-1", Role: entity.RoleBDA}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	// Provider events must not trigger another CurrentSession round trip.
	auth.emit(EventSignedIn, &Session{UserID: "u-1", Email: "alice@x.com"})
	auth.emit(EventTokenRefreshed, &Session{UserID: "u-1", Email: "alice@x.com", AccessToken: "tok2"})
	auth.emit(EventSignedOut, nil)

	auth.mu.Lock()
	hits := auth.currentHits
	auth.mu.Unlock()
	assert.Equal(t, 1, hits)
}

func TestResolver_SignedOutEventClearsState(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	_, err := r.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	auth.emit(EventSignedOut, nil)

	snap := r.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Err)
}

func TestResolver_TokenRefreshKeepsIdentity(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	identity, err := r.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	auth.emit(EventTokenRefreshed, &Session{
		UserID: identity.ID, Email: identity.Email, AccessToken: "rotated",
	})

	assert.Equal(t, StateAuthenticated, r.Snapshot().State)
	assert.Equal(t, "rotated", r.Session().AccessToken)
}

func TestResolver_TokenRefreshForOtherUserIgnored(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	_, err := r.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	auth.emit(EventTokenRefreshed, &Session{UserID: "someone-else", AccessToken: "stolen"})

	assert.Equal(t, "tok", r.Session().AccessToken)
}

func TestResolver_LogoutIsBestEffort(t *testing.T) {
	auth := &fakeAuth{signOutErr: errors.New("provider down")}
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	_, err := r.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	// Provider failure is swallowed; local state clears regardless.
	r.Logout(context.Background())

	snap := r.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Err)
	assert.Equal(t, 1, auth.signOuts)
}

func TestResolver_LaterSignInSupersedesEarlierRoleFetch(t *testing.T) {
	auth := &fakeAuth{}
	profiles := newFakeProfiles()
	profiles.profiles["u-old"] = &entity.Profile{ID: "u-old", Role: entity.RoleBDA}
	profiles.profiles["u-new"] = &entity.Profile{ID: "u-new", Role: entity.RoleAdmin}

	r := NewResolver(context.Background(), auth, profiles, "", time.Second)
	defer r.Close()

	// Two racing sign-in events; the second adoption bumps the epoch, so
	// only its role fetch may commit.
	auth.emit(EventSignedIn, &Session{UserID: "u-old", Email: "old@x.com"})
	auth.emit(EventSignedIn, &Session{UserID: "u-new", Email: "new@x.com"})

	assert.Eventually(t, func() bool {
		snap := r.Snapshot()
		return snap.State == StateAuthenticated && snap.Identity.ID == "u-new"
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, entity.RoleAdmin, r.Snapshot().Identity.Role)
}

func TestRegistry_LoginReplacesPreviousResolver(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	reg := NewRegistry(func() AuthProvider { return &fakeAuth{} }, profiles, "", time.Second)

	identity, sess, err := reg.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)
	assert.NotNil(t, sess)

	first, ok := reg.Get(identity.ID)
	assert.True(t, ok)

	_, _, err = reg.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	second, ok := reg.Get(identity.ID)
	assert.True(t, ok)
	assert.NotSame(t, first, second)
}

func TestRegistry_LogoutDropsResolver(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u-alice@x.com"] = &entity.Profile{ID: "u-alice@x.com", Role: entity.RoleBDA}

	reg := NewRegistry(func() AuthProvider { return &fakeAuth{} }, profiles, "", time.Second)

	identity, _, err := reg.Login(context.Background(), "alice@x.com", "secret")
	assert.NoError(t, err)

	reg.Logout(context.Background(), identity.ID)

	_, ok := reg.Get(identity.ID)
	assert.False(t, ok)
}
