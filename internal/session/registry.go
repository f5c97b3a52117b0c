package session

import (
	"context"
	"sync"
	"time"
)

// ClientFactory hands out a fresh provider client per login, so each
// resolver owns exactly one external session.
type ClientFactory func() AuthProvider

// Registry keeps one live resolver per signed-in user for the process
// lifetime, matching the dashboard's in-memory identity: a restart signs
// everyone out wholesale.
type Registry struct {
	newClient  ClientFactory
	profiles   ProfileStore
	adminEmail string
	timeout    time.Duration

	mu        sync.RWMutex
	resolvers map[string]*Resolver
}

func NewRegistry(newClient ClientFactory, profiles ProfileStore, adminEmail string, timeout time.Duration) *Registry {
	return &Registry{
		newClient:  newClient,
		profiles:   profiles,
		adminEmail: adminEmail,
		timeout:    timeout,
		resolvers:  make(map[string]*Resolver),
	}
}

// Login authenticates a credential and installs the resulting resolver. A
// second login for the same user replaces (and closes) the previous one.
func (g *Registry) Login(ctx context.Context, email, secret string) (*Identity, *Session, error) {
	resolver := NewResolver(ctx, g.newClient(), g.profiles, g.adminEmail, g.timeout)

	identity, err := resolver.Login(ctx, email, secret)
	if err != nil {
		resolver.Close()
		return nil, nil, err
	}

	g.mu.Lock()
	if previous, ok := g.resolvers[identity.ID]; ok {
		previous.Close()
	}
	g.resolvers[identity.ID] = resolver
	g.mu.Unlock()

	return identity, resolver.Session(), nil
}

// Get returns the live resolver for a user id, if any.
func (g *Registry) Get(userID string) (*Resolver, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.resolvers[userID]
	return r, ok
}

// Logout signs the user out (best-effort) and drops the resolver.
func (g *Registry) Logout(ctx context.Context, userID string) {
	g.mu.Lock()
	resolver, ok := g.resolvers[userID]
	delete(g.resolvers, userID)
	g.mu.Unlock()

	if ok {
		resolver.Logout(ctx)
		resolver.Close()
	}
}
