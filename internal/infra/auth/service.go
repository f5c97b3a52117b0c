// Package auth implements the authentication collaborator: password
// credentials checked against the profiles table, HS256 access tokens, and
// a change-notification stream shared by every client of the same user.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/session"
)

type Claims struct {
	UserID string
	Email  string
	Name   string
	JTI    string
}

type subscriber struct {
	clientID int
	fn       func(event session.AuthEvent, s *session.Session)
}

type Service struct {
	profiles entity.ProfileRepositoryInterface
	secret   []byte
	ttl      time.Duration

	mu         sync.Mutex
	nextID     int
	subs       map[int]subscriber
	revoked    map[string]time.Time // jti -> token expiry
	boundUsers map[int]string       // clientID -> user id, for event routing
}

func NewService(profiles entity.ProfileRepositoryInterface, secret string, ttl time.Duration) *Service {
	s := &Service{
		profiles:   profiles,
		secret:     []byte(secret),
		ttl:        ttl,
		subs:       make(map[int]subscriber),
		revoked:    make(map[string]time.Time),
		boundUsers: make(map[int]string),
	}
	go s.cleanupRevoked()
	return s
}

// NewClient hands out a session-scoped view of the service. Each resolver
// gets its own client so "current session" means something.
func (s *Service) NewClient() *Client {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	return &Client{svc: s, id: id}
}

func (s *Service) issueToken(p *entity.Profile) (token, jti string, expiresAt time.Time, err error) {
	jti = uuid.New().String()
	expiresAt = time.Now().Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"name":  p.Name,
		"jti":   jti,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token, jti, expiresAt, err
}

// Verify parses and validates an access token, including the revocation
// list. Used by the HTTP middleware on every request.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, entity.ErrSessionExpired
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, entity.ErrSessionExpired
	}

	jti, _ := claims["jti"].(string)
	s.mu.Lock()
	_, isRevoked := s.revoked[jti]
	s.mu.Unlock()
	if isRevoked {
		return nil, entity.ErrSessionExpired
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, entity.ErrSessionExpired
	}

	return &Claims{UserID: sub, Email: email, Name: name, JTI: jti}, nil
}

func (s *Service) revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	s.mu.Lock()
	s.revoked[jti] = expiresAt
	s.mu.Unlock()
}

// broadcast delivers an event to the originating client and to every client
// bound to the same user (sign-out on one device signs out all of them).
func (s *Service) broadcast(origin int, userID string, event session.AuthEvent, sess *session.Session) {
	s.mu.Lock()
	targets := make([]subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.clientID == origin || s.boundUsers[sub.clientID] == userID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.fn(event, sess)
	}
}

// cleanupRevoked drops revocation entries once the token they belong to has
// expired anyway.
func (s *Service) cleanupRevoked() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for jti, exp := range s.revoked {
			if now.After(exp) {
				delete(s.revoked, jti)
			}
		}
		s.mu.Unlock()
	}
}

// HashPassword produces the bcrypt hash stored on a profile.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
