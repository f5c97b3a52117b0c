package entity

import "errors"

// Sentinels for the collaborator boundary. Repositories translate driver
// errors into these once, at the edge.
var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)
