package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/auth"
	"github.com/begari-sampath/crm-backend/internal/session"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier is the slice of the auth service the middleware needs.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth validates the Bearer token and resolves it to a live session. The
// role comes from the resolver snapshot, never from the token, so a role
// change or sign-out elsewhere takes effect on the next request.
func Auth(verifier TokenVerifier, sessions *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			resolver, ok := sessions.Get(claims.UserID)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "no active session")
				return
			}

			snap := resolver.Snapshot()
			if !snap.IsAuthenticated() || snap.State != session.StateAuthenticated {
				writeAuthError(w, http.StatusUnauthorized, "session not established")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, *snap.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose resolved identity is outside the
// allowed set. Must sit behind Auth.
func RequireRole(roles ...entity.Role) func(http.Handler) http.Handler {
	allowed := make(map[entity.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok || !allowed[identity.Role] {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFrom extracts the resolved identity placed by Auth.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(session.Identity)
	return identity, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
