/*
auth.go - JWT authentication and role authorization

PURPOSE:
  Every API route except the health check runs behind a bearer token. The
  token carries the caller's identity (uid, name, email, role); handlers
  read it from the request context and scope queries and mutations to it.

TOKEN SHAPE (HS256):
  sub:   user id
  name:  display name (stamped onto ledger events)
  email: account email
  role:  konsumen | admin | kolektor

AUTHORIZATION MODEL:
  - konsumen see and create their own orders
  - kolektor see orders assigned to them and write ledger events
  - admin see everything and run lifecycle/assignment/catalogue changes
  Route-level gates live in server.go via RequireRole; row-level checks
  (the assigned-collector rule) live in the ledger package.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/tokocicil/collection-engine/account"
)

// Identity is the authenticated caller, extracted from the JWT.
type Identity struct {
	UID   string
	Name  string
	Email string
	Role  string
}

type contextKey struct{}

var identityKey contextKey

// IdentityFrom returns the caller identity stored by Authenticator.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken mints a bearer token for the given identity. Used by the dev
// login endpoint and by tests.
func SignToken(secret []byte, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString(secret)
}

func parseToken(secret []byte, raw string) (Identity, error) {
	var c claims
	t, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !t.Valid || c.Subject == "" {
		return Identity{}, errors.New("invalid token")
	}
	if !account.ValidRole(c.Role) {
		return Identity{}, errors.New("unknown role in token")
	}
	return Identity{UID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}, nil
}

// Authenticator rejects requests without a valid bearer token and stores
// the caller identity in the request context.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}
			id, err := parseToken(secret, raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SoftAuthenticator stores the identity when a valid bearer token is
// present but lets anonymous requests through. Registration uses it:
// anyone may register as konsumen, while admin-issued registrations need
// the admin's token visible.
func SoftAuthenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if raw, ok := strings.CutPrefix(header, "Bearer "); ok && raw != "" {
				if id, err := parseToken(secret, raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route subtree to the listed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok || !allowed[id.Role] {
				writeError(w, http.StatusForbidden, "Insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
