package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// Resolver validates HS256 tokens and returns their subject
type Resolver struct {
	auth *jwtauth.JWTAuth
}

// New creates a resolver for tokens signed with secret
func New(secret string) (*Resolver, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Resolver{auth: jwtauth.New("HS256", []byte(secret), nil)}, nil
}

// Auth returns the underlying signer, for use with jwtauth middleware
func (r *Resolver) Auth() *jwtauth.JWTAuth {
	return r.auth
}

// Resolve verifies token and returns its "sub" claim. Invalid, expired and
// subject-less tokens are all ErrUnauthorized.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", filesmanager.ErrUnauthorized
	}

	parsed, err := jwtauth.VerifyToken(r.auth, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", filesmanager.ErrUnauthorized, err)
	}

	subject := parsed.Subject()
	if subject == "" {
		return "", filesmanager.ErrUnauthorized
	}
	return subject, nil
}

// Issue signs a token for userID that expires after ttl
func (r *Resolver) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	now := time.Now().UTC()
	claims := map[string]interface{}{
		"sub": userID,
		"iat": now,
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl)
	}

	_, tokenString, err := r.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

var _ filesmanager.IdentityResolver = (*Resolver)(nil)
