package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// Resolver is a fixed token table, used in tests and development
type Resolver struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// New creates a resolver from a token to user id map
func New(tokens map[string]string) *Resolver {
	r := &Resolver{tokens: make(map[string]string, len(tokens))}
	for token, userID := range tokens {
		r.tokens[token] = userID
	}
	return r
}

// Parse builds a resolver from "token:user,token:user"
func Parse(pairs string) (*Resolver, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(pairs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("invalid token entry %q, want token:user", pair)
		}
		tokens[token] = userID
	}
	return New(tokens), nil
}

// Add registers a token
func (r *Resolver) Add(token, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = userID
}

// Resolve returns the user id registered for token
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.tokens[token]
	if !ok {
		return "", filesmanager.ErrUnauthorized
	}
	return userID, nil
}

var _ filesmanager.IdentityResolver = (*Resolver)(nil)
