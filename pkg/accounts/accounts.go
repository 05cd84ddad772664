// Package accounts defines the external authentication boundary: who a
// connecting client claims to be, and whether that claim should be
// trusted. The server ships a deterministic stub implementation; a real
// deployment swaps in its own identity provider behind the same
// interface.
package accounts

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned for a rejected login attempt.
var ErrInvalidCredentials = errors.New("accounts: invalid credentials")

// Identity is what a successful authentication resolves to.
type Identity struct {
	HeroID  uint32
	Faction uint8
}

// Authenticator verifies a client's claimed identity during the session
// handshake, before any gameplay command is accepted.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// StaticAuthenticator is a reference implementation backed by a fixed
// token-to-identity map, suitable for local development and tests.
type StaticAuthenticator struct {
	tokens map[string]Identity
}

// NewStaticAuthenticator builds an authenticator from a token table.
func NewStaticAuthenticator(tokens map[string]Identity) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

// Authenticate looks up token in the static table.
func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (Identity, error) {
	id, ok := a.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	return id, nil
}
