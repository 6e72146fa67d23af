// Package session defines the opaque token that identifies a shopper's cart.
package session

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidToken indicates the presented token is not one this service minted.
var ErrInvalidToken = errors.New("invalid session token")

// Token is the opaque cart/session handle. Whoever presents it owns the cart.
type Token string

// New mints a fresh random token.
func New() Token {
	return Token(uuid.NewString())
}

// Parse validates raw and returns it as a Token. Empty input yields ("", nil):
// absence means "no cart yet", not an error.
func Parse(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 {
		return "", ErrInvalidToken
	}
	return Token(id.String()), nil
}

func (t Token) String() string { return string(t) }

func (t Token) IsZero() bool { return t == "" }
