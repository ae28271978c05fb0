// Package auth issues and verifies the HS256 bearer tokens of registered users.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
)

const claimUserID = "user_id"

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token carrying user_id, iat and exp.
func (i *TokenIssuer) Issue(userID uuid.UUID) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		claimUserID: userID.String(),
		"iat":       now.Unix(),
		"exp":       now.Add(i.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns its user id. Bad signatures, expired
// tokens and malformed input yield core.ErrInvalidToken; a valid token
// without a usable user_id yields core.ErrTokenMissingUserID.
func (i *TokenIssuer) Parse(tokenStr string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return uuid.Nil, core.ErrInvalidToken
	}

	raw, ok := claims[claimUserID].(string)
	if !ok || raw == "" {
		return uuid.Nil, core.ErrTokenMissingUserID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.ErrTokenMissingUserID
	}
	return id, nil
}
