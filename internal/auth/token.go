package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the verified contents of an access token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a new access token for the user.
func (s *TokenService) Issue(userID string) (string, *Claims, error) {
	if len(s.secret) == 0 {
		return "", nil, errors.New("jwt secret is empty")
	}

	now := s.now()
	claims := &Claims{
		UserID:    userID,
		TokenID:   uuid.New().String(),
		ExpiresAt: now.Add(s.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify validates the signature and expiry of a token and returns its claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}

	var registered jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &registered, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if registered.Subject == "" || registered.ID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    registered.Subject,
		TokenID:   registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
