package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

const defaultAccessTokenTTL = 15 * time.Minute

// JWTManager verifies HS256 access tokens minted by the account service.
// Both services share Secret. IssueAccessToken mints tokens for tests and
// local tooling.
type JWTManager struct {
	Secret         []byte
	Issuer         string
	Leeway         time.Duration
	AccessTokenTTL time.Duration
}

// AccessClaims carries the caller id in the standard subject claim and the
// role in a private claim.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c AccessClaims) UserID() string {
	return c.Subject
}

func (m JWTManager) IssueAccessToken(userID string, role string) (string, time.Duration, error) {
	ttl := m.AccessTokenTTL
	if ttl == 0 {
		ttl = defaultAccessTokenTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}
	return signed, ttl, nil
}

// ParseAccessToken accepts only HS256 tokens with an expiry, a subject and,
// when Issuer is set, a matching issuer.
func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.Leeway),
	}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}

	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
