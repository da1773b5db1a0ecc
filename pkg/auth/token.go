package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/module-swap/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	bearerScheme = "bearer"
	clockSkew    = 30 * time.Second
)

var (
	jwtSigningMethod = jwt.SigningMethodHS256

	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnsupportedScheme  = errors.New("unsupported authorization scheme")
)

// BearerToken pulls the token out of an Authorization header value.
// A bare token without a scheme is accepted.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredentials
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		if strings.EqualFold(header, bearerScheme) {
			return "", ErrMissingCredentials
		}
		return header, nil
	}
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrUnsupportedScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// MintAccessToken issues a signed token with the claims the host application
// puts in its own access tokens. Used by tests and local tooling.
func MintAccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", fmt.Errorf("jwt secret is required")
	case cfg.Issuer == "":
		return "", fmt.Errorf("jwt issuer is required")
	case ttl <= 0:
		return "", fmt.Errorf("jwt ttl must be positive")
	case strings.TrimSpace(payload.UserID) == "":
		return "", fmt.Errorf("user id is required")
	}

	id := strings.TrimSpace(payload.JTI)
	if id == "" {
		id = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID:   payload.UserID,
		Username: payload.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        id,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the claims.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.Actor() == "" {
		return nil, fmt.Errorf("token carries no user id")
	}
	return claims, nil
}
