package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// MinSecretLength is the minimum HMAC secret length accepted.
const MinSecretLength = 32

// Audience is the aud claim of every access token. Tokens minted for any
// other audience are rejected.
const Audience = "kanbu-acl-api"

// JWTConfig configures the token service.
type JWTConfig struct {
	// Secret is the HS256 signing key. Must be at least MinSecretLength
	// characters.
	Secret string

	// Issuer is the iss claim. Default: "kanbu-acl".
	Issuer string

	// AccessTokenDuration is the lifetime used when IssueAccessToken is
	// called without a ttl. Default: 15 minutes.
	AccessTokenDuration time.Duration
}

// JWTService mints and verifies HS256 access tokens. Tokens are issued
// out of band by the CLI; the API only verifies them.
type JWTService struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	now     func() time.Time
	keyFunc jwt.Keyfunc
}

// NewJWTService validates config and returns a ready service.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "kanbu-acl"
	}
	if config.AccessTokenDuration <= 0 {
		config.AccessTokenDuration = 15 * time.Minute
	}

	s := &JWTService{
		secret: []byte(config.Secret),
		issuer: config.Issuer,
		ttl:    config.AccessTokenDuration,
		now:    time.Now,
	}
	s.keyFunc = func(*jwt.Token) (interface{}, error) { return s.secret, nil }
	return s, nil
}

// AccessTokenDuration returns the default token lifetime.
func (s *JWTService) AccessTokenDuration() time.Duration {
	return s.ttl
}

// IssueAccessToken mints an access token for user valid for ttl. A zero
// ttl uses the configured duration. It returns the token and its expiry.
func (s *JWTService) IssueAccessToken(user *models.User, ttl time.Duration) (string, time.Time, error) {
	if user == nil || user.ID <= 0 {
		return "", time.Time{}, fmt.Errorf("issue token: user must have a positive id")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.Username,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, ErrTokenSigningFailed
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, issuer, audience and expiry and
// returns the claims. Expired tokens yield ErrExpiredToken; every other
// failure yields ErrInvalidToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.UserID <= 0:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
