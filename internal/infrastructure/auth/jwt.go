package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/infrastructure/config"
)

// Validation failures. Errors returned by Validate wrap exactly one of these.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrInvalidIssuer    = errors.New("token issuer mismatch")
)

// clockSkew is tolerated on exp, nbf and iat.
const clockSkew = 30 * time.Second

// Claims are the JWT claims the ledger reads. The user id becomes the actor
// on every movement the request writes.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Validate implements jwt.ClaimsValidator and runs after the registered
// claim checks.
func (c *Claims) Validate() error {
	if c.UserID == "" {
		return ErrMissingUserID
	}
	_, err := c.UserUUID()
	return err
}

// UserUUID parses the user id claim.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user_id %q is not a UUID", ErrInvalidClaims, c.UserID)
	}
	return id, nil
}

// ExpiresAtTime returns the expiry, or the zero time when the token has none.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenService verifies HMAC-signed tokens issued by the identity provider.
type TokenService struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewTokenService creates a token service from JWT config.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithLeeway(clockSkew),
			jwt.WithIssuedAt(),
		),
	}
}

// Validate parses and verifies a token. A token without an iss claim is
// accepted; one naming a different issuer is not.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, s.key); err != nil {
		return nil, classify(err)
	}
	if s.issuer != "" && claims.Issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidIssuer, claims.Issuer)
	}
	return claims, nil
}

func (s *TokenService) key(*jwt.Token) (any, error) {
	return s.secret, nil
}

// classify maps a jwt parse error onto the package errors. Claim errors
// from Claims.Validate pass through.
func classify(err error) error {
	for _, known := range []error{ErrMissingUserID, ErrInvalidClaims} {
		if errors.Is(err, known) {
			return err
		}
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// Sign issues a token for the user. The ledger never hands tokens to
// clients; this serves dev tooling and tests.
func (s *TokenService) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
