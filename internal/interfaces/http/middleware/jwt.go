package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/infrastructure/auth"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Keys and headers used by JWTAuth.
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// UserIDHeader names the actor when tokens are optional and none is sent.
	UserIDHeader = "X-User-ID"
)

var (
	errMissingToken     = errors.New("missing bearer token")
	errMalformedHeader  = fmt.Errorf("%w: authorization header is not a bearer token", auth.ErrInvalidToken)
	errEmptyToken       = fmt.Errorf("%w: empty bearer token", auth.ErrInvalidToken)
	errTokensNotEnabled = fmt.Errorf("%w: token validation is not configured", auth.ErrInvalidToken)
)

// JWTMiddlewareConfig configures JWTAuthWithConfig.
type JWTMiddlewareConfig struct {
	Tokens *auth.TokenService
	// Required rejects requests without a valid token. When false a request
	// may name its actor through the X-User-ID header instead.
	Required         bool
	SkipPaths        []string
	SkipPathPrefixes []string
	// OnError replaces the default 401 response.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves the health probes unauthenticated.
func DefaultJWTConfig(tokens *auth.TokenService, required bool) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Tokens:    tokens,
		Required:  required,
		SkipPaths: []string{"/health", "/api/v1/health"},
		Logger:    zap.NewNop(),
	}
}

// JWTAuth resolves the acting user with DefaultJWTConfig.
func JWTAuth(tokens *auth.TokenService, required bool) gin.HandlerFunc {
	return JWTAuthWithConfig(DefaultJWTConfig(tokens, required))
}

// JWTAuthWithConfig resolves the acting user of each request. A bearer
// token, when present, must be valid whether or not tokens are required.
func JWTAuthWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if cfg.skips(c.Request.URL.Path) {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" && !cfg.Required {
			if actorFromHeader(c, cfg.Logger) {
				c.Next()
			}
			return
		}

		claims, err := cfg.authenticate(header)
		if err != nil {
			cfg.reject(c, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		setActor(c, claims.UserID)
		cfg.Logger.Debug("Actor authenticated", zap.String("user_id", claims.UserID))
		c.Next()
	}
}

func (cfg JWTMiddlewareConfig) skips(path string) bool {
	if slices.Contains(cfg.SkipPaths, path) {
		return true
	}
	return slices.ContainsFunc(cfg.SkipPathPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

func (cfg JWTMiddlewareConfig) authenticate(header string) (*auth.Claims, error) {
	if header == "" {
		return nil, errMissingToken
	}
	token, ok := strings.CutPrefix(header, BearerPrefix)
	switch {
	case !ok:
		return nil, errMalformedHeader
	case token == "":
		return nil, errEmptyToken
	case cfg.Tokens == nil:
		return nil, errTokensNotEnabled
	}
	return cfg.Tokens.Validate(token)
}

type authFailure struct {
	code    string
	message string
}

// authFailures is checked in order; the first match decides the response.
var authFailures = []struct {
	cause   error
	failure authFailure
}{
	{auth.ErrExpiredToken, authFailure{dto.ErrCodeTokenExpired, "Token has expired"}},
	{auth.ErrTokenNotYetValid, authFailure{dto.ErrCodeTokenNotValid, "Token is not yet valid"}},
	{auth.ErrInvalidToken, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
	{auth.ErrInvalidClaims, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
	{auth.ErrMissingUserID, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
	{auth.ErrInvalidIssuer, authFailure{dto.ErrCodeTokenInvalid, "Invalid token"}},
}

func classifyAuthError(err error) authFailure {
	for _, f := range authFailures {
		if errors.Is(err, f.cause) {
			return f.failure
		}
	}
	return authFailure{dto.ErrCodeUnauthorized, "Authentication required"}
}

func (cfg JWTMiddlewareConfig) reject(c *gin.Context, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	failure := classifyAuthError(err)
	cfg.Logger.Warn("Authentication failed",
		zap.Error(err),
		zap.String("code", failure.code),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		failure.code, failure.message, c.GetString(logger.GinRequestIDKey),
	))
}

// actorFromHeader reads the development X-User-ID header. It reports false
// after aborting the request on a malformed value.
func actorFromHeader(c *gin.Context, log *zap.Logger) bool {
	raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if raw == "" {
		return true
	}
	if _, err := uuid.Parse(raw); err != nil {
		log.Warn("Rejected malformed actor header", zap.String("value", raw))
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeValidation,
			UserIDHeader+" must be a UUID",
			c.GetString(logger.GinRequestIDKey),
		))
		return false
	}
	setActor(c, raw)
	return true
}

// setActor publishes the actor to handlers, the request logger and the
// access log.
func setActor(c *gin.Context, userID string) {
	c.Set(JWTUserIDKey, userID)
	c.Set(logger.GinActorIDKey, userID)

	ctx, reqLogger := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), userID)
	c.Request = c.Request.WithContext(ctx)
	c.Set(logger.GinLoggerKey, reqLogger)
}

// GetJWTClaims returns the validated token claims, or nil when the actor
// came from X-User-ID or was not resolved.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetJWTUserID returns the acting user's ID resolved by JWTAuth.
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}
