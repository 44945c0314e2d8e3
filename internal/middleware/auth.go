package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/pkg/cache"
	jwtpkg "github.com/mqxu/campus-api/internal/pkg/jwt"
	"github.com/mqxu/campus-api/internal/pkg/response"
	"go.uber.org/zap"
)

const contextKeyUserID = "auth_user_id"

// RenewedTokenHeader carries the replacement token when the gate performs
// sliding renewal, so clients can rotate without re-login.
const RenewedTokenHeader = "X-Renewed-Token"

// Gate authenticates requests against the token codec and the session
// cache. The cache entry, not the token's own expiry, decides liveness: a
// cryptographically valid token absent from the cache is revoked.
type Gate struct {
	codec       *jwtpkg.Codec
	cache       cache.Cache
	renewWindow time.Duration
	logger      *zap.Logger
}

// NewGate builds the request authentication gate.
func NewGate(codec *jwtpkg.Codec, c cache.Cache, renewWindow time.Duration, logger *zap.Logger) *Gate {
	return &Gate{codec: codec, cache: c, renewWindow: renewWindow, logger: logger}
}

// Optional authenticates the request when a valid live token is presented
// and proceeds unauthenticated otherwise. Never rejects.
func (g *Gate) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.authenticate(c)
		c.Next()
	}
}

// Required aborts with 401 before any downstream handler runs when the
// request carries no live session.
func (g *Gate) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.authenticate(c)
		if _, ok := CurrentUserID(c); !ok {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// authenticate resolves the bearer token to a principal on the context. It
// never aborts and never advances the chain; the Optional/Required wrappers
// own control flow. Idempotent, so stacking both gates is safe.
func (g *Gate) authenticate(c *gin.Context) {
	if _, ok := CurrentUserID(c); ok {
		return
	}
	token := ExtractToken(c)
	if token == "" {
		return
	}
	claims, err := g.codec.Parse(token)
	if err != nil {
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		return
	}

	sessionKey := cache.UserTokenKey(userID)
	saved, err := g.cache.Get(c.Request.Context(), sessionKey)
	if err != nil {
		g.logger.Warn("session lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if saved != token {
		// Revoked or superseded by a newer login.
		return
	}

	c.Set(contextKeyUserID, userID)
	g.renewIfNearExpiry(c, userID, token)
}

// renewIfNearExpiry reissues the token once its remaining lifetime drops
// below the renew window, overwriting the session entry and surfacing the
// replacement on the response header.
func (g *Gate) renewIfNearExpiry(c *gin.Context, userID int64, token string) {
	remaining, ok := g.codec.Remaining(token)
	if !ok || remaining >= g.renewWindow {
		return
	}
	fresh, err := g.codec.Issue(userID)
	if err != nil {
		g.logger.Warn("token renewal failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := g.cache.Set(c.Request.Context(), cache.UserTokenKey(userID), fresh, g.codec.Lifetime()); err != nil {
		g.logger.Warn("session refresh failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	c.Header(RenewedTokenHeader, fresh)
	g.logger.Info("token renewed", zap.Int64("user_id", userID))
}

// CurrentUserID returns the authenticated principal, if any.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(contextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// ExtractToken pulls the bearer token from the authorization header.
func ExtractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
