package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/pkg/cache"
	jwtpkg "github.com/mqxu/campus-api/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gateRouter(g *Gate, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := g.Optional()
	if required {
		mw = g.Required()
	}
	r.GET("/probe", mw, func(c *gin.Context) {
		if id, ok := CurrentUserID(c); ok {
			c.JSON(http.StatusOK, gin.H{"user_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})
	return r
}

func openSession(t *testing.T, codec *jwtpkg.Codec, c cache.Cache, userID int64) string {
	t.Helper()
	token, err := codec.Issue(userID)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), cache.UserTokenKey(userID), token, codec.Lifetime()))
	return token
}

func TestGateAuthenticatesLiveSession(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	mem := cache.NewMemory()
	token := openSession(t, codec, mem, 42)

	r := gateRouter(NewGate(codec, mem, 10*time.Minute, zap.NewNop()), false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
	assert.Empty(t, w.Header().Get(RenewedTokenHeader))
}

func TestGateProceedsUnauthenticatedWithoutToken(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	r := gateRouter(NewGate(codec, cache.NewMemory(), 10*time.Minute, zap.NewNop()), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestGateProceedsUnauthenticatedOnGarbageToken(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	r := gateRouter(NewGate(codec, cache.NewMemory(), 10*time.Minute, zap.NewNop()), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestGateTreatsEvictedSessionAsRevoked(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	mem := cache.NewMemory()
	token := openSession(t, codec, mem, 42)

	// Logout: the token is still cryptographically valid but the session
	// entry is gone.
	require.NoError(t, mem.Del(context.Background(), cache.UserTokenKey(42)))

	r := gateRouter(NewGate(codec, mem, 10*time.Minute, zap.NewNop()), false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestGateRejectsSupersededToken(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	mem := cache.NewMemory()
	oldToken := openSession(t, codec, mem, 42)
	// A second login overwrites the session entry.
	require.NoError(t, mem.Set(context.Background(), cache.UserTokenKey(42), "newer-token", time.Hour))

	r := gateRouter(NewGate(codec, mem, 10*time.Minute, zap.NewNop()), false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestGateSlidingRenewal(t *testing.T) {
	// Lifetime shorter than the renew window forces renewal on first pass.
	codec := jwtpkg.NewCodec("gate-secret", 10*time.Minute)
	mem := cache.NewMemory()
	token := openSession(t, codec, mem, 7)

	r := gateRouter(NewGate(codec, mem, 30*time.Minute, zap.NewNop()), false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":7`)

	renewed := w.Header().Get(RenewedTokenHeader)
	require.NotEmpty(t, renewed)
	assert.NotEqual(t, token, renewed)

	saved, err := mem.Get(context.Background(), cache.UserTokenKey(7))
	require.NoError(t, err)
	assert.Equal(t, renewed, saved, "session entry holds the renewed token")

	// The old token is now superseded.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w2, req2)
	assert.Contains(t, w2.Body.String(), `"user_id":null`)
}

func TestGateRequired(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	mem := cache.NewMemory()
	r := gateRouter(NewGate(codec, mem, 10*time.Minute, zap.NewNop()), true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := openSession(t, codec, mem, 9)
	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), `"user_id":9`)
}

func TestGateRequiredDoesNotRunHandler(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", time.Hour)
	g := NewGate(codec, cache.NewMemory(), 10*time.Minute, zap.NewNop())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	ran := false
	r.POST("/guarded", g.Required(), func(c *gin.Context) {
		ran = true
		c.JSON(http.StatusOK, gin.H{"did": "side-effect"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	assert.False(t, ran, "handler must not execute without a live session")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "side-effect")
}

func TestGateStackedOptionalThenRequired(t *testing.T) {
	codec := jwtpkg.NewCodec("gate-secret", 10*time.Minute)
	mem := cache.NewMemory()
	token := openSession(t, codec, mem, 11)

	// Lifetime below the renew window forces a rotation in the first gate
	// pass; the second pass must honor the already-set principal instead of
	// re-comparing the superseded token.
	g := NewGate(codec, mem, 30*time.Minute, zap.NewNop())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(g.Optional())
	r.GET("/probe", g.Required(), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":11`)
	assert.NotEmpty(t, w.Header().Get(RenewedTokenHeader))
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("Bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("bearer  abc "))
	assert.Equal(t, "abc", NormalizeToken(" abc"))
	assert.Equal(t, "", NormalizeToken(""))
}
