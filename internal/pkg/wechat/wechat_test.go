package wechat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app-id", r.URL.Query().Get("appid"))
		assert.Equal(t, "the-code", r.URL.Query().Get("js_code"))
		w.Write([]byte(`{"openid":"oABC123","session_key":"sk","unionid":"u1"}`))
	}))
	defer srv.Close()

	c := NewClient("app-id", "app-secret", srv.URL, zap.NewNop())
	session, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "oABC123", session.Openid)
	assert.Equal(t, "u1", session.Unionid)
}

func TestExchangeCodeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":40029,"errmsg":"invalid code"}`))
	}))
	defer srv.Close()

	c := NewClient("app-id", "app-secret", srv.URL, zap.NewNop())
	_, err := c.ExchangeCode(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40029")
}

func TestExchangeCodeEmptyOpenid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("app-id", "app-secret", srv.URL, zap.NewNop())
	_, err := c.ExchangeCode(context.Background(), "x")
	assert.Error(t, err)
}
