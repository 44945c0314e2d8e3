package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Session is the result of exchanging a WeChat login code.
type Session struct {
	Openid     string `json:"openid"`
	SessionKey string `json:"session_key"`
	Unionid    string `json:"unionid"`
	Errcode    int    `json:"errcode"`
	Errmsg     string `json:"errmsg"`
}

// Exchanger trades a client-side authorization code for an openid.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*Session, error)
}

// Client calls the WeChat jscode2session endpoint.
type Client struct {
	appID     string
	appSecret string
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient builds a WeChat login client.
func NewClient(appID, appSecret, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.weixin.qq.com/sns/jscode2session"
	}
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		logger:    logger,
	}
}

// ExchangeCode resolves the code to an openid. A non-zero provider errcode
// or any transport failure is returned as an error.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	q := url.Values{}
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)
	q.Set("js_code", code)
	q.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wechat exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("wechat exchange read: %w", err)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("wechat exchange decode: %w", err)
	}
	if session.Errcode != 0 {
		c.logger.Warn("wechat code exchange rejected",
			zap.Int("errcode", session.Errcode),
			zap.String("errmsg", session.Errmsg),
		)
		return nil, fmt.Errorf("wechat exchange failed: %d %s", session.Errcode, session.Errmsg)
	}
	if session.Openid == "" {
		return nil, fmt.Errorf("wechat exchange returned empty openid")
	}
	return &session, nil
}
