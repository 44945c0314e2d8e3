package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload. The subject carries the user id.
type Claims struct {
	jwtlib.RegisteredClaims
}

// UserID returns the numeric user id from the subject.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Codec signs and validates the HS256 tokens backing login sessions.
// Issue is pure; liveness is decided by the session cache, not here.
type Codec struct {
	secret   []byte
	lifetime time.Duration
}

// NewCodec builds a codec from the signing secret and token lifetime.
func NewCodec(secret string, lifetime time.Duration) *Codec {
	return &Codec{secret: []byte(secret), lifetime: lifetime}
}

// Lifetime returns the configured token lifetime.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Issue creates a signed token for the given user id with
// issuedAt=now and expiresAt=now+lifetime. The random jti keeps tokens
// issued within the same second distinct, so a new login always
// supersedes the previous session entry.
func (c *Codec) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.lifetime)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse validates a token string and returns the claims. Signature
// mismatch, malformed payload and structural expiry all fail the same way.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

// Remaining returns the time left before the token expires,
// or false when the token is invalid or already expired.
func (c *Codec) Remaining(tokenStr string) (time.Duration, bool) {
	claims, err := c.Parse(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	d := time.Until(claims.ExpiresAt.Time)
	if d <= 0 {
		return 0, false
	}
	return d, true
}
