package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	token, err := codec.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Parse(token)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	a, err := codec.Issue(1)
	require.NoError(t, err)
	b, err := codec.Issue(1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewCodec("secret-a", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewCodec("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Parse(tok)
		assert.Error(t, err, "token %q", tok)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	codec := NewCodec("test-secret", -time.Minute)
	token, err := codec.Issue(7)
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.Error(t, err)

	_, ok := codec.Remaining(token)
	assert.False(t, ok)
}

func TestRemaining(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	token, err := codec.Issue(7)
	require.NoError(t, err)

	d, ok := codec.Remaining(token)
	require.True(t, ok)
	assert.Greater(t, d, 55*time.Minute)
	assert.LessOrEqual(t, d, time.Hour)
}
