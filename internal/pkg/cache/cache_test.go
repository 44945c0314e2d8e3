package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "sms:code:13800000000", SmsCodeKey("13800000000"))
	assert.Equal(t, "user:token:42", UserTokenKey(42))
}

func TestMemoryGetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

	val, err := m.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// Consumed exactly once.
	val, err = m.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", -time.Second))

	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryOverwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "old", time.Minute))
	require.NoError(t, m.Set(ctx, "k", "new", time.Minute))

	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}
