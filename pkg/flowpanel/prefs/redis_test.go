package prefs_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
)

func redisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return url
}

func TestRedisBackend_Contract(t *testing.T) {
	b, err := prefs.NewRedisBackend(context.Background(), redisURL(t), time.Minute)
	require.NoError(t, err)
	defer b.Close()

	backendContract(t, b)
}

func TestRedisBackend_Closed(t *testing.T) {
	ctx := context.Background()
	b, err := prefs.NewRedisBackend(ctx, redisURL(t), 0)
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, prefs.ErrBackendClosed)
}

func TestNewRedisBackend_BadURL(t *testing.T) {
	_, err := prefs.NewRedisBackend(context.Background(), "", 0)
	assert.Error(t, err)

	_, err = prefs.NewRedisBackend(context.Background(), "not-a-url://", 0)
	assert.Error(t, err)
}
