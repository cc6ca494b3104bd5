package store_test

import (
	"context"
	"testing"
	"time"

	"pulsegrid-client/internal/store"

	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGet(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))

	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", val)
}

func TestMemoryKV_Miss(t *testing.T) {
	kv := store.NewMemoryKV()

	_, err := kv.Get(context.Background(), "absent")
	require.ErrorIs(t, err, store.ErrMiss)
}

func TestMemoryKV_TTLExpiry(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := kv.Get(ctx, "k")
	require.ErrorIs(t, err, store.ErrMiss)
}
