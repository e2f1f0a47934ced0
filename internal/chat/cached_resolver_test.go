package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/cache"
)

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()
	profile := "https://pump.fun/profile/alice"

	t.Run("Повторный запрос берется из кэша", func(t *testing.T) {
		inner := &fakeResolver{wallets: map[string]string{profile: "wallet-a"}}
		r := NewCachedResolver(inner, cache.NewMemoryStore(), time.Minute)

		wallet, err := r.ProfileWallet(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "wallet-a", wallet)

		wallet, err = r.ProfileWallet(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "wallet-a", wallet)
		assert.Equal(t, int64(1), inner.calls.Load())
	})

	t.Run("Пустой результат кэшируется", func(t *testing.T) {
		inner := &fakeResolver{wallets: map[string]string{}}
		r := NewCachedResolver(inner, cache.NewMemoryStore(), time.Minute)

		wallet, err := r.ProfileWallet(ctx, profile)
		require.NoError(t, err)
		assert.Empty(t, wallet)

		_, err = r.ProfileWallet(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inner.calls.Load())
	})

	t.Run("Ошибка апстрима не кэшируется", func(t *testing.T) {
		inner := &fakeResolver{
			wallets: map[string]string{},
			errs:    map[string]error{profile: errors.New("profile fetch failed")},
		}
		r := NewCachedResolver(inner, cache.NewMemoryStore(), time.Minute)

		_, err := r.ProfileWallet(ctx, profile)
		require.Error(t, err)

		inner.mu.Lock()
		delete(inner.errs, profile)
		inner.wallets[profile] = "wallet-a"
		inner.mu.Unlock()

		wallet, err := r.ProfileWallet(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "wallet-a", wallet)
		assert.Equal(t, int64(2), inner.calls.Load())
	})
}
