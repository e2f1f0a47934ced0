package usecase

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/config"
)

type fakeResolver struct {
	calls atomic.Int64
}

func (f *fakeResolver) ProfileWallet(ctx context.Context, profileURL string) (string, error) {
	f.calls.Add(1)
	return "resolved-wallet", nil
}

func TestWalletSources(t *testing.T) {
	t.Run("Синоним profile сводится к каноническому значению", func(t *testing.T) {
		assert.Equal(t, WalletsFromProfiles, NormalizeWalletSource("profile"))
		assert.Equal(t, WalletsFromProfiles, NormalizeWalletSource(WalletsFromProfiles))
		assert.Equal(t, WalletsFromPayload, NormalizeWalletSource(WalletsFromPayload))
		assert.Equal(t, "", NormalizeWalletSource(""))
	})

	t.Run("Допустимые и недопустимые источники", func(t *testing.T) {
		for _, ok := range []string{"", "profile", WalletsFromProfiles, WalletsFromPayload, WalletsProvided, WalletsNone} {
			assert.True(t, KnownWalletSource(ok), "источник %q должен приниматься", ok)
		}
		assert.False(t, KnownWalletSource("carrier-pigeon"))
	})
}

func TestFillWallets(t *testing.T) {
	newUC := func(resolver *fakeResolver) *ScrapeChatUseCase {
		cfg := &config.Config{Chat: config.Chat{ProfileConcurrency: 2}}
		return NewScrapeChatUseCase(cfg, nil, resolver, nil)
	}

	t.Run("Источник profile разрешает кошельки через профили", func(t *testing.T) {
		resolver := &fakeResolver{}
		uc := newUC(resolver)
		msgs := []domain.ChatMessage{
			{Username: "alice", ProfileURL: "https://pump.fun/profile/alice"},
		}
		uc.fillWallets(context.Background(), msgs, ScrapeOptions{WalletSource: "profile"})
		assert.Equal(t, int64(1), resolver.calls.Load())
		assert.Equal(t, "resolved-wallet", msgs[0].WalletAddress)
	})

	t.Run("Источник payload оставляет кошельки источника нетронутыми", func(t *testing.T) {
		resolver := &fakeResolver{}
		uc := newUC(resolver)
		msgs := []domain.ChatMessage{
			{Username: "alice", WalletAddress: "from-payload"},
		}
		uc.fillWallets(context.Background(), msgs, ScrapeOptions{WalletSource: WalletsFromPayload})
		assert.Equal(t, int64(0), resolver.calls.Load())
		assert.Equal(t, "from-payload", msgs[0].WalletAddress)
	})

	t.Run("Источник provided раздает адреса по порядку имен", func(t *testing.T) {
		uc := newUC(&fakeResolver{})
		msgs := []domain.ChatMessage{
			{Username: "alice"},
			{Username: "bob"},
			{Username: "alice"},
		}
		uc.fillWallets(context.Background(), msgs, ScrapeOptions{
			WalletSource: WalletsProvided,
			Wallets:      []string{"w1", "w2"},
		})
		require.Equal(t, "w1", msgs[0].WalletAddress)
		assert.Equal(t, "w2", msgs[1].WalletAddress)
		assert.Equal(t, "w1", msgs[2].WalletAddress)
	})
}
