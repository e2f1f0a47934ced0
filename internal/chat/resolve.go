package chat

import (
	"context"
	"log/slog"
	"sync"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/config"
)

// WalletResolver возвращает адрес кошелька по ссылке на профиль.
type WalletResolver interface {
	ProfileWallet(ctx context.Context, profileURL string) (string, error)
}

// ResolveWallets дозаполняет адреса кошельков у сообщений с известной
// ссылкой на профиль пулом воркеров. Неудача одного разрешения деградирует
// мягко: у сообщения остается пустой кошелек, остальные продолжаются.
func ResolveWallets(ctx context.Context, log *slog.Logger, resolver WalletResolver, msgs []domain.ChatMessage, concurrency int) {
	if concurrency <= 0 {
		concurrency = config.DefaultProfileConcurrency
	}
	if concurrency > config.MaxProfileConcurrency {
		concurrency = config.MaxProfileConcurrency
	}
	if log == nil {
		log = slog.Default()
	}

	tasks := make(chan int, len(msgs))
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-tasks:
					if !ok {
						return
					}
					m := &msgs[idx]
					wallet, err := resolver.ProfileWallet(ctx, m.ProfileURL)
					if err != nil {
						log.Debug("wallet resolution failed", "profileUrl", m.ProfileURL, "error", err)
						continue
					}
					m.WalletAddress = wallet
				}
			}
		}()
	}

	for i := range msgs {
		if msgs[i].WalletAddress != "" || msgs[i].ProfileURL == "" {
			continue
		}
		tasks <- i
	}
	close(tasks)
	wg.Wait()
}
