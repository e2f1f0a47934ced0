package chat

import (
	"context"
	"time"

	"pumpfun-chat-relay/internal/cache"
)

// CachedResolver оборачивает разрешение кошельков кэшем: повторные
// запросы одного профиля не ходят в апстрим до истечения TTL.
type CachedResolver struct {
	inner WalletResolver
	store cache.Store
	ttl   time.Duration
}

// NewCachedResolver создает кэширующую обертку над resolver.
func NewCachedResolver(inner WalletResolver, store cache.Store, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, store: store, ttl: ttl}
}

// ProfileWallet возвращает кошелек из кэша либо разрешает через апстрим.
// Пустой результат тоже кэшируется: профиль без кошелька не меняется часто.
func (r *CachedResolver) ProfileWallet(ctx context.Context, profileURL string) (string, error) {
	if wallet, ok := r.store.Get(ctx, profileURL); ok {
		return wallet, nil
	}
	wallet, err := r.inner.ProfileWallet(ctx, profileURL)
	if err != nil {
		return "", err
	}
	// Кэш необязателен: ошибка записи не отменяет результат.
	_ = r.store.Put(ctx, profileURL, wallet, r.ttl)
	return wallet, nil
}
