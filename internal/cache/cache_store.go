// Package cache хранит результаты разрешения кошельков: по ссылке на
// профиль — адрес кошелька с TTL. Бэкенд выбирается конфигурацией:
// память процесса или Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store — хранилище разрешенных кошельков.
type Store interface {
	// Get возвращает закэшированный кошелек по ссылке на профиль.
	Get(ctx context.Context, profileURL string) (string, bool)
	// Put сохраняет кошелек с указанным сроком действия.
	Put(ctx context.Context, profileURL, wallet string, ttl time.Duration) error
}

// cacheItem представляет кэшированный результат
type cacheItem struct {
	Wallet    string
	ExpiresAt time.Time
}

// MemoryStore управляет хранением и извлечением кэшированных результатов в памяти процесса
type MemoryStore struct {
	cache map[string]*cacheItem
	mutex sync.RWMutex
}

// NewMemoryStore создает новый экземпляр MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: make(map[string]*cacheItem),
	}
}

// Get извлекает кэшированный кошелек по ссылке на профиль
func (cs *MemoryStore) Get(_ context.Context, profileURL string) (string, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	item, exists := cs.cache[profileURL]
	if !exists || time.Now().After(item.ExpiresAt) {
		// Элемент не существует или срок его действия истек
		return "", false
	}

	return item.Wallet, true
}

// Put сохраняет кошелек в кэш с указанным сроком действия
func (cs *MemoryStore) Put(_ context.Context, profileURL, wallet string, ttl time.Duration) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[profileURL] = &cacheItem{
		Wallet:    wallet,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

// CleanupExpired удаляет просроченные элементы из кэша
func (cs *MemoryStore) CleanupExpired() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := time.Now()
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
		}
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных элементов
func (cs *MemoryStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}
