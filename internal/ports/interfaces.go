// Package ports определяет интерфейсы между HTTP-слоем и внешними службами.
package ports

import (
	"context"

	"pumpfun-chat-relay/internal/domain"
)

// PayoutService определяет интерфейс выполнения выплаты. Сама подпись и
// отправка транзакции — забота реализации; сервер лишь охраняет доступ.
type PayoutService interface {
	// Payout переводит amount (в лампортах) на адрес recipient и
	// возвращает идентификатор транзакции.
	Payout(ctx context.Context, recipient string, amount uint64) (string, error)
}

// CoinSource определяет интерфейс получения сведений о монете.
type CoinSource interface {
	CoinInfo(ctx context.Context, mint string) (domain.CoinInfo, error)
}
