package sse

import (
	"context"
	"log/slog"
	"time"

	"pumpfun-chat-relay/internal/ports"
)

// CoinTicker периодически опрашивает источник сведений о монете и шлет их
// в поток. Ошибки опроса не рвут поток: следующий тик повторит запрос.
type CoinTicker struct {
	src ports.CoinSource
	log *slog.Logger
}

// NewCoinTicker создает трансляцию цены монеты.
func NewCoinTicker(src ports.CoinSource, log *slog.Logger) *CoinTicker {
	if log == nil {
		log = slog.Default()
	}
	return &CoinTicker{src: src, log: log}
}

// Run шлет событие coin сразу и далее с заданным интервалом до истечения
// ctx или отключения клиента.
func (t *CoinTicker) Run(ctx context.Context, mint string, interval time.Duration, emit Emitter) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := t.src.CoinInfo(ctx, mint)
		if err != nil {
			t.log.Warn("coin poll failed", "mint", mint, "error", err)
			if emitErr := emit("debug", Probe{Source: "coinPoll", Error: err.Error()}); emitErr != nil {
				return nil
			}
		} else if emitErr := emit("coin", info); emitErr != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
