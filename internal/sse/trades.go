package sse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"pumpfun-chat-relay/internal/domain"
)

// TradesRelay пробрасывает ленту сделок апстрима в SSE: подписка на минт,
// входящие JSON-сообщения почти как есть уходят клиенту событиями trade.
type TradesRelay struct {
	wsURL string
	log   *slog.Logger
}

// NewTradesRelay создает трансляцию сделок с адреса ленты.
func NewTradesRelay(wsURL string, log *slog.Logger) *TradesRelay {
	if log == nil {
		log = slog.Default()
	}
	return &TradesRelay{wsURL: wsURL, log: log}
}

// Run держит подписку до истечения ctx, переподключаясь с backoff.
func (t *TradesRelay) Run(ctx context.Context, mint string, emit Emitter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(func() error {
		err := t.relayOnce(ctx, mint, emit)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, errClientGone) {
			cancel()
			return backoff.Permanent(err)
		}
		t.log.Warn("trade feed dropped, reconnecting", "mint", mint, "error", err)
		_ = emit("debug", Probe{Source: "trades", Error: err.Error()})
		return err
	}, bo)
	if errors.Is(err, errClientGone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var errClientGone = errors.New("sse client disconnected")

func (t *TradesRelay) relayOnce(ctx context.Context, mint string, emit Emitter) error {
	conn, _, err := websocket.Dial(ctx, t.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(1 << 20)

	sub, _ := json.Marshal(map[string]any{
		"method": "subscribeTokenTrade",
		"keys":   []string{mint},
	})
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		return err
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		tick, ok := tradeFromPayload(mint, data)
		if !ok {
			continue
		}
		if err := emit("trade", tick); err != nil {
			return errClientGone
		}
	}
}

// tradeFromPayload разбирает сообщение ленты; служебные подтверждения и
// чужие минты отбрасываются.
func tradeFromPayload(mint string, data []byte) (domain.TradeTick, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.TradeTick{}, false
	}
	tickMint, _ := raw["mint"].(string)
	if tickMint == "" || (mint != "" && tickMint != mint) {
		return domain.TradeTick{}, false
	}
	tick := domain.TradeTick{Mint: tickMint, Raw: raw}
	tick.TxType, _ = raw["txType"].(string)
	tick.Trader, _ = raw["traderPublicKey"].(string)
	tick.SolAmount, _ = raw["solAmount"].(float64)
	tick.TokenAmount, _ = raw["tokenAmount"].(float64)
	tick.MarketCap, _ = raw["marketCapSol"].(float64)
	return tick, true
}
