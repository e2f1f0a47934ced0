package sse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/domain"
)

// Emitter доставляет событие клиенту потока. Ошибка означает, что клиент
// отключился, и трансляцию пора сворачивать.
type Emitter func(event string, data any) error

// ChatRelay держит живые подписки на все комнаты-кандидаты одной монеты
// и сводит их события в один SSE-поток.
type ChatRelay struct {
	cfg       chat.Config
	baseURL   string
	opTimeout time.Duration
	log       *slog.Logger

	// HistoryLimit — сколько сообщений бэклога отдать событием history
	// при подключении к комнате; 0 отключает запрос истории.
	HistoryLimit int
	// Commands дублирует разобранные slash-команды отдельными событиями
	// command вдобавок к несущему их message.
	Commands bool
}

// NewChatRelay создает трансляцию чата поверх конфигурации подключения.
func NewChatRelay(cfg chat.Config, baseURL string, opTimeout time.Duration, log *slog.Logger) *ChatRelay {
	if log == nil {
		log = slog.Default()
	}
	return &ChatRelay{cfg: cfg, baseURL: baseURL, opTimeout: opTimeout, log: log}
}

// Run подключается ко всем кандидатам параллельно и шлет их события через
// emit до истечения ctx. Разрывы отдельных подписок переустанавливаются с
// экспоненциальным backoff и отражаются отладочными событиями; ошибка emit
// (клиент ушел) сворачивает всю группу.
func (r *ChatRelay) Run(ctx context.Context, candidates []string, emit Emitter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Неудачная запись клиенту гасит все подписки разом.
	rawEmit := emit
	emit = func(event string, data any) error {
		if err := rawEmit(event, data); err != nil {
			cancel()
			return err
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, roomID := range candidates {
		roomID := roomID
		g.Go(func() error {
			return r.listenRoom(ctx, roomID, emit)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (r *ChatRelay) listenRoom(ctx context.Context, roomID string, emit Emitter) error {
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		err := chat.Listen(ctx, r.cfg, roomID, r.baseURL, r.HistoryLimit, r.opTimeout, func(ev chat.LiveEvent) {
			if sendErr := r.forward(roomID, ev, emit); sendErr != nil {
				// Клиент отключился; Listen свернется по отмене контекста.
				r.log.Debug("sse client gone", "roomId", roomID, "error", sendErr)
			}
		})
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err != nil {
			r.log.Warn("chat subscription dropped, reconnecting", "roomId", roomID, "error", err)
			// Отладочное событие: клиент видит, какая комната отвалилась.
			_ = emit("debug", Probe{Source: "listen:" + roomID, Error: err.Error()})
			return err
		}
		return errors.New("chat subscription ended")
	}, bo)
}

// forward типизирует событие комнаты для потока: синтетические joined и
// history идут под своими именами, сообщения чата — как message, прочие
// события протокола — catch-all под общим типом event.
func (r *ChatRelay) forward(roomID string, ev chat.LiveEvent, emit Emitter) error {
	name := "message"
	switch {
	case ev.Name == chat.EventJoined:
		name = "joined"
	case ev.Name == chat.EventHistory:
		name = "history"
	case ev.Message == nil && ev.Command == nil:
		name = "event"
	}
	if err := emit(name, struct {
		RoomID string `json:"roomId"`
		chat.LiveEvent
	}{roomID, ev}); err != nil {
		return err
	}
	if r.Commands && ev.Command != nil {
		return emit("command", struct {
			RoomID  string               `json:"roomId"`
			Command *domain.SlashCommand `json:"command"`
		}{roomID, ev.Command})
	}
	return nil
}
