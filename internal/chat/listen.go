package chat

import (
	"context"
	"time"

	"pumpfun-chat-relay/internal/domain"
)

// LiveEvent — событие живого прослушивания комнаты. Для чат-событий
// заполнено Message, для сообщений вида "/имя арг..." — еще и Command.
type LiveEvent struct {
	Name    string               `json:"event"`
	Message *domain.ChatMessage  `json:"message,omitempty"`
	Command *domain.SlashCommand `json:"command,omitempty"`
	Payload any                  `json:"payload,omitempty"`
}

// Синтетические имена событий прослушивания; в протоколе апстрима таких нет.
const (
	// EventJoined доставляет RoomJoinResult после подтверждения входа.
	EventJoined = "joined"
	// EventHistory доставляет []domain.ChatMessage бэклога комнаты.
	EventHistory = "history"
)

// Listen входит в комнату и доставляет события через fn до истечения ctx
// или разрыва соединения: сначала синтетические EventJoined и EventHistory,
// затем живые события протокола как есть. Разрыв возвращается как ошибка:
// переподключение с backoff — забота вызывающего.
func Listen(ctx context.Context, cfg Config, roomID, baseURL string, historyLimit int, opTimeout time.Duration, fn func(LiveEvent)) error {
	cl, err := Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer cl.Close()

	join, err := joinRoom(ctx, cl, roomID, cfg.Username, opTimeout)
	if err != nil {
		return err
	}
	fn(LiveEvent{Name: EventJoined, Payload: join})

	if historyLimit > 0 {
		histCtx, cancel := withTimeout(ctx, opTimeout)
		args, err := cl.Emit(histCtx, eventGetHistory, map[string]any{
			"roomId": roomID,
			"before": nil,
			"limit":  historyLimit,
		})
		cancel()
		// Молчание на запрос истории не рвет живую подписку.
		if err == nil {
			var payload any
			if len(args) > 0 {
				payload = args[0]
			}
			fn(LiveEvent{Name: EventHistory, Payload: MessagesFromHistory(roomID, baseURL, payload, historyLimit)})
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-cl.Events():
			if !ok {
				return cl.Err()
			}
			fn(toLiveEvent(roomID, baseURL, ev))
		}
	}
}

func toLiveEvent(roomID, baseURL string, ev *EventFrame) LiveEvent {
	out := LiveEvent{Name: ev.Name}
	if !IsChatEvent(ev.Name) {
		out.Payload = ev.Payload()
		return out
	}
	m := domain.MessageFromPayload(roomID, ev.Payload())
	m.Normalize(baseURL)
	if m.Valid() {
		out.Message = &m
		if cmd, ok := domain.ParseSlashCommand(m.Message); ok {
			out.Command = cmd
		}
	} else {
		out.Payload = ev.Payload()
	}
	return out
}
