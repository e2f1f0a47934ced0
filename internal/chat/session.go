package chat

import (
	"context"
	"time"

	"pumpfun-chat-relay/internal/domain"
)

// Имена событий чат-протокола апстрима.
const (
	eventJoinRoom   = "joinRoom"
	eventGetHistory = "getMessageHistory"
	eventNewMessage = "newMessage"
)

// chatEventNames — события, несущие сообщение чата. Апстрим менял имя
// события между ревизиями, слушаем все известные варианты.
var chatEventNames = map[string]bool{
	eventNewMessage:  true,
	"chat_message":   true,
	"message":        true,
	"messageCreated": true,
}

// IsChatEvent сообщает, несет ли событие с таким именем сообщение чата.
// Используется и живым слушателем, и сниффером кадров из браузера.
func IsChatEvent(name string) bool {
	return chatEventNames[name]
}

// HistoryResult — итог входа в комнату с запросом истории.
type HistoryResult struct {
	Join     domain.RoomJoinResult
	Messages []domain.ChatMessage
}

// JoinAndHistory подключается к чату, входит в комнату и запрашивает
// историю сообщений. opTimeout ограничивает каждую операцию по отдельности;
// baseURL нужен для построения ссылок на профили.
func JoinAndHistory(ctx context.Context, cfg Config, roomID, baseURL string, limit int, opTimeout time.Duration) (*HistoryResult, error) {
	cl, err := Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	join, err := joinRoom(ctx, cl, roomID, cfg.Username, opTimeout)
	if err != nil {
		return nil, err
	}

	histCtx, cancel := withTimeout(ctx, opTimeout)
	defer cancel()
	args, err := cl.Emit(histCtx, eventGetHistory, map[string]any{
		"roomId": roomID,
		"before": nil,
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}

	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	msgs := MessagesFromHistory(roomID, baseURL, payload, limit)
	return &HistoryResult{Join: join, Messages: msgs}, nil
}

func joinRoom(ctx context.Context, cl *Client, roomID, username string, opTimeout time.Duration) (domain.RoomJoinResult, error) {
	joinCtx, cancel := withTimeout(ctx, opTimeout)
	defer cancel()
	args, err := cl.Emit(joinCtx, eventJoinRoom, map[string]any{
		"roomId":   roomID,
		"username": username,
	})
	if err != nil {
		return domain.RoomJoinResult{}, err
	}
	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	return domain.JoinResultFromPayload(payload), nil
}

// MessagesFromHistory превращает полезную нагрузку ответа истории в
// нормализованные сообщения: невалидные отбрасываются, дубликаты
// схлопываются, остаются последние limit штук.
func MessagesFromHistory(roomID, baseURL string, payload any, limit int) []domain.ChatMessage {
	items := domain.HistoryFromPayload(payload)
	msgs := make([]domain.ChatMessage, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		m := domain.MessageFromPayload(roomID, item)
		m.Normalize(baseURL)
		if !m.Valid() {
			continue
		}
		key := m.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		msgs = append(msgs, m)
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}
