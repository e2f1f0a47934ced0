package browser

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/domain"
)

// wsCreatedParams — параметры события Network.webSocketCreated.
type wsCreatedParams struct {
	RequestID string `json:"requestId"`
	URL       string `json:"url"`
}

// wsFrameParams — параметры Network.webSocketFrameReceived / FrameSent.
type wsFrameParams struct {
	RequestID string `json:"requestId"`
	Response  struct {
		Opcode      float64 `json:"opcode"`
		PayloadData string  `json:"payloadData"`
	} `json:"response"`
}

// SniffChatFrames пассивно слушает кадры чат-сокета, который открыла сама
// страница: включает сетевой домен, отслеживает сокеты на хост чата и
// разбирает входящие кадры "42[...]" в сообщения. Возвращает накопленное
// по истечении listen — тишина не ошибка, просто пустой результат.
func (c *Conn) SniffChatFrames(ctx context.Context, roomID, baseURL, chatHost string, max int, listen time.Duration) ([]domain.ChatMessage, error) {
	if _, err := c.call(ctx, "Network.enable", nil); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(listen)
	defer deadline.Stop()

	chatSockets := make(map[string]bool)
	otherSockets := make(map[string]bool)
	seen := make(map[string]bool)
	var msgs []domain.ChatMessage

	for {
		select {
		case <-ctx.Done():
			return msgs, ctx.Err()
		case <-deadline.C:
			return msgs, nil
		case ev, ok := <-c.events:
			if !ok {
				return msgs, c.readErr
			}
			switch ev.Method {
			case "Network.webSocketCreated":
				var p wsCreatedParams
				if err := json.Unmarshal(ev.Params, &p); err != nil {
					continue
				}
				if strings.Contains(p.URL, chatHost) {
					chatSockets[p.RequestID] = true
				} else {
					otherSockets[p.RequestID] = true
				}
			case "Network.webSocketFrameReceived":
				var p wsFrameParams
				if err := json.Unmarshal(ev.Params, &p); err != nil {
					continue
				}
				// Сокеты, открытые до Network.enable, не дают webSocketCreated,
				// поэтому их requestId неизвестен. В этом окне неизвестный кадр
				// принимается, если он разбирается как событие чата; кадры
				// заведомо чужих сокетов и — после первого отслеженного
				// чат-сокета — все неизвестные отбрасываются.
				if otherSockets[p.RequestID] {
					continue
				}
				if len(chatSockets) > 0 && !chatSockets[p.RequestID] {
					continue
				}
				m, ok := messageFromFrame(roomID, baseURL, p.Response.PayloadData)
				if !ok {
					continue
				}
				key := m.DedupKey()
				if seen[key] {
					continue
				}
				seen[key] = true
				msgs = append(msgs, m)
				if max > 0 && len(msgs) >= max {
					return msgs, nil
				}
			}
		}
	}
}

// messageFromFrame разбирает один текстовый кадр socket.io в сообщение чата.
func messageFromFrame(roomID, baseURL, payload string) (domain.ChatMessage, bool) {
	ev, ok := chat.ParseEventFrame(payload)
	if !ok || !chat.IsChatEvent(ev.Name) {
		return domain.ChatMessage{}, false
	}
	m := domain.MessageFromPayload(roomID, ev.Payload())
	m.Normalize(baseURL)
	if !m.Valid() {
		return domain.ChatMessage{}, false
	}
	return m, true
}
