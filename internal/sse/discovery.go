package sse

import (
	"context"
	"encoding/json"
	"regexp"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/upstream"
)

// Probe — исход одной попытки найти идентификатор комнаты. Ошибки проб
// не фатальны и отдаются клиенту отладочными событиями.
type Probe struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
	RoomID string `json:"roomId,omitempty"`
}

// roomIDRe вылавливает идентификаторы комнат из server-rendered HTML.
var roomIDRe = regexp.MustCompile(`"(?:roomId|room_id|chatRoomId)"\s*:\s*"([^"]{3,80})"`)

// RoomCandidates собирает возможные идентификаторы чат-комнаты монеты.
// Сам минт — всегда первый кандидат; остальные добываются из конфигурации
// комнаты, ответа на вход в трансляцию и HTML страницы монеты. Кандидаты
// не отбрасываются: подключение пробует каждый.
func RoomCandidates(ctx context.Context, up *upstream.Client, mint string, onProbe func(Probe)) []string {
	if onProbe == nil {
		onProbe = func(Probe) {}
	}

	seen := map[string]bool{mint: true}
	candidates := []string{mint}
	add := func(source, id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, id)
		onProbe(Probe{Source: source, RoomID: id})
	}

	if raw, err := up.FetchRoomConfig(ctx, mint); err != nil {
		onProbe(Probe{Source: "roomConfig", Error: err.Error()})
	} else {
		add("roomConfig", roomIDFromJSON(raw))
	}

	if raw, err := up.JoinLivestream(ctx, mint); err != nil {
		onProbe(Probe{Source: "livestreamJoin", Error: err.Error()})
	} else {
		add("livestreamJoin", roomIDFromJSON(raw))
	}

	if page, err := up.FetchCoinPage(ctx, mint); err != nil {
		onProbe(Probe{Source: "coinPage", Error: err.Error()})
	} else {
		for _, m := range roomIDRe.FindAllStringSubmatch(string(page), -1) {
			add("coinPage", m[1])
		}
	}

	return candidates
}

// roomIDFromJSON достает идентификатор комнаты из произвольного JSON-ответа.
func roomIDFromJSON(raw []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"roomId", "room_id", "chatRoomId", "id"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ChatEvent — событие чат-потока для клиента.
type ChatEvent struct {
	RoomID  string              `json:"roomId"`
	Message *domain.ChatMessage `json:"message,omitempty"`
}
