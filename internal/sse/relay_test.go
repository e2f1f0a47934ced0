package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/domain"
)

type emittedEvent struct {
	name string
	data any
}

func captureEmitter(out *[]emittedEvent) Emitter {
	return func(event string, data any) error {
		*out = append(*out, emittedEvent{name: event, data: data})
		return nil
	}
}

func TestChatRelayForward(t *testing.T) {
	t.Run("Сообщение чата уходит событием message", func(t *testing.T) {
		relay := &ChatRelay{}
		var out []emittedEvent
		err := relay.forward("MINT", chat.LiveEvent{
			Name:    "newMessage",
			Message: &domain.ChatMessage{Username: "alice", Message: "gm"},
		}, captureEmitter(&out))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "message", out[0].name)

		raw, err := json.Marshal(out[0].data)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"roomId":"MINT"`)
		assert.Contains(t, string(raw), `"event":"newMessage"`)
	})

	t.Run("Синтетические joined и history сохраняют имена", func(t *testing.T) {
		relay := &ChatRelay{}
		var out []emittedEvent
		require.NoError(t, relay.forward("MINT", chat.LiveEvent{
			Name:    chat.EventJoined,
			Payload: domain.RoomJoinResult{Authenticated: true},
		}, captureEmitter(&out)))
		require.NoError(t, relay.forward("MINT", chat.LiveEvent{
			Name:    chat.EventHistory,
			Payload: []domain.ChatMessage{{Username: "alice", Message: "gm"}},
		}, captureEmitter(&out)))
		require.Len(t, out, 2)
		assert.Equal(t, "joined", out[0].name)
		assert.Equal(t, "history", out[1].name)
	})

	t.Run("Неизвестное событие протокола проходит catch-all типом event", func(t *testing.T) {
		relay := &ChatRelay{}
		var out []emittedEvent
		err := relay.forward("MINT", chat.LiveEvent{
			Name:    "userJoined",
			Payload: map[string]any{"username": "bob"},
		}, captureEmitter(&out))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "event", out[0].name)
	})

	t.Run("Slash-команда дублируется событием command при включенном флаге", func(t *testing.T) {
		ev := chat.LiveEvent{
			Name:    "newMessage",
			Message: &domain.ChatMessage{Username: "bob", Message: "/spin 5"},
			Command: &domain.SlashCommand{Name: "spin", Args: []string{"5"}, Raw: "/spin 5"},
		}

		relay := &ChatRelay{Commands: true}
		var out []emittedEvent
		require.NoError(t, relay.forward("MINT", ev, captureEmitter(&out)))
		require.Len(t, out, 2)
		assert.Equal(t, "message", out[0].name)
		assert.Equal(t, "command", out[1].name)

		relay = &ChatRelay{Commands: false}
		out = nil
		require.NoError(t, relay.forward("MINT", ev, captureEmitter(&out)))
		require.Len(t, out, 1)
		assert.Equal(t, "message", out[0].name)
	})
}
