package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/upstream"
)

func upstreamForServer(srv *httptest.Server) *upstream.Client {
	return upstream.NewClient(config.Upstream{
		BaseURL:               srv.URL,
		APIURL:                srv.URL + "/api",
		RequestTimeoutSeconds: 5,
	})
}

func TestRoomCandidates(t *testing.T) {
	t.Run("Минт всегда первый кандидат", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		candidates := RoomCandidates(context.Background(), upstreamForServer(srv), "MINT", nil)
		require.NotEmpty(t, candidates)
		assert.Equal(t, "MINT", candidates[0])
	})

	t.Run("Кандидаты собираются из всех источников без дублей", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/chat/rooms/MINT/config":
				_, _ = w.Write([]byte(`{"roomId":"room-from-config"}`))
			case "/api/livestreams/stream/join":
				_, _ = w.Write([]byte(`{"room_id":"room-from-join"}`))
			case "/coin/MINT":
				_, _ = w.Write([]byte(`<script>{"chatRoomId":"room-from-page"}{"roomId":"room-from-config"}</script>`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		candidates := RoomCandidates(context.Background(), upstreamForServer(srv), "MINT", nil)
		assert.Equal(t, []string{"MINT", "room-from-config", "room-from-join", "room-from-page"}, candidates)
	})

	t.Run("Ошибки проб отдаются наблюдателю и не валят обнаружение", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		var probes []Probe
		candidates := RoomCandidates(context.Background(), upstreamForServer(srv), "MINT", func(p Probe) {
			probes = append(probes, p)
		})

		assert.Equal(t, []string{"MINT"}, candidates)
		require.Len(t, probes, 3)
		for _, p := range probes {
			assert.NotEmpty(t, p.Error, "проба %s должна нести текст ошибки", p.Source)
		}
	})
}

func TestRoomIDFromJSON(t *testing.T) {
	t.Run("Известные ключи перебираются по порядку", func(t *testing.T) {
		assert.Equal(t, "a", roomIDFromJSON([]byte(`{"roomId":"a","id":"b"}`)))
		assert.Equal(t, "b", roomIDFromJSON([]byte(`{"id":"b"}`)))
	})

	t.Run("Мусор дает пустую строку", func(t *testing.T) {
		assert.Empty(t, roomIDFromJSON([]byte(`not json`)))
		assert.Empty(t, roomIDFromJSON([]byte(`{"roomId":42}`)))
		assert.Empty(t, roomIDFromJSON(nil))
	})
}
