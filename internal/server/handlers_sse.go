package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/sse"
)

// handleChatSSE — GET /chat-sse?room=...&commands=0|1: живой поток
// сообщений чата (mint принимается как синоним room). Кандидаты комнат
// обнаруживаются несколькими пробами; неудачные пробы отражаются
// отладочными событиями и не рвут поток.
func (s *Server) handleChatSSE(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = r.URL.Query().Get("mint")
	}
	if room == "" {
		writeError(w, http.StatusBadRequest, "room query parameter is required")
		return
	}
	commands := r.URL.Query().Get("commands") != "0"

	stream, err := sse.NewStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := make(chan struct{})
	defer close(stop)
	stream.StartPing(stop, config.DefaultSSEPingInterval)

	subID := uuid.NewString()
	s.log.Info("sse subscriber connected", "id", subID, "room", room)
	defer s.log.Info("sse subscriber gone", "id", subID)

	ctx := r.Context()
	candidates := sse.RoomCandidates(ctx, s.up, room, func(p sse.Probe) {
		_ = stream.Send("debug", p)
	})
	_ = stream.Send("ready", struct {
		RoomID     string   `json:"roomId"`
		Candidates []string `json:"candidates"`
	}{room, candidates})

	relay := sse.NewChatRelay(s.scraper.ChatConfig(), s.cfg.Upstream.BaseURL, s.cfg.SocketTimeout(), s.log)
	relay.HistoryLimit = s.cfg.Chat.DefaultMax
	relay.Commands = commands
	if err := relay.Run(ctx, candidates, stream.Send); err != nil {
		s.log.Warn("chat sse relay ended", "room", room, "error", err)
	}
}

// handleCoinSSE — GET /coin-sse?mint=...&interval=...: периодические
// сведения о монете из REST API.
func (s *Server) handleCoinSSE(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}
	interval := queryDurationMs(r, "interval", int(config.DefaultCoinInterval/time.Millisecond), minIntervalMs, maxIntervalMs)

	stream, err := sse.NewStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := make(chan struct{})
	defer close(stop)
	stream.StartPing(stop, config.DefaultSSEPingInterval)

	ticker := sse.NewCoinTicker(s.up, s.log)
	if err := ticker.Run(r.Context(), mint, interval, stream.Send); err != nil {
		s.log.Warn("coin sse ended", "mint", mint, "error", err)
	}
}

// handleTradesSSE — GET /trades-sse?mint=...: проброс ленты сделок.
func (s *Server) handleTradesSSE(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}

	stream, err := sse.NewStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := make(chan struct{})
	defer close(stop)
	stream.StartPing(stop, config.DefaultSSEPingInterval)

	relay := sse.NewTradesRelay(s.cfg.Upstream.TradesURL, s.log)
	if err := relay.Run(r.Context(), mint, stream.Send); err != nil {
		s.log.Warn("trades sse ended", "mint", mint, "error", err)
	}
}
