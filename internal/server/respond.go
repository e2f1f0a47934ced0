package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pumpfun-chat-relay/internal/browser"
	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/upstream"
)

// writeJSON сериализует тело ответа с заданным статусом.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

// writeError отдает структурированную ошибку вида {ok:false, error:...}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// writeUpstreamError сопоставляет ошибку апстрима с HTTP-статусом:
// таймауты и ошибки подключения — 502 с различимым текстом, отсутствие
// вкладки браузера — 502 с подсказкой оператору.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrTimeout):
		writeError(w, http.StatusBadGateway, "upstream timed out: "+err.Error())
	case errors.Is(err, chat.ErrConnect):
		writeError(w, http.StatusBadGateway, "upstream connection failed: "+err.Error())
	case errors.Is(err, browser.ErrNoTarget):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, upstream.ErrUpstreamStatus):
		writeError(w, http.StatusBadGateway, "upstream rejected the request: "+err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
