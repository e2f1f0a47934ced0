package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"pumpfun-chat-relay/internal/browser"
	"pumpfun-chat-relay/internal/domain"
)

// handleBrowserScrape — GET /chat-browser-scrape?mint=...: выполняет
// эвристику отбора контейнера в живом DOM авторизованной вкладки браузера,
// опрашивая страницу до первого непустого результата.
func (s *Server) handleBrowserScrape(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}

	pollOpts := browser.PollOptions{
		Interval: queryDurationMs(r, "pollMs", 500, minPollMs, maxPollMs),
		Count:    queryInt(r, "pollCount", 10, minPollCount, maxPollCount),
	}
	maxMessages := queryInt(r, "max", s.cfg.Chat.DefaultMax, minMax, maxMaxHTTP)
	preferChat := queryPrefer(r)
	openTab := queryBool(r, "open") || s.cfg.Browser.OpenTabs
	debug := queryBool(r, "debug")

	budget := pollOpts.Interval*time.Duration(pollOpts.Count) + s.cfg.EvalTimeout()*time.Duration(pollOpts.Count)
	ctx, cancel := s.requestTimeout(r, budget)
	defer cancel()

	conn, tab, err := s.dialCoinTab(ctx, mint, openTab)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer conn.Close()

	script := browser.ChatScrapeScript(preferChat, maxMessages)
	var lastRaw json.RawMessage
	msgs, err := browser.PollMessages(ctx, pollOpts, func(ctx context.Context) ([]domain.ChatMessage, error) {
		evalCtx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout())
		defer cancel()
		raw, err := conn.Evaluate(evalCtx, script)
		if err != nil {
			return nil, err
		}
		lastRaw = raw
		return decodeScrapedMessages(mint, s.cfg.Upstream.BaseURL, raw), nil
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	body := map[string]any{
		"ok":           true,
		"roomId":       mint,
		"tabUrl":       tab.URL,
		"messageCount": len(msgs),
		"messages":     msgs,
	}
	if len(msgs) == 0 {
		body["note"] = "no messages rendered yet; the page may still be loading"
	}
	if debug {
		body["raw"] = lastRaw
	}
	writeJSON(w, http.StatusOK, body)
}

// handleBrowserSniff — GET /chat-browser-ws?mint=...: пассивно слушает
// кадры чат-сокета, открытого самой страницей. Тишина за listenMs — не
// ошибка, а пустой результат.
func (s *Server) handleBrowserSniff(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}

	listen := queryDurationMs(r, "listenMs", 5000, minListenMs, maxListenMs)
	maxMessages := queryInt(r, "max", maxMaxSniff, minMax, maxMaxSniff)
	openTab := queryBool(r, "open") || s.cfg.Browser.OpenTabs

	ctx, cancel := s.requestTimeout(r, listen+10*time.Second)
	defer cancel()

	conn, tab, err := s.dialCoinTab(ctx, mint, openTab)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer conn.Close()

	chatHost := hostOf(s.cfg.Upstream.ChatURL)
	msgs, err := conn.SniffChatFrames(ctx, mint, s.cfg.Upstream.BaseURL, chatHost, maxMessages, listen)
	if err != nil && len(msgs) == 0 {
		writeUpstreamError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}

	body := map[string]any{
		"ok":           true,
		"roomId":       mint,
		"tabUrl":       tab.URL,
		"messageCount": len(msgs),
		"messages":     msgs,
	}
	if len(msgs) == 0 {
		body["note"] = "no chat frames observed during the listen window"
	}
	writeJSON(w, http.StatusOK, body)
}

// dialCoinTab находит вкладку со страницей монеты и открывает к ней
// отладочное соединение.
func (s *Server) dialCoinTab(ctx context.Context, mint string, openTab bool) (*browser.Conn, domain.CdpTarget, error) {
	tab, err := s.targets.FindCoinTab(ctx, s.up.CoinPageURL(mint), openTab)
	if err != nil {
		return nil, domain.CdpTarget{}, err
	}
	conn, err := browser.DialTab(ctx, tab.WebSocketDebuggerURL, s.log)
	if err != nil {
		return nil, domain.CdpTarget{}, err
	}
	return conn, tab, nil
}

// decodeScrapedMessages разбирает JSON-строку, которую вернул скрипт
// страницы, в нормализованные сообщения.
func decodeScrapedMessages(roomID, baseURL string, raw json.RawMessage) []domain.ChatMessage {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	var items []struct {
		Username   string `json:"username"`
		ProfileURL string `json:"profileUrl"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil
	}
	msgs := make([]domain.ChatMessage, 0, len(items))
	for _, it := range items {
		m := domain.ChatMessage{
			RoomID:     roomID,
			Username:   it.Username,
			ProfileURL: it.ProfileURL,
			Message:    it.Message,
		}
		m.Normalize(baseURL)
		if m.Valid() {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
