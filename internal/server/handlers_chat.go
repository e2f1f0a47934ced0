package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/server/usecase"
)

// handleChatScrape — GET /chat-scrape?mint=...&mode=socket|html.
// Основной эндпоинт оверлея: сообщения комнаты выбранной стратегией.
func (s *Server) handleChatScrape(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}
	mode := r.URL.Query().Get("mode")
	switch mode {
	case "", usecase.ModeSocket, usecase.ModeHTML:
	default:
		writeError(w, http.StatusBadRequest, "mode must be socket or html")
		return
	}
	source, provided := walletParams(r)
	if !usecase.KnownWalletSource(source) {
		writeError(w, http.StatusBadRequest, "walletSource must be payload or profile")
		return
	}

	opts := usecase.ScrapeOptions{
		Mode:               mode,
		Max:                queryInt(r, "max", s.cfg.Chat.DefaultMax, minMax, maxMaxHTTP),
		Timeout:            queryDurationMs(r, "timeoutMs", int(s.cfg.SocketTimeout()/time.Millisecond), minTimeoutMs, maxTimeoutMs),
		WalletSource:       source,
		Wallets:            provided,
		ProfileConcurrency: queryInt(r, "profileConcurrency", s.cfg.Chat.ProfileConcurrency, 1, config.MaxProfileConcurrency),
		PreferChat:         queryPrefer(r),
	}

	ctx, cancel := s.requestTimeout(r, opts.Timeout+5*time.Second)
	defer cancel()

	res, err := s.scraper.Scrape(ctx, mint, opts)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"roomId":        res.RoomID,
		"mode":          res.Mode,
		"authenticated": res.Authenticated,
		"messageCount":  len(res.Messages),
		"messages":      res.Messages,
		"note":          res.Note,
	})
}

// handleChatFragment — GET /chat-fragment?mint=...: сырой HTML отобранного
// контейнера чата. Полезен для отладки эвристики на живых страницах.
func (s *Server) handleChatFragment(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}

	ctx, cancel := s.requestTimeout(r, 0)
	defer cancel()

	fragment, err := s.scraper.FragmentHTML(ctx, mint, queryPrefer(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if fragment == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"html": "",
			"note": "no chat container found on the page",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "html": fragment})
}

// handleChatExport — GET /chat-export?mint=...: выгрузка сообщений в XLSX.
func (s *Server) handleChatExport(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, http.StatusBadRequest, "mint query parameter is required")
		return
	}
	source, provided := walletParams(r)
	opts := usecase.ScrapeOptions{
		Mode:         r.URL.Query().Get("mode"),
		Max:          queryInt(r, "max", s.cfg.Chat.DefaultMax, minMax, maxMaxHTTP),
		Timeout:      s.cfg.SocketTimeout(),
		WalletSource: source,
		Wallets:      provided,
	}

	ctx, cancel := s.requestTimeout(r, opts.Timeout+5*time.Second)
	defer cancel()

	res, err := s.scraper.Scrape(ctx, mint, opts)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	headers := []string{"Username", "Wallet", "Message", "Timestamp", "Profile URL"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		book.SetCellValue(sheet, cell, h)
	}
	for row, m := range res.Messages {
		values := []any{m.Username, m.WalletAddress, m.Message, m.Timestamp, m.ProfileURL}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			book.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "chat_"+mint+".xlsx"))
	if err := book.Write(w); err != nil {
		s.log.Error("xlsx export failed", "mint", mint, "error", err)
	}
}

// walletParams сводит walletSource и wallets к источнику кошельков:
// wallets=0 выключает дозаполнение целиком, явный список адресов через
// запятую переводит в режим provided, булево wallets=1 оставляет источник
// из walletSource.
func walletParams(r *http.Request) (source string, provided []string) {
	source = r.URL.Query().Get("walletSource")
	switch r.URL.Query().Get("wallets") {
	case "", "1", "true", "yes":
	case "0", "false", "no":
		return usecase.WalletsNone, nil
	default:
		return usecase.WalletsProvided, queryList(r, "wallets")
	}
	return source, nil
}
