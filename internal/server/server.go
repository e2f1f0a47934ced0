// Package server публикует нормализованные данные апстрима по HTTP:
// JSON-эндпоинты извлечения чата, SSE-потоки и закрытую выплату.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pumpfun-chat-relay/internal/browser"
	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/ports"
	"pumpfun-chat-relay/internal/server/usecase"
	"pumpfun-chat-relay/internal/upstream"
)

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	log        *slog.Logger
	scraper    *usecase.ScrapeChatUseCase
	up         *upstream.Client
	targets    *browser.Targets
	payouts    ports.PayoutService
}

// New создает новый экземпляр Server
func New(cfg *config.Config, log *slog.Logger, scraper *usecase.ScrapeChatUseCase, up *upstream.Client, payouts ports.PayoutService) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		scraper: scraper,
		up:      up,
		targets: browser.NewTargets(cfg.Browser.CDPPort),
		payouts: payouts,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)
	// Оверлей открывается с произвольных origin (OBS, локальные файлы),
	// поэтому CORS максимально разрешающий; preflight получает 204.
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	chiRouter.Get("/health", s.handleHealth)

	chiRouter.Get("/chat-scrape", s.handleChatScrape)
	chiRouter.Get("/chat-fragment", s.handleChatFragment)
	chiRouter.Get("/chat-export", s.handleChatExport)
	chiRouter.Get("/render/chat", s.handleRenderChat)

	chiRouter.Get("/chat-browser-scrape", s.handleBrowserScrape)
	chiRouter.Get("/chat-browser-ws", s.handleBrowserSniff)

	chiRouter.Get("/chat-sse", s.handleChatSSE)
	chiRouter.Get("/coin-sse", s.handleCoinSSE)
	chiRouter.Get("/trades-sse", s.handleTradesSSE)

	chiRouter.Post("/payout", s.handlePayout)

	s.HTTPServer = &http.Server{
		Addr:        cfg.Address(),
		Handler:     chiRouter,
		ReadTimeout: config.DefaultReadTimeout,
		// SSE-потоки пишут неограниченно долго, write timeout не ставим.
		IdleTimeout: config.DefaultIdleTimeout,
	}
	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.HTTPServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestTimeout возвращает контекст с таймаутом апстрим-запроса.
func (s *Server) requestTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = s.cfg.RequestTimeout()
	}
	return context.WithTimeout(r.Context(), d)
}
