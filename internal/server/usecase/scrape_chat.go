// Package usecase инкапсулирует бизнес-логику извлечения сообщений чата:
// выбор стратегии, нормализацию и дозаполнение кошельков.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/scrape"
	"pumpfun-chat-relay/internal/upstream"
)

// Режимы извлечения и источники кошельков.
const (
	ModeSocket = "socket"
	ModeHTML   = "html"

	WalletsFromProfiles = "profiles"
	WalletsFromPayload  = "payload"
	WalletsProvided     = "provided"
	WalletsNone         = "none"
)

// NormalizeWalletSource сводит синонимы источника кошельков к каноническим
// значениям; неизвестные возвращаются как есть для валидации вызывающим.
func NormalizeWalletSource(raw string) string {
	if raw == "profile" {
		return WalletsFromProfiles
	}
	return raw
}

// KnownWalletSource сообщает, является ли значение допустимым источником
// кошельков с учетом синонимов.
func KnownWalletSource(source string) bool {
	switch NormalizeWalletSource(source) {
	case "", WalletsFromProfiles, WalletsFromPayload, WalletsProvided, WalletsNone:
		return true
	}
	return false
}

// ScrapeOptions — параметры одного запроса извлечения.
type ScrapeOptions struct {
	Mode               string
	Max                int
	Timeout            time.Duration
	WalletSource       string
	Wallets            []string
	ProfileConcurrency int
	PreferChat         bool
}

// ScrapeResult — итог извлечения. Note заполняется, когда пустой результат
// объясним: комната не найдена, контейнер не отобран.
type ScrapeResult struct {
	RoomID        string               `json:"roomId"`
	Mode          string               `json:"mode"`
	Authenticated bool                 `json:"authenticated"`
	Messages      []domain.ChatMessage `json:"messages"`
	Note          string               `json:"note,omitempty"`
}

// ScrapeChatUseCase объединяет стратегии извлечения и разрешение кошельков.
type ScrapeChatUseCase struct {
	cfg      *config.Config
	up       *upstream.Client
	resolver chat.WalletResolver
	log      *slog.Logger
}

// NewScrapeChatUseCase создает новый экземпляр ScrapeChatUseCase.
func NewScrapeChatUseCase(cfg *config.Config, up *upstream.Client, resolver chat.WalletResolver, log *slog.Logger) *ScrapeChatUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &ScrapeChatUseCase{cfg: cfg, up: up, resolver: resolver, log: log}
}

// ChatConfig собирает конфигурацию подключения к чат-сокету из
// конфигурации апстрима.
func (uc *ScrapeChatUseCase) ChatConfig() chat.Config {
	creds := uc.up.Credentials()
	return chat.Config{
		URL:      uc.cfg.Upstream.ChatURL,
		Headers:  creds.Headers(config.UpstreamUserAgent, uc.cfg.Upstream.BaseURL),
		Username: creds.Username,
		Log:      uc.log,
	}
}

// Scrape извлекает сообщения комнаты выбранной стратегией и дозаполняет
// кошельки согласно opts.WalletSource.
func (uc *ScrapeChatUseCase) Scrape(ctx context.Context, roomID string, opts ScrapeOptions) (*ScrapeResult, error) {
	var res *ScrapeResult
	var err error
	switch opts.Mode {
	case ModeHTML:
		res, err = uc.scrapeHTML(ctx, roomID, opts)
	default:
		res, err = uc.scrapeSocket(ctx, roomID, opts)
	}
	if err != nil {
		return nil, err
	}

	uc.fillWallets(ctx, res.Messages, opts)
	if res.Messages == nil {
		res.Messages = []domain.ChatMessage{}
	}
	return res, nil
}

// scrapeSocket входит в комнату по протоколу чата и запрашивает историю.
func (uc *ScrapeChatUseCase) scrapeSocket(ctx context.Context, roomID string, opts ScrapeOptions) (*ScrapeResult, error) {
	hist, err := chat.JoinAndHistory(ctx, uc.ChatConfig(), roomID, uc.cfg.Upstream.BaseURL, opts.Max, opts.Timeout)
	if err != nil {
		return nil, err
	}
	res := &ScrapeResult{
		RoomID:        roomID,
		Mode:          ModeSocket,
		Authenticated: hist.Join.Authenticated,
		Messages:      hist.Messages,
	}
	if len(hist.Messages) == 0 {
		res.Note = "room joined but history is empty; the room may not exist yet"
	}
	return res, nil
}

// scrapeHTML загружает server-rendered страницу монеты и извлекает сообщения
// из отобранного контейнера.
func (uc *ScrapeChatUseCase) scrapeHTML(ctx context.Context, roomID string, opts ScrapeOptions) (*ScrapeResult, error) {
	page, err := uc.up.FetchCoinPage(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetch coin page: %w", err)
	}
	root, err := scrape.ParseBytes(page)
	if err != nil {
		return nil, fmt.Errorf("parse coin page: %w", err)
	}
	res := &ScrapeResult{RoomID: roomID, Mode: ModeHTML}
	container := scrape.FindChatContainer(root, opts.PreferChat)
	if container == nil {
		res.Note = "no chat container found on the page"
		return res, nil
	}
	res.Messages = scrape.ExtractMessages(container, uc.cfg.Upstream.BaseURL, opts.Max)
	if len(res.Messages) == 0 {
		res.Note = "chat container found but no messages extracted"
	}
	return res, nil
}

// FragmentHTML возвращает сырой HTML отобранного контейнера чата.
func (uc *ScrapeChatUseCase) FragmentHTML(ctx context.Context, roomID string, preferChat bool) (string, error) {
	page, err := uc.up.FetchCoinPage(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("fetch coin page: %w", err)
	}
	root, err := scrape.ParseBytes(page)
	if err != nil {
		return "", fmt.Errorf("parse coin page: %w", err)
	}
	container := scrape.FindChatContainer(root, preferChat)
	if container == nil {
		return "", nil
	}
	return scrape.RenderFragment(container)
}

// fillWallets дозаполняет кошельки сообщений согласно источнику:
// profiles — разрешение через страницы профилей пулом воркеров,
// provided — подстановка переданных кошельков по порядку появления имен,
// payload и none — кошельки остаются такими, какими их дал источник.
func (uc *ScrapeChatUseCase) fillWallets(ctx context.Context, msgs []domain.ChatMessage, opts ScrapeOptions) {
	switch NormalizeWalletSource(opts.WalletSource) {
	case WalletsProvided:
		assignProvidedWallets(msgs, opts.Wallets)
	case WalletsFromPayload, WalletsNone, "":
	case WalletsFromProfiles:
		concurrency := opts.ProfileConcurrency
		if concurrency <= 0 {
			concurrency = uc.cfg.Chat.ProfileConcurrency
		}
		chat.ResolveWallets(ctx, uc.log, uc.resolver, msgs, concurrency)
	}
}

// assignProvidedWallets раздает кошельки из запроса уникальным именам в
// порядке их первого появления.
func assignProvidedWallets(msgs []domain.ChatMessage, wallets []string) {
	byUser := make(map[string]string)
	next := 0
	for i := range msgs {
		name := msgs[i].Username
		if name == "" {
			continue
		}
		wallet, ok := byUser[name]
		if !ok {
			if next >= len(wallets) {
				continue
			}
			wallet = wallets[next]
			next++
			byUser[name] = wallet
		}
		msgs[i].WalletAddress = wallet
	}
}
