// Package upstream реализует слой доступа к апстрим-сайту: авторизованные
// заголовки, HTTP-запросы к страницам и REST API и зонды, на которых строится
// обнаружение идентификаторов комнат.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/config"
)

// ErrUpstreamStatus возвращается, когда апстрим ответил неуспешным HTTP-статусом.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// Option — функциональная опция для настройки клиента.
type Option func(*Client)

// WithLogger устанавливает логгер клиента.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient подменяет HTTP-клиент (используется в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client — HTTP-клиент апстрима. Безопасен для одновременного использования.
type Client struct {
	baseURL string
	apiURL  string
	creds   Credentials
	http    *http.Client
	log     *slog.Logger
}

// NewClient создает новый клиент апстрима.
func NewClient(cfg config.Upstream, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		creds: Credentials{
			Cookie:   cfg.Cookie,
			JWT:      cfg.JWT,
			Username: cfg.Username,
		},
		http: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		log: slog.Default().With("component", "upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает базовый URL сайта (для построения URL профилей и страниц).
func (c *Client) BaseURL() string { return c.baseURL }

// Credentials возвращает авторизационные данные клиента.
func (c *Client) Credentials() Credentials { return c.creds }

// CoinPageURL возвращает URL страницы токена.
func (c *Client) CoinPageURL(mint string) string {
	return c.baseURL + "/coin/" + mint
}

// Get выполняет GET-запрос с авторизованными заголовками и возвращает тело.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = c.creds.Headers(config.UpstreamUserAgent, c.baseURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("upstream returned error status", "url", url, "status", resp.StatusCode)
		return body, fmt.Errorf("%w: %d for %s", ErrUpstreamStatus, resp.StatusCode, url)
	}
	return body, nil
}

// GetJSON выполняет GET-запрос и декодирует JSON-ответ в out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode upstream JSON: %w", err)
	}
	return nil
}

// PostJSON выполняет POST-запрос с JSON-телом и возвращает сырое тело ответа.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = c.creds.Headers(config.UpstreamUserAgent, c.baseURL)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("%w: %d for %s", ErrUpstreamStatus, resp.StatusCode, url)
	}
	return body, nil
}

// FetchCoinPage загружает отрендеренную HTML-страницу токена.
func (c *Client) FetchCoinPage(ctx context.Context, mint string) ([]byte, error) {
	return c.Get(ctx, c.CoinPageURL(mint))
}

// CoinInfo запрашивает метаданные и цену токена из REST API.
func (c *Client) CoinInfo(ctx context.Context, mint string) (domain.CoinInfo, error) {
	var info domain.CoinInfo
	if err := c.GetJSON(ctx, c.apiURL+"/coins/"+mint, &info); err != nil {
		return domain.CoinInfo{}, err
	}
	if info.Mint == "" {
		info.Mint = mint
	}
	return info, nil
}

// FetchRoomConfig запрашивает конфигурацию чат-комнаты. Ответ возвращается
// сырым: вызывающая сторона ищет в нем альтернативные написания id комнаты.
func (c *Client) FetchRoomConfig(ctx context.Context, roomID string) ([]byte, error) {
	return c.Get(ctx, c.apiURL+"/chat/rooms/"+roomID+"/config")
}

// JoinLivestream дергает эндпоинт присоединения к трансляции. Как и
// FetchRoomConfig, используется только как источник текста для поиска
// кандидатов id комнаты.
func (c *Client) JoinLivestream(ctx context.Context, mint string) ([]byte, error) {
	return c.PostJSON(ctx, c.apiURL+"/livestreams/stream/join", map[string]string{"mint": mint})
}

// walletOnPageRe ищет адрес кошелька в канонических ссылках страницы профиля.
var walletOnPageRe = regexp.MustCompile(`/profile/([1-9A-HJ-NP-Za-km-z]{32,44})`)

// ProfileWallet загружает страницу профиля и извлекает адрес кошелька.
// Используется, когда ссылка профиля ведет на слаг имени, а не на адрес.
func (c *Client) ProfileWallet(ctx context.Context, profileURL string) (string, error) {
	// Быстрый путь: адрес уже в завершающем сегменте URL.
	if wallet := domain.WalletFromProfileURL(profileURL); wallet != "" {
		return wallet, nil
	}

	body, err := c.Get(ctx, profileURL)
	if err != nil {
		return "", fmt.Errorf("profile page fetch failed: %w", err)
	}
	if m := walletOnPageRe.FindSubmatch(body); len(m) > 1 {
		return string(m[1]), nil
	}
	return "", nil
}
