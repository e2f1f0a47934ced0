// Package browser подключается к уже запущенному браузеру пользователя
// через протокол DevTools: выполняет скрипты на странице монеты и
// перехватывает кадры чат-сокета, открытого самим браузером.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pumpfun-chat-relay/internal/domain"
)

// ErrNoTarget — в браузере нет вкладки с нужной страницей монеты.
var ErrNoTarget = errors.New("no browser tab with the coin page open")

// NoTargetHint — подсказка оператору: как запустить браузер с отладочным портом.
const NoTargetHint = "start the browser with --remote-debugging-port and open the coin page, or pass openTab=1"

// Targets находит отлаживаемые вкладки через HTTP-эндпоинты DevTools.
type Targets struct {
	host string
	http *http.Client
}

// NewTargets создает поиск вкладок на локальном отладочном порту.
func NewTargets(port int) *Targets {
	return &Targets{
		host: fmt.Sprintf("http://127.0.0.1:%d", port),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// List возвращает все вкладки браузера через GET /json/list.
func (t *Targets) List(ctx context.Context) ([]domain.CdpTarget, error) {
	var targets []domain.CdpTarget
	if err := t.getJSON(ctx, "/json/list", &targets); err != nil {
		return nil, fmt.Errorf("list browser targets: %w", err)
	}
	return targets, nil
}

// FindCoinTab ищет вкладку со страницей нужной монеты. При openTab и
// отсутствии вкладки открывает новую через /json/new и ждет загрузки.
func (t *Targets) FindCoinTab(ctx context.Context, pageURL string, openTab bool) (domain.CdpTarget, error) {
	targets, err := t.List(ctx)
	if err != nil {
		return domain.CdpTarget{}, err
	}
	if tab, ok := matchCoinTab(targets, pageURL); ok {
		return tab, nil
	}
	if !openTab {
		return domain.CdpTarget{}, fmt.Errorf("%w: %s", ErrNoTarget, NoTargetHint)
	}

	var tab domain.CdpTarget
	if err := t.getJSON(ctx, "/json/new?"+url.QueryEscape(pageURL), &tab); err != nil {
		return domain.CdpTarget{}, fmt.Errorf("open tab: %w", err)
	}
	if tab.WebSocketDebuggerURL == "" {
		return domain.CdpTarget{}, fmt.Errorf("%w: opened tab has no debugger url", ErrNoTarget)
	}
	// Странице нужно время на первичный рендер.
	select {
	case <-ctx.Done():
		return domain.CdpTarget{}, ctx.Err()
	case <-time.After(2 * time.Second):
	}
	return tab, nil
}

// matchCoinTab выбирает вкладку типа page, чей адрес содержит адрес
// страницы монеты либо ее минт.
func matchCoinTab(targets []domain.CdpTarget, pageURL string) (domain.CdpTarget, bool) {
	mint := pageURL
	if idx := strings.LastIndex(pageURL, "/"); idx >= 0 {
		mint = pageURL[idx+1:]
	}
	for _, tab := range targets {
		if tab.Type != "" && tab.Type != "page" {
			continue
		}
		if tab.WebSocketDebuggerURL == "" {
			continue
		}
		if strings.Contains(tab.URL, pageURL) || (mint != "" && strings.Contains(tab.URL, mint)) {
			return tab, true
		}
	}
	return domain.CdpTarget{}, false
}

func (t *Targets) getJSON(ctx context.Context, path string, out any) error {
	// Эндпоинт /json/new требует PUT в новых версиях Chrome, GET оставлен
	// для совместимости со старыми; пробуем PUT первым.
	method := http.MethodGet
	if strings.HasPrefix(path, "/json/new") {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, t.host+path, nil)
	if err != nil {
		return err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("devtools %s: status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}
