package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/domain"
)

func targetsForServer(t *testing.T, srv *httptest.Server) *Targets {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return NewTargets(port)
}

func TestMatchCoinTab(t *testing.T) {
	pageURL := "https://pump.fun/coin/MINT123"
	tabs := []domain.CdpTarget{
		{Type: "background_page", URL: pageURL, WebSocketDebuggerURL: "ws://x/1"},
		{Type: "page", URL: "https://pump.fun/board", WebSocketDebuggerURL: "ws://x/2"},
		{Type: "page", URL: pageURL}, // без отладочного адреса
		{Type: "page", URL: pageURL, WebSocketDebuggerURL: "ws://x/3"},
	}

	t.Run("Выбирается вкладка page с отладочным адресом", func(t *testing.T) {
		tab, ok := matchCoinTab(tabs, pageURL)
		require.True(t, ok)
		assert.Equal(t, "ws://x/3", tab.WebSocketDebuggerURL)
	})

	t.Run("Совпадение по минту в адресе вкладки", func(t *testing.T) {
		byMint := []domain.CdpTarget{
			{Type: "page", URL: "https://pump.fun/coin/MINT123?tab=chat", WebSocketDebuggerURL: "ws://x/4"},
		}
		tab, ok := matchCoinTab(byMint, pageURL)
		require.True(t, ok)
		assert.Equal(t, "ws://x/4", tab.WebSocketDebuggerURL)
	})

	t.Run("Нет подходящей вкладки", func(t *testing.T) {
		_, ok := matchCoinTab(tabs[:3], "https://pump.fun/coin/OTHER")
		assert.False(t, ok)
	})
}

func TestFindCoinTab(t *testing.T) {
	pageURL := "https://pump.fun/coin/MINT123"

	t.Run("Существующая вкладка возвращается", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/json/list", r.URL.Path)
			_ = json.NewEncoder(w).Encode([]domain.CdpTarget{
				{Type: "page", URL: pageURL, WebSocketDebuggerURL: "ws://x/1"},
			})
		}))
		defer srv.Close()

		tab, err := targetsForServer(t, srv).FindCoinTab(context.Background(), pageURL, false)
		require.NoError(t, err)
		assert.Equal(t, "ws://x/1", tab.WebSocketDebuggerURL)
	})

	t.Run("Без вкладки и без openTab возвращается ErrNoTarget с подсказкой", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]domain.CdpTarget{})
		}))
		defer srv.Close()

		_, err := targetsForServer(t, srv).FindCoinTab(context.Background(), pageURL, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoTarget)
		assert.Contains(t, err.Error(), "remote-debugging-port")
	})

	t.Run("openTab открывает вкладку через PUT /json/new", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/json/list":
				_ = json.NewEncoder(w).Encode([]domain.CdpTarget{})
			case "/json/new":
				assert.Equal(t, http.MethodPut, r.Method)
				_ = json.NewEncoder(w).Encode(domain.CdpTarget{
					Type: "page", URL: pageURL, WebSocketDebuggerURL: "ws://x/new",
				})
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		tab, err := targetsForServer(t, srv).FindCoinTab(context.Background(), pageURL, true)
		require.NoError(t, err)
		assert.Equal(t, "ws://x/new", tab.WebSocketDebuggerURL)
	})

	t.Run("Ошибка статуса отражается в List", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := targetsForServer(t, srv).List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}
