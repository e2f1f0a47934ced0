package integration

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/chat"
	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/server"
	"pumpfun-chat-relay/internal/server/usecase"
	"pumpfun-chat-relay/internal/upstream"
)

// chatSocketStub поднимает socket.io-сервер чата: рукопожатие, ack-и на
// joinRoom и getMessageHistory, затем живые события newMessage.
func chatSocketStub(t *testing.T, live []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		if err := conn.Write(ctx, websocket.MessageText, []byte(`0{"sid":"e2e","pingInterval":25000,"pingTimeout":20000}`)); err != nil {
			return
		}
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(`40{"sid":"e2e"}`)); err != nil {
			return
		}

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			ev, ok := chat.ParseEventFrame(string(data))
			if !ok || ev.AckID == chat.NoAck {
				continue
			}
			var ack string
			switch ev.Name {
			case "joinRoom":
				ack = fmt.Sprintf(`43%d[{"authenticated":true}]`, ev.AckID)
			case "getMessageHistory":
				ack = fmt.Sprintf(`43%d[{"messages":[
					{"id":"1","username":"alice","message":"gm"},
					{"id":"2","username":"bob","message":"wen"},
					{"id":"3","username":"carol","message":"lfg"}
				]}]`, ev.AckID)
			default:
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(ack)); err != nil {
				return
			}
			// После входа в комнату комната начинает жить.
			if ev.Name == "joinRoom" {
				for _, frame := range live {
					if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
						return
					}
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// upstreamStub поднимает HTTP-апстрим: страница монеты и REST API.
func upstreamStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/coin/"):
			_, _ = w.Write([]byte(`<html><body><div id="chat" class="rounded overflow-y-auto">
				<div><a href="/profile/alice">alice</a><p>page message</p></div>
			</div></body></html>`))
		case strings.HasPrefix(r.URL.Path, "/api/coins/"):
			_, _ = w.Write([]byte(`{"mint":"MINT","name":"Test Coin","symbol":"TST"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startRelay(t *testing.T, upstreamURL, chatURL string) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Upstream: config.Upstream{
			BaseURL:               upstreamURL,
			APIURL:                upstreamURL + "/api",
			ChatURL:               chatURL,
			RequestTimeoutSeconds: 5,
		},
		Chat: config.Chat{
			DefaultMax:           50,
			SocketTimeoutSeconds: 3,
			ProfileConcurrency:   2,
		},
	}
	up := upstream.NewClient(cfg.Upstream)
	scraper := usecase.NewScrapeChatUseCase(cfg, up, up, nil)
	srv, err := server.New(cfg, nil, scraper, up, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.HTTPServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestSocketScrapeEndToEnd(t *testing.T) {
	upSrv := upstreamStub(t)
	chatSrv := chatSocketStub(t, nil)
	relay := startRelay(t, upSrv.URL, chatSrv.URL)

	resp, err := http.Get(relay.URL + "/chat-scrape?mint=MINT&mode=socket&walletSource=none")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK            bool   `json:"ok"`
		RoomID        string `json:"roomId"`
		Authenticated bool   `json:"authenticated"`
		MessageCount  int    `json:"messageCount"`
		Messages      []struct {
			Username string `json:"username"`
			Message  string `json:"message"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.OK)
	assert.True(t, body.Authenticated)
	assert.Equal(t, "MINT", body.RoomID)
	require.Equal(t, 3, body.MessageCount)
	assert.Equal(t, "alice", body.Messages[0].Username)
	assert.Equal(t, "lfg", body.Messages[2].Message)
}

func TestChatSSEEndToEnd(t *testing.T) {
	upSrv := upstreamStub(t)
	chatSrv := chatSocketStub(t, []string{
		`42["userJoined",{"username":"eve"}]`,
		`42["newMessage",{"id":"live-1","username":"dave","message":"just aped in"}]`,
	})
	relay := startRelay(t, upSrv.URL, chatSrv.URL)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(relay.URL + "/chat-sse?room=MINT")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Читаем поток до первого живого сообщения, накапливая стенограмму.
	scanner := bufio.NewScanner(resp.Body)
	deadline := time.After(8 * time.Second)
	got := make(chan string, 1)
	go func() {
		var transcript strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			transcript.WriteString(line)
			transcript.WriteString("\n")
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, "just aped in") {
				got <- transcript.String()
				return
			}
		}
	}()

	select {
	case transcript := <-got:
		// Поток открывается ready, затем вход, бэклог и живые события.
		assert.Contains(t, transcript, "event: ready")
		assert.Contains(t, transcript, `"candidates"`)
		assert.Contains(t, transcript, "event: joined")
		assert.Contains(t, transcript, `"authenticated":true`)
		assert.Contains(t, transcript, "event: history")
		assert.Contains(t, transcript, `"gm"`)
		// Неизвестное событие протокола проходит catch-all типом event.
		assert.Contains(t, transcript, "event: event")
		assert.Contains(t, transcript, "userJoined")
		assert.Contains(t, transcript, "dave")
		assert.Contains(t, transcript, `"roomId":"MINT"`)
	case <-deadline:
		t.Fatal("живое сообщение так и не пришло в SSE-поток")
	}
}

func TestHTMLScrapeEndToEnd(t *testing.T) {
	upSrv := upstreamStub(t)
	chatSrv := chatSocketStub(t, nil)
	relay := startRelay(t, upSrv.URL, chatSrv.URL)

	resp, err := http.Get(relay.URL + "/chat-scrape?mint=MINT&mode=html&walletSource=none")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["messageCount"])
}
