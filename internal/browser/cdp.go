package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

// cdpRequest — исходящая команда протокола DevTools.
type cdpRequest struct {
	ID     int64          `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// cdpMessage — входящее сообщение: ответ на команду (id) либо событие (method).
type cdpMessage struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *cdpError       `json:"error,omitempty"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Conn — соединение с одной вкладкой браузера по протоколу DevTools.
// Ответы коррелируются по id команды, события раздаются подписчику.
type Conn struct {
	ws  *websocket.Conn
	log *slog.Logger

	msgID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan cdpMessage

	events chan cdpMessage

	cancel  context.CancelFunc
	done    chan struct{}
	readErr error
}

// DialTab подключается к отладочному сокету вкладки.
func DialTab(ctx context.Context, debuggerURL string, log *slog.Logger) (*Conn, error) {
	if log == nil {
		log = slog.Default()
	}
	ws, _, err := websocket.Dial(ctx, debuggerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools socket: %w", err)
	}
	ws.SetReadLimit(16 << 20)

	c := &Conn{
		ws:      ws,
		log:     log,
		pending: make(map[int64]chan cdpMessage),
		events:  make(chan cdpMessage, 256),
		done:    make(chan struct{}),
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(readCtx)
	return c, nil
}

// Close завершает соединение с вкладкой. Сам браузер продолжает работать.
func (c *Conn) Close() error {
	c.cancel()
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// call отправляет команду и ждет ответ с тем же id.
func (c *Conn) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	id := c.msgID.Add(1)
	ch := make(chan cdpMessage, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	data, err := json.Marshal(cdpRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return nil, fmt.Errorf("%s: %s (code %d)", method, msg.Error.Message, msg.Error.Code)
		}
		return msg.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return nil, fmt.Errorf("%s: devtools connection closed: %w", method, c.readErr)
	}
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.events)
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			c.readErr = err
			close(c.done)
			return
		}
		var msg cdpMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("malformed devtools message", "error", err)
			continue
		}
		if msg.ID != 0 {
			c.mu.Lock()
			ch := c.pending[msg.ID]
			c.mu.Unlock()
			if ch != nil {
				ch <- msg
			}
			continue
		}
		select {
		case c.events <- msg:
		default:
			c.log.Warn("devtools event buffer full, dropping", "method", msg.Method)
		}
	}
}

// evalResult — результат Runtime.evaluate.
type evalResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

// Evaluate выполняет выражение на странице и возвращает его JSON-значение.
// Выражение может вернуть промис: awaitPromise дожидается его разрешения.
func (c *Conn) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	if _, err := c.call(ctx, "Runtime.enable", nil); err != nil {
		return nil, err
	}
	if _, err := c.call(ctx, "Page.enable", nil); err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
		"awaitPromise":  true,
	})
	if err != nil {
		return nil, err
	}
	var res evalResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode evaluate result: %w", err)
	}
	if res.ExceptionDetails != nil {
		desc := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil && res.ExceptionDetails.Exception.Description != "" {
			desc = res.ExceptionDetails.Exception.Description
		}
		return nil, fmt.Errorf("page script failed: %s", firstLine(desc))
	}
	return res.Result.Value, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
