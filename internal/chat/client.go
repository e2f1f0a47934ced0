package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

var (
	// ErrConnect — ошибка установления соединения или рукопожатия с чатом.
	ErrConnect = errors.New("chat connect failed")
	// ErrTimeout — апстрим не ответил на запрос за отведенное время.
	// Отличается от ErrConnect: соединение было, ответа не было.
	ErrTimeout = errors.New("chat operation timed out")
)

const socketIOPath = "/socket.io/?EIO=4&transport=websocket"

// Config — параметры подключения к чат-серверу.
type Config struct {
	// URL чат-сервера, например https://livechat.pump.fun.
	URL string
	// Headers — заголовки рукопожатия (cookie, Authorization, Origin).
	Headers http.Header
	// Username отправляется при входе в комнату.
	Username string
	Log      *slog.Logger
}

// Client — соединение с чат-сервером. Ответы на emit с ack коррелируются
// по идентификатору, входящие события складываются в Events().
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger

	nextAck atomic.Int64

	mu   sync.Mutex
	acks map[int64]chan []any

	events chan *EventFrame

	cancel  context.CancelFunc
	readErr error
	done    chan struct{}
}

// Dial подключается к чат-серверу и выполняет рукопожатие engine.io:
// open-пакет, подключение к пространству имен, запуск цикла чтения.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	wsURL := toWebSocketURL(cfg.URL) + socketIOPath
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: cfg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, wsURL, err)
	}
	conn.SetReadLimit(1 << 20)

	c := &Client{
		conn:   conn,
		log:    log,
		acks:   make(map[int64]chan []any),
		events: make(chan *EventFrame, 64),
		done:   make(chan struct{}),
	}

	if err := c.handshake(ctx); err != nil {
		conn.Close(websocket.StatusProtocolError, "handshake")
		return nil, err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.readLoop(readCtx)

	return c, nil
}

// handshake читает open-пакет и подключается к корневому пространству имен.
func (c *Client) handshake(ctx context.Context) error {
	frame, err := c.readText(ctx)
	if err != nil {
		return fmt.Errorf("%w: read open packet: %v", ErrConnect, err)
	}
	if !strings.HasPrefix(frame, frameOpen) {
		return fmt.Errorf("%w: unexpected first frame %q", ErrConnect, trimFrame(frame))
	}
	if err := c.writeText(ctx, frameConnect); err != nil {
		return fmt.Errorf("%w: namespace connect: %v", ErrConnect, err)
	}
	// Ждем подтверждения "40{...}", отвечая на ping, если он придет раньше.
	for {
		frame, err := c.readText(ctx)
		if err != nil {
			return fmt.Errorf("%w: await namespace ack: %v", ErrConnect, err)
		}
		switch {
		case strings.HasPrefix(frame, frameConnect):
			return nil
		case frame == framePing:
			if err := c.writeText(ctx, framePong); err != nil {
				return fmt.Errorf("%w: pong: %v", ErrConnect, err)
			}
		default:
			// События до подтверждения неймспейса протокол не шлет, пропускаем.
		}
	}
}

// Emit отправляет событие с запросом ack и ждет ответ либо истечения ctx.
// Истечение контекста возвращается как ErrTimeout.
func (c *Client) Emit(ctx context.Context, name string, args ...any) ([]any, error) {
	id := c.nextAck.Add(1)
	ch := make(chan []any, 1)

	c.mu.Lock()
	c.acks[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.acks, id)
		c.mu.Unlock()
	}()

	frame, err := EncodeEventFrame(id, name, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	if err := c.writeText(ctx, frame); err != nil {
		return nil, fmt.Errorf("emit %s: %w", name, err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, name, ctx.Err())
	case <-c.done:
		return nil, fmt.Errorf("emit %s: connection closed: %w", name, c.readErr)
	}
}

// EmitNoAck отправляет событие без ожидания подтверждения.
func (c *Client) EmitNoAck(ctx context.Context, name string, args ...any) error {
	frame, err := EncodeEventFrame(NoAck, name, args...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.writeText(ctx, frame)
}

// Events — входящие события сервера. Канал закрывается при разрыве
// соединения; причину возвращает Err.
func (c *Client) Events() <-chan *EventFrame {
	return c.events
}

// Err возвращает ошибку, завершившую цикл чтения.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.readErr
	default:
		return nil
	}
}

// Close завершает соединение.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop читает кадры до разрыва: отвечает на ping, доставляет ack-и
// ожидающим вызовам Emit, остальные события кладет в канал.
func (c *Client) readLoop(ctx context.Context) {
	defer close(c.events)
	for {
		frame, err := c.readText(ctx)
		if err != nil {
			c.readErr = err
			close(c.done)
			return
		}
		switch {
		case frame == framePing:
			if err := c.writeText(ctx, framePong); err != nil {
				c.readErr = err
				close(c.done)
				return
			}
		case strings.HasPrefix(frame, frameAckPfx):
			id, args, ok := ParseAckFrame(frame)
			if !ok {
				c.log.Debug("malformed ack frame", "frame", trimFrame(frame))
				continue
			}
			c.mu.Lock()
			ch := c.acks[id]
			c.mu.Unlock()
			if ch != nil {
				ch <- args
			}
		case strings.HasPrefix(frame, frameEventPfx):
			ev, ok := ParseEventFrame(frame)
			if !ok {
				c.log.Debug("malformed event frame", "frame", trimFrame(frame))
				continue
			}
			select {
			case c.events <- ev:
			default:
				// Потребитель не успевает — событие дешевле потерять,
				// чем остановить чтение и потерять соединение целиком.
				c.log.Warn("event buffer full, dropping", "event", ev.Name)
			}
		}
	}
}

func (c *Client) readText(ctx context.Context) (string, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		return string(data), nil
	}
}

func (c *Client) writeText(ctx context.Context, frame string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(frame))
}

// toWebSocketURL переводит http(s)-адрес в ws(s).
func toWebSocketURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	default:
		return raw
	}
}

// trimFrame ограничивает кадр для лога.
func trimFrame(frame string) string {
	const max = 120
	if len(frame) > max {
		return frame[:max] + "..."
	}
	return frame
}

// withTimeout оборачивает контекст таймаутом операции, если он задан.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
