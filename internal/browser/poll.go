package browser

import (
	"context"
	"time"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/config"
)

// PollOptions — параметры повторного опроса страницы.
type PollOptions struct {
	// Interval — пауза между попытками.
	Interval time.Duration
	// Count — максимум попыток.
	Count int
}

// normalize подставляет значения по умолчанию.
func (o *PollOptions) normalize() {
	if o.Interval <= 0 {
		o.Interval = time.Duration(config.DefaultPollMs) * time.Millisecond
	}
	if o.Count <= 0 {
		o.Count = config.DefaultPollCount
	}
}

// PollMessages повторяет fetch до первого непустого результата либо до
// исчерпания попыток. SPA дорисовывает чат после загрузки, поэтому первая
// попытка часто пуста. Последняя ошибка возвращается только если непустого
// результата так и не было.
func PollMessages(ctx context.Context, opts PollOptions, fetch func(context.Context) ([]domain.ChatMessage, error)) ([]domain.ChatMessage, error) {
	opts.normalize()

	var lastErr error
	for attempt := 0; attempt < opts.Count; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Interval):
			}
		}
		msgs, err := fetch(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return []domain.ChatMessage{}, nil
}
