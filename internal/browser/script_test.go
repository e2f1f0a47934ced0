package browser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pumpfun-chat-relay/internal/scrape"
)

func TestChatScrapeScript(t *testing.T) {
	t.Run("Скрипт встраивает веса серверной эвристики", func(t *testing.T) {
		script := ChatScrapeScript(true, 25)
		assert.Contains(t, script, fmt.Sprintf("const MAX_DEPTH = %d;", scrape.MaxAncestorDepth))
		assert.Contains(t, script, fmt.Sprintf("const SEND_SCORE = %d;", scrape.SendButtonScore))
		assert.Contains(t, script, fmt.Sprintf("const CHAT_SCORE = %d;", scrape.ChatWordScore))
		assert.Contains(t, script, fmt.Sprintf("const TRADE_PENALTY = %d;", scrape.TradeWordPenalty))
		assert.Contains(t, script, "const preferChat = true;")
		assert.Contains(t, script, "const maxMessages = 25;")
	})

	t.Run("Очки композера не зависят от числа якорей", func(t *testing.T) {
		script := ChatScrapeScript(false, 10)
		assert.NotContains(t, script, "%d", "все параметры должны быть подставлены")
		assert.Contains(t, script, "if (hasSendButton(el)) score += SEND_SCORE;")
		assert.Contains(t, script, "let score = 0;")
	})
}
