package scrape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-chat-relay/internal/domain"
)

const testBaseURL = "https://pump.fun"

func chatListHTML(blocks int) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="list">`)
	for i := 0; i < blocks; i++ {
		fmt.Fprintf(&sb, `<div><a href="/profile/user%d">user%d</a><p>message number %d</p></div>`, i, i, i)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

func TestExtractMessages(t *testing.T) {
	t.Run("Не больше min(K, max) сообщений с инвариантом валидности", func(t *testing.T) {
		root := mustParse(t, chatListHTML(7))
		container := findByID(root, "list")
		require.NotNil(t, container)

		msgs := ExtractMessages(container, testBaseURL, 5)
		assert.Len(t, msgs, 5)
		for _, m := range msgs {
			assert.True(t, m.Valid(), "каждое сообщение должно быть валидным")
		}
		// Остаются последние записи: смещение в сторону свежих сообщений.
		assert.Equal(t, "user6", msgs[len(msgs)-1].Username)
	})

	t.Run("Извлечение имени, ссылки и текста", func(t *testing.T) {
		root := mustParse(t, `<html><body><div id="list">
			<div><a href="/profile/4Nd1mYQFsCq4d2j9PzqnRGV2JfzEvDJ7xSMCvZ511111">alice</a><p>hello world</p></div>
		</div></body></html>`)
		container := findByID(root, "list")

		msgs := ExtractMessages(container, testBaseURL, 10)
		require.Len(t, msgs, 1)
		assert.Equal(t, "alice", msgs[0].Username)
		assert.Equal(t, testBaseURL+"/profile/4Nd1mYQFsCq4d2j9PzqnRGV2JfzEvDJ7xSMCvZ511111", msgs[0].ProfileURL)
		assert.Equal(t, "4Nd1mYQFsCq4d2j9PzqnRGV2JfzEvDJ7xSMCvZ511111", msgs[0].WalletAddress)
		assert.Equal(t, "hello world", msgs[0].Message)
	})

	t.Run("Дедупликация идемпотентна", func(t *testing.T) {
		dup := `<div><a href="/profile/u1">alice</a><p>same text</p></div>`
		root := mustParse(t, `<html><body><div id="list">`+dup+dup+dup+`</div></body></html>`)
		container := findByID(root, "list")

		first := ExtractMessages(container, testBaseURL, 10)
		second := ExtractMessages(container, testBaseURL, 10)
		assert.Len(t, first, 1)
		assert.Equal(t, len(first), len(second), "повторный прогон не меняет счет")
	})

	t.Run("Текст никогда не длиннее 500 символов", func(t *testing.T) {
		long := strings.Repeat("x", domain.MaxMessageLen+200)
		root := mustParse(t, `<html><body><div id="list">
			<div><a href="/profile/u1">alice</a><p>`+long+`</p></div>
		</div></body></html>`)
		container := findByID(root, "list")

		msgs := ExtractMessages(container, testBaseURL, 10)
		require.Len(t, msgs, 1)
		assert.LessOrEqual(t, len([]rune(msgs[0].Message)), domain.MaxMessageLen)
	})

	t.Run("Без якорей срабатывает построчный фолбэк и результат не nil", func(t *testing.T) {
		root := mustParse(t, `<html><body><div id="list">
			<div>first line</div>
			<div>second line</div>
			<div>   </div>
		</div></body></html>`)
		container := findByID(root, "list")

		msgs := ExtractMessages(container, testBaseURL, 10)
		require.NotNil(t, msgs)
		require.Len(t, msgs, 2)
		assert.Equal(t, "first line", msgs[0].Message)
		assert.Equal(t, "second line", msgs[1].Message)
		assert.Empty(t, msgs[0].Username)
	})

	t.Run("Пустой контейнер дает пустой срез, не nil", func(t *testing.T) {
		root := mustParse(t, `<html><body><div id="list"></div></body></html>`)
		container := findByID(root, "list")

		msgs := ExtractMessages(container, testBaseURL, 10)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("Имя пользователя вычитается из текста сообщения", func(t *testing.T) {
		root := mustParse(t, `<html><body><div id="list">
			<div><a href="/profile/u1">bob</a><span>bob: gm frens</span></div>
		</div></body></html>`)
		container := findByID(root, "list")

		msgs := ExtractMessages(container, testBaseURL, 10)
		require.Len(t, msgs, 1)
		assert.NotContains(t, msgs[0].Message, "bob")
		assert.Contains(t, msgs[0].Message, "gm frens")
	})
}
