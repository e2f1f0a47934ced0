package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustParse разбирает HTML-фрагмент в корневой элемент.
func mustParse(t *testing.T, raw string) Elem {
	t.Helper()
	root, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return root
}

// findByID находит первый элемент с данным id.
func findByID(root Elem, id string) Elem {
	var found Elem
	walkDepthFirst(root, func(el Elem) {
		if found == nil && el.Attr("id") == id {
			found = el
		}
	})
	return found
}

func TestFindChatContainer(t *testing.T) {
	t.Run("Плотность якорей профилей выбирает список сообщений", func(t *testing.T) {
		root := mustParse(t, `<html><body>
			<div id="sidebar"><a href="/about">about</a></div>
			<div id="list">
				<div><a href="/profile/u1">alice</a><p>gm</p></div>
				<div><a href="/profile/u2">bob</a><p>wen moon</p></div>
				<div><a href="/profile/u3">carol</a><p>lfg</p></div>
			</div>
		</body></html>`)

		container := FindChatContainer(root, false)
		require.NotNil(t, container)
		assert.Equal(t, "list", container.Attr("id"))
	})

	t.Run("preferChat выбирает панель с композером вопреки плотности якорей", func(t *testing.T) {
		root := mustParse(t, `<html><body>
			<div class="rounded" id="trades">
				Buy Sell Buy Sell Buy Sell
				<a href="/profile/t1">x</a><a href="/profile/t2">y</a><a href="/profile/t3">z</a>
			</div>
			<div class="rounded" id="chatpanel">
				<div>chat</div>
				<div><textarea></textarea><button type="submit">Send</button></div>
			</div>
		</body></html>`)

		container := FindChatContainer(root, true)
		require.NotNil(t, container)
		assert.Equal(t, "chatpanel", container.Attr("id"))
	})

	t.Run("Лексика трейд-тикера штрафует панель сделок", func(t *testing.T) {
		root := mustParse(t, `<html><body>
			<div class="rounded" id="tradebox">
				Buy Sell Buy Sell Buy Sell Buy Sell
				<input type="text">
			</div>
			<div class="rounded" id="chatbox">
				chat
				<textarea></textarea>
				<button>Send message</button>
			</div>
		</body></html>`)

		composers := collectComposers(root)
		require.Len(t, composers, 2)
		best := bestComposerCandidate(composers)
		require.NotNil(t, best.el)
		assert.Equal(t, "chatbox", best.el.Attr("id"))
	})

	t.Run("При равенстве очков побеждает метод якорей", func(t *testing.T) {
		// У обоих методов по нулю очков быть не может, поэтому выравниваем:
		// один якорь дает счет 1, композер без сигналов — 0.
		root := mustParse(t, `<html><body>
			<div id="withanchor"><a href="/profile/u1">alice</a></div>
			<div id="withcomposer"><textarea></textarea></div>
		</body></html>`)

		container := FindChatContainer(root, false)
		require.NotNil(t, container)
		assert.Equal(t, "withanchor", container.Attr("id"))
	})

	t.Run("Фолбэк на родителя первого композера", func(t *testing.T) {
		// Композер есть, но его предки не набирают очков и не попадают в
		// кандидаты только при полном отсутствии — здесь проверяем сам
		// крайний случай пустого документа с одиноким композером в panel-е.
		root := mustParse(t, `<html><body>
			<div id="bare"><input></div>
		</body></html>`)

		container := FindChatContainer(root, false)
		require.NotNil(t, container)
	})

	t.Run("Фолбэк на запасную панель", func(t *testing.T) {
		root := mustParse(t, `<html><body>
			<span>nothing chatlike here</span>
			<div class="side-panel" id="panel">misc</div>
		</body></html>`)

		// Без якорей и композеров остается только маркер класса.
		container := FindChatContainer(root, false)
		require.NotNil(t, container)
		assert.Equal(t, "panel", container.Attr("id"))
	})

	t.Run("Пустой документ дает nil", func(t *testing.T) {
		root := mustParse(t, `<html><body><p>plain text</p></body></html>`)
		assert.Nil(t, FindChatContainer(root, false))
	})

	t.Run("Подъем останавливается на самостоятельной панели", func(t *testing.T) {
		// Якорь внутри panel-like предка: выше панели подъем не идет,
		// поэтому внешний контейнер от этого якоря не рассматривается.
		root := mustParse(t, `<html><body>
			<div id="outer">
				<div class="shadow" id="inner"><a href="/profile/u1">alice</a></div>
			</div>
		</body></html>`)

		anchors := collectProfileAnchors(root)
		best := bestAnchorCandidate(anchors)
		require.NotNil(t, best.el)
		assert.Equal(t, "inner", best.el.Attr("id"))
	})
}
