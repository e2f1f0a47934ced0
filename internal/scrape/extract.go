package scrape

import (
	"strings"

	"pumpfun-chat-relay/internal/domain"
)

// DefaultMaxMessages — предел сообщений, когда вызывающая сторона не задала свой.
const DefaultMaxMessages = 50

// ExtractMessages извлекает упорядоченный список сообщений из контейнера чата.
// Якоря обычно идут в порядке "старые выше", поэтому после дедупликации
// остаются последние max записей — смещение в сторону свежих сообщений.
func ExtractMessages(container Elem, baseURL string, max int) []domain.ChatMessage {
	if max <= 0 {
		max = DefaultMaxMessages
	}

	anchors := collectProfileAnchors(container)
	if len(anchors) == 0 {
		// Деградация: разметка уехала или чат анонимный. Это рабочий режим,
		// а не ошибка — отдаем непустые строки сырого текста без имен.
		return linesFallback(container, max)
	}

	out := []domain.ChatMessage{}
	seen := make(map[string]struct{})

	for _, anchor := range anchors {
		username := strings.TrimSpace(anchor.Text())
		profileURL := absoluteURL(baseURL, anchor.Attr("href"))

		msg := domain.ChatMessage{
			Username:      username,
			ProfileURL:    profileURL,
			WalletAddress: domain.WalletFromProfileURL(profileURL),
			Message:       domain.CapMessage(messageText(anchor, username)),
		}
		if !msg.Valid() {
			continue
		}

		key := profileURL + "|" + username + "|" + msg.Message
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, msg)
	}

	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// messageText находит текст сообщения для якоря: от ближайшего блочного
// предка собираются листовые текстовые кандидаты, из каждого вычитается имя
// пользователя, побеждает самый длинный непустой. Правило "самый длинный"
// настроено по живым страницам — не «чинить».
func messageText(anchor Elem, username string) string {
	block := nearestBlock(anchor)
	if block == nil {
		return ""
	}

	best := ""
	walkDepthFirst(block, func(el Elem) {
		if !isLeafTextNode(el) {
			return
		}
		candidate := stripUsername(el.Text(), username)
		if len(candidate) > len(best) {
			best = candidate
		}
	})
	if best != "" {
		return best
	}
	// Кандидатов нет — полный текст блока без имени пользователя.
	return stripUsername(block.Text(), username)
}

// nearestBlock поднимается от якоря до первого блочного предка.
func nearestBlock(el Elem) Elem {
	ancestor := el.Parent()
	for depth := 0; depth < MaxAncestorDepth && ancestor != nil; depth++ {
		switch ancestor.Tag() {
		case "div", "li", "article", "section":
			return ancestor
		}
		ancestor = ancestor.Parent()
	}
	return el.Parent()
}

// isLeafTextNode определяет листовой текстовый элемент: p/span/div-подобный
// узел без элементных детей.
func isLeafTextNode(el Elem) bool {
	switch el.Tag() {
	case "p", "span", "div", "li":
	default:
		return false
	}
	return len(el.Children()) == 0
}

// stripUsername убирает имя пользователя из кандидата текста.
func stripUsername(text, username string) string {
	if username != "" {
		text = strings.ReplaceAll(text, username, "")
	}
	return strings.TrimSpace(text)
}

// absoluteURL нормализует href до абсолютного URL относительно апстрима.
func absoluteURL(baseURL, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(baseURL, "/") + href
	default:
		return strings.TrimRight(baseURL, "/") + "/" + href
	}
}

// linesFallback отдает каждую непустую строку сырого текста контейнера как
// сообщение без имени и кошелька.
func linesFallback(container Elem, max int) []domain.ChatMessage {
	out := []domain.ChatMessage{}
	for _, line := range strings.Split(container.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, domain.ChatMessage{Message: domain.CapMessage(line)})
	}
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
