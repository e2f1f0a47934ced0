package scrape

import "strings"

// Константы эвристики. Веса подобраны по наблюдаемой разметке апстрима;
// менять их можно только вместе с script.go.
const (
	// ProfilePathMarker — фрагмент href, отличающий ссылку на профиль.
	ProfilePathMarker = "/profile/"
	// MaxAncestorDepth ограничивает подъем по предкам от якоря или композера.
	MaxAncestorDepth = 8
	// secondaryPanelMarker — класс запасной панели, последний фолбэк.
	secondaryPanelMarker = "side-panel"

	// Веса композерного кандидата. Скрипт живого DOM встраивает эти же
	// значения, поэтому обе ветви эвристики считают одинаково.
	SendButtonScore  = 5
	ChatWordScore    = 3
	TradeWordPenalty = 1
)

// panelClassMarkers — маркеры классов, намекающие на самостоятельную панель;
// подъем по предкам останавливается, как только такой предок найден.
var panelClassMarkers = []string{"rounded", "overflow-", "shadow"}

// isProfileAnchor сообщает, является ли элемент ссылкой на профиль.
func isProfileAnchor(el Elem) bool {
	return el.Tag() == "a" && strings.Contains(el.Attr("href"), ProfilePathMarker)
}

// isComposer сообщает, похож ли элемент на поле ввода сообщения.
func isComposer(el Elem) bool {
	switch el.Tag() {
	case "textarea":
		return true
	case "input":
		t := strings.ToLower(el.Attr("type"))
		return t == "" || t == "text"
	}
	return strings.ToLower(el.Attr("contenteditable")) == "true"
}

// isPanelLike проверяет маркеры самостоятельной панели в классе элемента.
func isPanelLike(el Elem) bool {
	class := strings.ToLower(el.Attr("class"))
	for _, marker := range panelClassMarkers {
		if strings.Contains(class, marker) {
			return true
		}
	}
	return false
}

// collectProfileAnchors возвращает все якоря профилей в порядке документа.
func collectProfileAnchors(root Elem) []Elem {
	var anchors []Elem
	walkDepthFirst(root, func(el Elem) {
		if isProfileAnchor(el) {
			anchors = append(anchors, el)
		}
	})
	return anchors
}

// collectComposers возвращает все композероподобные элементы в порядке документа.
func collectComposers(root Elem) []Elem {
	var composers []Elem
	walkDepthFirst(root, func(el Elem) {
		if isComposer(el) {
			composers = append(composers, el)
		}
	})
	return composers
}

// countProfileAnchors считает якоря профилей среди потомков элемента.
func countProfileAnchors(el Elem) int {
	count := 0
	walkDepthFirst(el, func(e Elem) {
		if isProfileAnchor(e) {
			count++
		}
	})
	return count
}

// hasSendButton ищет среди потомков кнопку отправки: submit-кнопку либо
// кнопку со словом "send" в тексте или aria-label.
func hasSendButton(el Elem) bool {
	found := false
	walkDepthFirst(el, func(e Elem) {
		if found || e.Tag() != "button" {
			return
		}
		if strings.ToLower(e.Attr("type")) == "submit" {
			found = true
			return
		}
		label := strings.ToLower(e.Text() + " " + e.Attr("aria-label"))
		if strings.Contains(label, "send") {
			found = true
		}
	})
	return found
}

// countTradeWords считает вхождения лексики трейд-тикера в тексте элемента.
// Каждое "Buy"/"Sell" — отрицательный сигнал: панель сделок, а не чат.
func countTradeWords(el Elem) int {
	text := el.Text()
	return strings.Count(text, "Buy") + strings.Count(text, "Sell")
}

// containsChatWord проверяет слово "chat" в классе или тексте элемента.
func containsChatWord(el Elem) bool {
	if hasClassSubstring(el, "chat") {
		return true
	}
	return strings.Contains(strings.ToLower(el.Text()), "chat")
}

// scoredCandidate — кандидат в контейнеры вместе с его очками.
type scoredCandidate struct {
	el    Elem
	score int
}

// bestAnchorCandidate выбирает лучшего кандидата среди предков якорей профилей.
// Очки предка равны числу якорей профилей среди его потомков; подъем
// останавливается на предке с классом самостоятельной панели.
func bestAnchorCandidate(anchors []Elem) scoredCandidate {
	scores := make(map[Elem]int)
	var order []Elem

	for _, anchor := range anchors {
		ancestor := anchor.Parent()
		for depth := 0; depth < MaxAncestorDepth && ancestor != nil; depth++ {
			if _, seen := scores[ancestor]; !seen {
				scores[ancestor] = countProfileAnchors(ancestor)
				order = append(order, ancestor)
			}
			if isPanelLike(ancestor) {
				break
			}
			ancestor = ancestor.Parent()
		}
	}

	best := scoredCandidate{}
	for _, el := range order {
		// Строго больше: при равенстве очков остается первый встреченный.
		if best.el == nil || scores[el] > best.score {
			best = scoredCandidate{el: el, score: scores[el]}
		}
	}
	return best
}

// bestComposerCandidate выбирает лучшего кандидата среди предков композеров.
// Кнопка отправки и слово "chat" — положительные сигналы, лексика
// трейд-тикера — отрицательный.
func bestComposerCandidate(composers []Elem) scoredCandidate {
	scores := make(map[Elem]int)
	var order []Elem

	for _, composer := range composers {
		ancestor := composer.Parent()
		for depth := 0; depth < MaxAncestorDepth && ancestor != nil; depth++ {
			if _, seen := scores[ancestor]; !seen {
				score := 0
				if hasSendButton(ancestor) {
					score += SendButtonScore
				}
				if containsChatWord(ancestor) {
					score += ChatWordScore
				}
				score -= TradeWordPenalty * countTradeWords(ancestor)
				scores[ancestor] = score
				order = append(order, ancestor)
			}
			if isPanelLike(ancestor) {
				break
			}
			ancestor = ancestor.Parent()
		}
	}

	best := scoredCandidate{}
	for _, el := range order {
		if best.el == nil || scores[el] > best.score {
			best = scoredCandidate{el: el, score: scores[el]}
		}
	}
	return best
}

// FindChatContainer возвращает наиболее вероятный контейнер чата или nil,
// если ничего не подошло. nil — не ошибка: для опрашивающего вызывающего
// это "в этом опросе фича недоступна".
//
// При preferChat кандидат от композера побеждает всегда, когда найден:
// наличие поля ввода — более сильный сигнал чата, чем плотность ссылок.
func FindChatContainer(root Elem, preferChat bool) Elem {
	anchorBest := bestAnchorCandidate(collectProfileAnchors(root))
	composerBest := bestComposerCandidate(collectComposers(root))

	if preferChat && composerBest.el != nil {
		return composerBest.el
	}

	switch {
	case anchorBest.el != nil && composerBest.el != nil:
		// При равенстве очков остается кандидат первого метода.
		if composerBest.score > anchorBest.score {
			return composerBest.el
		}
		return anchorBest.el
	case anchorBest.el != nil:
		return anchorBest.el
	case composerBest.el != nil:
		return composerBest.el
	}

	// Фолбэки: первый элемент с композером внутри, затем первый элемент
	// с маркером запасной панели в классе.
	var withComposer, withMarker Elem
	walkDepthFirst(root, func(el Elem) {
		if withComposer == nil && isComposer(el) {
			withComposer = el.Parent()
		}
		if withMarker == nil && hasClassSubstring(el, secondaryPanelMarker) {
			withMarker = el
		}
	})
	if withComposer != nil {
		return withComposer
	}
	return withMarker
}
