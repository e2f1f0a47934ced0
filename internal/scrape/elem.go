// Package scrape реализует эвристику выбора чат-контейнера и извлечение
// сообщений из него. Подсчет очков изолирован за абстракцией Elem, чтобы
// одни и те же веса обслуживали и серверный разбор HTML, и DOM живого
// браузера (см. internal/browser/script.go — то же самое, выраженное на JS).
package scrape

import "strings"

// Elem — минимальная абстракция элемента документа.
// Реализации должны быть сравнимыми (==), чтобы служить ключами мап.
type Elem interface {
	// Tag возвращает имя тега в нижнем регистре.
	Tag() string
	// Attr возвращает значение атрибута или пустую строку.
	Attr(name string) string
	// Text возвращает сцепленный текст всех текстовых потомков.
	Text() string
	// Parent возвращает родительский элемент или nil.
	Parent() Elem
	// Children возвращает дочерние элементы (без текстовых узлов).
	Children() []Elem
}

// walkDepthFirst обходит поддерево в порядке документа.
func walkDepthFirst(el Elem, fn func(Elem)) {
	fn(el)
	for _, child := range el.Children() {
		walkDepthFirst(child, fn)
	}
}

// hasClassSubstring проверяет, содержит ли атрибут class подстроку.
func hasClassSubstring(el Elem, sub string) bool {
	return strings.Contains(strings.ToLower(el.Attr("class")), sub)
}
