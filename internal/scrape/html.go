package scrape

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// htmlElem адаптирует *html.Node к абстракции Elem.
// Тип сравним (указатель внутри), поэтому годится в ключи мап.
type htmlElem struct {
	n *html.Node
}

// Parse разбирает HTML-документ и возвращает его корневой элемент.
func Parse(r io.Reader) (Elem, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return htmlElem{n: doc}, nil
}

// ParseBytes разбирает HTML из байтового среза.
func ParseBytes(data []byte) (Elem, error) {
	return Parse(bytes.NewReader(data))
}

func (e htmlElem) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(e.n.Data)
}

func (e htmlElem) Attr(name string) string {
	for _, attr := range e.n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val
		}
	}
	return ""
}

func (e htmlElem) Text() string {
	var sb strings.Builder
	appendText(e.n, &sb)
	return sb.String()
}

// appendText собирает текстовые узлы; после блочных элементов добавляется
// перевод строки, чтобы построчный фолбэк экстрактора видел границы строк.
func appendText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(c, sb)
	}
	if n.Type == html.ElementNode && isBlockTag(strings.ToLower(n.Data)) {
		sb.WriteString("\n")
	}
}

func isBlockTag(tag string) bool {
	switch tag {
	case "div", "p", "li", "br", "section", "article", "ul", "ol", "tr":
		return true
	}
	return false
}

func (e htmlElem) Parent() Elem {
	p := e.n.Parent
	for p != nil && p.Type != html.ElementNode {
		p = p.Parent
	}
	if p == nil {
		return nil
	}
	return htmlElem{n: p}
}

func (e htmlElem) Children() []Elem {
	var children []Elem
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, htmlElem{n: c})
		}
	}
	return children
}

// RenderFragment сериализует элемент обратно в HTML. Используется
// эндпоинтом /chat-fragment для отладки найденного контейнера.
func RenderFragment(el Elem) (string, error) {
	he, ok := el.(htmlElem)
	if !ok {
		return "", fmt.Errorf("element is not backed by an html node")
	}
	var sb strings.Builder
	if err := html.Render(&sb, he.n); err != nil {
		return "", fmt.Errorf("failed to render fragment: %w", err)
	}
	return sb.String(), nil
}
