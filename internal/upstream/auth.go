package upstream

import (
	"net/http"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials — авторизационные данные зрителя для запросов к апстриму.
// Cookie и JWT опциональны: без них запросы уходят анонимно.
type Credentials struct {
	Cookie   string
	JWT      string
	Username string
}

var authTokenRe = regexp.MustCompile(`(?:^|;\s*)auth_token=([^;]+)`)

// ExtractJWT возвращает токен: явный имеет приоритет,
// иначе токен извлекается из cookie auth_token.
func ExtractJWT(rawCookie, explicit string) string {
	if explicit != "" {
		return explicit
	}
	m := authTokenRe.FindStringSubmatch(rawCookie)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

// Headers строит заголовки, с которыми апстрим принимает нас за браузер
// авторизованного пользователя. Порядок полей повторяет то, что отправляет
// фронтенд самого сайта.
func (c Credentials) Headers(userAgent, origin string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Origin", origin)
	h.Set("Referer", origin+"/")
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
	if token := ExtractJWT(c.Cookie, c.JWT); token != "" {
		h.Set("Authorization", "Bearer "+token)
		h.Set("auth-token", token)
	}
	return h
}

// Viewer описывает личность зрителя, восстановленную из JWT.
type Viewer struct {
	Address  string
	Username string
}

// ViewerFromJWT разбирает клеймы токена без проверки подписи: подпись
// принадлежит апстриму, нам нужны только адрес и имя для отображения.
func ViewerFromJWT(token string) (Viewer, bool) {
	if token == "" {
		return Viewer{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Viewer{}, false
	}
	v := Viewer{}
	for _, key := range []string{"address", "wallet", "sub"} {
		if s, ok := claims[key].(string); ok && s != "" {
			v.Address = s
			break
		}
	}
	if s, ok := claims["username"].(string); ok {
		v.Username = s
	}
	return v, v.Address != "" || v.Username != ""
}
