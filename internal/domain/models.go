package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxMessageLen — максимальная длина текста сообщения.
// Все, что длиннее, обрезается, чтобы ограничить память и нагрузку на оверлей.
const MaxMessageLen = 500

// ChatMessage — каноническая единица вывода всех стратегий извлечения чата.
// Каждая стратегия (socket, html, browser, browser-ws) обязана сходиться к этой форме.
type ChatMessage struct {
	ID            string `json:"id,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	Username      string `json:"username,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	ProfileURL    string `json:"profileUrl,omitempty"`
	Message       string `json:"message,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// Valid сообщает, подлежит ли сообщение выдаче.
// Полностью пустые записи (ни имени, ни текста) отбрасываются.
func (m *ChatMessage) Valid() bool {
	return strings.TrimSpace(m.Username) != "" || strings.TrimSpace(m.Message) != ""
}

// DedupKey возвращает составной ключ дедупликации.
// ID имеет приоритет; без ID используется тройка (profileUrl, username, message).
func (m *ChatMessage) DedupKey() string {
	if m.ID != "" {
		return "id:" + m.ID
	}
	return m.ProfileURL + "|" + m.Username + "|" + m.Message
}

// Normalize обрезает текст до MaxMessageLen и достраивает производные поля:
// profileUrl выводится из walletAddress и никогда не бывает самостоятельно
// авторитетным.
func (m *ChatMessage) Normalize(baseURL string) {
	m.Message = CapMessage(m.Message)
	if m.ProfileURL == "" && m.WalletAddress != "" {
		m.ProfileURL = ProfileURL(baseURL, m.WalletAddress)
	}
	if m.WalletAddress == "" && m.ProfileURL != "" {
		m.WalletAddress = WalletFromProfileURL(m.ProfileURL)
	}
}

// CapMessage обрезает текст сообщения до MaxMessageLen рун.
func CapMessage(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxMessageLen {
		return s
	}
	return string(runes[:MaxMessageLen])
}

// ProfileURL строит абсолютный URL профиля по адресу кошелька.
func ProfileURL(baseURL, wallet string) string {
	return strings.TrimRight(baseURL, "/") + "/profile/" + wallet
}

// WalletFromProfileURL извлекает адрес кошелька из завершающего сегмента
// URL профиля. Возвращает пустую строку, если сегмент не похож на base58-ключ.
func WalletFromProfileURL(profileURL string) string {
	trimmed := strings.TrimRight(profileURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	seg := trimmed[idx+1:]
	if q := strings.IndexAny(seg, "?#"); q >= 0 {
		seg = seg[:q]
	}
	if !looksLikeBase58(seg) {
		return ""
	}
	return seg
}

// looksLikeBase58 проверяет, что строка похожа на публичный ключ Solana
// (base58, 32-44 символа, без 0, O, I, l).
func looksLikeBase58(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '1' && r <= '9':
		case r >= 'A' && r <= 'H':
		case r >= 'J' && r <= 'N':
		case r >= 'P' && r <= 'Z':
		case r >= 'a' && r <= 'k', r == 'm', r >= 'n' && r <= 'z':
		default:
			return false
		}
	}
	return true
}

// RoomJoinResult — состояние авторизации зрителя, возвращаемое рукопожатием
// joinRoom. Используется только для отображения и никогда не применяется
// для локального контроля доступа.
type RoomJoinResult struct {
	Authenticated   bool   `json:"authenticated"`
	UserAddress     string `json:"userAddress,omitempty"`
	IsCreator       bool   `json:"isCreator"`
	IsRoomModerator bool   `json:"isRoomModerator"`
}

// SlashCommand — разобранная команда вида "/spin arg1 arg2".
type SlashCommand struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
	Raw  string   `json:"raw"`
}

// ParseSlashCommand разбирает текст, начинающийся с '/', на слово команды
// и аргументы, разделенные пробелами. Возвращает false для обычного текста.
func ParseSlashCommand(text string) (*SlashCommand, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) < 2 {
		return nil, false
	}
	fields := strings.Fields(trimmed[1:])
	if len(fields) == 0 {
		return nil, false
	}
	return &SlashCommand{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
		Raw:  trimmed,
	}, true
}

// WalletCacheEntry — запись кэша "URL профиля -> кошелек".
type WalletCacheEntry struct {
	Wallet    string    `json:"wallet"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CdpTarget описывает вкладку удаленного браузера, найденную через
// remote-debugging endpoint. Источником истины является сам endpoint:
// мы только читаем и создаем вкладки, но никогда не удаляем их.
type CdpTarget struct {
	ID                   string `json:"id,omitempty"`
	Type                 string `json:"type,omitempty"`
	Title                string `json:"title,omitempty"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// CoinInfo — метаданные и цена токена из REST API апстрима.
type CoinInfo struct {
	Mint        string  `json:"mint"`
	Name        string  `json:"name,omitempty"`
	Symbol      string  `json:"symbol,omitempty"`
	ImageURI    string  `json:"image_uri,omitempty"`
	PriceUSD    float64 `json:"price_usd,omitempty"`
	MarketCap   float64 `json:"usd_market_cap,omitempty"`
	Description string  `json:"description,omitempty"`
}

// TradeTick — одна сделка из ленты апстрима. Поток пробрасывается клиенту
// почти как есть, поэтому неизвестные поля сохраняются в Raw.
type TradeTick struct {
	Mint        string         `json:"mint"`
	TxType      string         `json:"txType,omitempty"`
	Trader      string         `json:"traderPublicKey,omitempty"`
	SolAmount   float64        `json:"solAmount,omitempty"`
	TokenAmount float64        `json:"tokenAmount,omitempty"`
	MarketCap   float64        `json:"marketCapSol,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// timestampString приводит метку времени произвольной формы (число или строка)
// к строке. Отсутствие метки допустимо: live-скрейпинг обычно ее не дает.
func timestampString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON-числа приходят как float64; миллисекундные метки печатаем без мантиссы.
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
