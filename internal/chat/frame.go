// Package chat реализует протокольно-нативный клиент чата апстрима:
// минимальный Socket.IO поверх WebSocket (текстовые кадры engine.io v4)
// с корреляцией ack-ов по идентификатору запроса.
package chat

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Текстовый кадр engine.io начинается с типа пакета; внутри пакета
// "message" (4) следует тип пакета socket.io. Нас интересуют:
//
//	"0{...}"    — open (handshake с sid и интервалами ping)
//	"2" / "3"   — ping / pong
//	"40"        — подключение к пространству имен
//	"42[...]"   — событие, опционально "42<id>[...]" с запросом ack
//	"43<id>[..]"— ack на наш запрос
const (
	frameOpen      = "0"
	framePing      = "2"
	framePong      = "3"
	frameConnect   = "40"
	frameEventPfx  = "42"
	frameAckPfx    = "43"
)

// NoAck — значение AckID для событий без запроса подтверждения.
const NoAck int64 = -1

// EventFrame — разобранный кадр события: имя и аргументы.
type EventFrame struct {
	Name  string
	Args  []any
	AckID int64
}

// Payload возвращает первый аргумент события либо nil.
func (f *EventFrame) Payload() any {
	if len(f.Args) == 0 {
		return nil
	}
	return f.Args[0]
}

// ParseEventFrame разбирает текстовый кадр "42...": двухсимвольный числовой
// префикс, за которым следует JSON-массив [eventName, payload...].
// Та же функция обслуживает и сниффер кадров из браузера.
func ParseEventFrame(text string) (*EventFrame, bool) {
	if !strings.HasPrefix(text, frameEventPfx) {
		return nil, false
	}
	rest := text[len(frameEventPfx):]

	ackID := NoAck
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.ParseInt(rest[:digits], 10, 64)
		if err != nil {
			return nil, false
		}
		ackID = id
		rest = rest[digits:]
	}

	if !strings.HasPrefix(rest, "[") {
		return nil, false
	}
	var arr []any
	if err := json.Unmarshal([]byte(rest), &arr); err != nil || len(arr) == 0 {
		return nil, false
	}
	name, ok := arr[0].(string)
	if !ok || name == "" {
		return nil, false
	}
	return &EventFrame{Name: name, Args: arr[1:], AckID: ackID}, true
}

// ParseAckFrame разбирает кадр "43<id>[...]" в идентификатор запроса и аргументы.
func ParseAckFrame(text string) (int64, []any, bool) {
	if !strings.HasPrefix(text, frameAckPfx) {
		return 0, nil, false
	}
	rest := text[len(frameAckPfx):]
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, nil, false
	}
	id, err := strconv.ParseInt(rest[:digits], 10, 64)
	if err != nil {
		return 0, nil, false
	}
	var args []any
	if err := json.Unmarshal([]byte(rest[digits:]), &args); err != nil {
		return 0, nil, false
	}
	return id, args, true
}

// EncodeEventFrame сериализует событие в текстовый кадр. При ackID != NoAck
// апстрим обязан ответить кадром "43<ackID>[...]".
func EncodeEventFrame(ackID int64, name string, args ...any) (string, error) {
	arr := append([]any{name}, args...)
	data, err := json.Marshal(arr)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(frameEventPfx)
	if ackID != NoAck {
		sb.WriteString(strconv.FormatInt(ackID, 10))
	}
	sb.Write(data)
	return sb.String(), nil
}
