package domain

import "strings"

// Полезные нагрузки апстрима слабо типизированы: сообщение может быть строкой,
// массивом или объектом, история — массивом или оберткой с одним из нескольких
// известных имен поля. Вся эта неопределенность нормализуется здесь, на границе,
// и дальше по коду не распространяется.

// historyEnvelopeKeys — известные имена поля, под которым апстрим может
// завернуть массив истории.
var historyEnvelopeKeys = []string{"messages", "history", "data", "items"}

// MessageFromPayload приводит сырую полезную нагрузку события чата к ChatMessage.
// Неизвестные поля игнорируются, известные принимаются в нескольких написаниях.
func MessageFromPayload(roomID string, payload any) ChatMessage {
	msg := ChatMessage{RoomID: roomID}

	obj, ok := payload.(map[string]any)
	if !ok {
		// Некоторые события несут голую строку текста.
		if s, isStr := payload.(string); isStr {
			msg.Message = CapMessage(s)
		}
		return msg
	}

	msg.ID = firstString(obj, "id", "_id", "messageId")
	msg.Username = firstString(obj, "username", "userName", "name", "displayName")
	msg.WalletAddress = firstString(obj, "userAddress", "walletAddress", "address", "wallet")
	if room := firstString(obj, "roomId", "room_id", "room"); room != "" {
		msg.RoomID = room
	}
	msg.Message = coerceMessageText(obj)
	msg.Timestamp = timestampString(firstValue(obj, "timestamp", "createdAt", "created_at"))
	return msg
}

// coerceMessageText вытаскивает текст сообщения из поля, которое может быть
// строкой, массивом фрагментов или вложенным объектом.
func coerceMessageText(obj map[string]any) string {
	raw := firstValue(obj, "message", "text", "content", "body")
	switch v := raw.(type) {
	case string:
		return CapMessage(v)
	case []any:
		var parts []string
		for _, item := range v {
			switch frag := item.(type) {
			case string:
				parts = append(parts, frag)
			case map[string]any:
				if s := firstString(frag, "text", "message"); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return CapMessage(strings.Join(parts, ""))
	case map[string]any:
		return CapMessage(firstString(v, "text", "message", "content"))
	default:
		return ""
	}
}

// HistoryFromPayload принимает полезную нагрузку callback-а истории,
// которая может быть массивом напрямую либо объектом-оберткой, и возвращает
// список сырых сообщений. Недопустимые элементы отбрасываются молча.
func HistoryFromPayload(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range historyEnvelopeKeys {
			if inner, ok := v[key].([]any); ok {
				return inner
			}
		}
	}
	return nil
}

// JoinResultFromPayload приводит полезную нагрузку ack-а joinRoom к RoomJoinResult.
func JoinResultFromPayload(payload any) RoomJoinResult {
	obj, ok := payload.(map[string]any)
	if !ok {
		return RoomJoinResult{}
	}
	return RoomJoinResult{
		Authenticated:   firstBool(obj, "authenticated", "isAuthenticated"),
		UserAddress:     firstString(obj, "userAddress", "address", "wallet"),
		IsCreator:       firstBool(obj, "isCreator", "creator"),
		IsRoomModerator: firstBool(obj, "isRoomModerator", "moderator"),
	}
}

func firstValue(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return timestampString(v)
		}
	}
	return ""
}

func firstBool(obj map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := obj[key].(bool); ok {
			return v
		}
	}
	return false
}
