package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventFrame(t *testing.T) {
	t.Run("Событие без ack", func(t *testing.T) {
		ev, ok := ParseEventFrame(`42["newMessage",{"username":"alice","message":"gm"}]`)
		require.True(t, ok)
		assert.Equal(t, "newMessage", ev.Name)
		assert.Equal(t, NoAck, ev.AckID)
		require.Len(t, ev.Args, 1)

		payload, isMap := ev.Payload().(map[string]any)
		require.True(t, isMap)
		assert.Equal(t, "alice", payload["username"])
	})

	t.Run("Событие с ack-идентификатором", func(t *testing.T) {
		ev, ok := ParseEventFrame(`4217["joinRoom",{"roomId":"MINT"}]`)
		require.True(t, ok)
		assert.Equal(t, "joinRoom", ev.Name)
		assert.Equal(t, int64(17), ev.AckID)
	})

	t.Run("Чужие кадры отбрасываются", func(t *testing.T) {
		for _, frame := range []string{
			"2",                      // ping
			"3",                      // pong
			"40",                     // namespace connect
			`43["not","an event"]`,   // ack, не событие
			"42",                     // пустое событие
			"42{}",                   // не массив
			`42[42]`,                 // имя не строка
			`42abc["x"]`,             // мусор вместо id
			"",
		} {
			_, ok := ParseEventFrame(frame)
			assert.False(t, ok, "кадр %q не должен разбираться", frame)
		}
	})
}

func TestParseAckFrame(t *testing.T) {
	t.Run("Корректный ack", func(t *testing.T) {
		id, args, ok := ParseAckFrame(`431[{"authenticated":true},"extra"]`)
		require.True(t, ok)
		assert.Equal(t, int64(1), id)
		require.Len(t, args, 2)
	})

	t.Run("Ack без идентификатора не разбирается", func(t *testing.T) {
		_, _, ok := ParseAckFrame(`43["x"]`)
		assert.False(t, ok)
	})

	t.Run("Событие не является ack-ом", func(t *testing.T) {
		_, _, ok := ParseAckFrame(`42["x"]`)
		assert.False(t, ok)
	})
}

func TestEncodeEventFrame(t *testing.T) {
	t.Run("Кодирование с ack и без", func(t *testing.T) {
		withAck, err := EncodeEventFrame(5, "joinRoom", map[string]any{"roomId": "MINT"})
		require.NoError(t, err)
		assert.Equal(t, `425["joinRoom",{"roomId":"MINT"}]`, withAck)

		noAck, err := EncodeEventFrame(NoAck, "leaveRoom")
		require.NoError(t, err)
		assert.Equal(t, `42["leaveRoom"]`, noAck)
	})

	t.Run("Раунд-трип через парсер", func(t *testing.T) {
		frame, err := EncodeEventFrame(9, "getMessageHistory", map[string]any{"limit": 50})
		require.NoError(t, err)

		ev, ok := ParseEventFrame(frame)
		require.True(t, ok)
		assert.Equal(t, "getMessageHistory", ev.Name)
		assert.Equal(t, int64(9), ev.AckID)
	})
}
