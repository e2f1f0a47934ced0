package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pumpfun-chat-relay/internal/server/usecase"
)

func TestQueryPrefer(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"prefer=chat", true},
		{"prefer=any", false},
		{"prefer=1", true},
		{"prefer=true", true},
		{"prefer=0", false},
		{"", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/chat-scrape?"+tc.query, nil)
		assert.Equal(t, tc.want, queryPrefer(r), "query %q", tc.query)
	}
}

func TestWalletParams(t *testing.T) {
	t.Run("wallets=0 выключает дозаполнение независимо от источника", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/chat-scrape?walletSource=profile&wallets=0", nil)
		source, provided := walletParams(r)
		assert.Equal(t, usecase.WalletsNone, source)
		assert.Nil(t, provided)
	})

	t.Run("wallets=1 оставляет источник из walletSource", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/chat-scrape?walletSource=profile&wallets=1", nil)
		source, provided := walletParams(r)
		assert.Equal(t, "profile", source)
		assert.Nil(t, provided)
	})

	t.Run("Список адресов переводит в режим provided", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/chat-scrape?wallets=w1,w2", nil)
		source, provided := walletParams(r)
		assert.Equal(t, usecase.WalletsProvided, source)
		assert.Equal(t, []string{"w1", "w2"}, provided)
	})

	t.Run("Без параметров источник пуст", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/chat-scrape", nil)
		source, provided := walletParams(r)
		assert.Equal(t, "", source)
		assert.Nil(t, provided)
	})
}
