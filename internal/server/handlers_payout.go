package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// payoutSecretHeader — заголовок с общим секретом выплат.
const payoutSecretHeader = "x-payout-secret"

type payoutRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// handlePayout — POST /payout: выплата за общим секретом. Несовпадение
// секрета — всегда 403, тело запроса при этом не читается.
func (s *Server) handlePayout(w http.ResponseWriter, r *http.Request) {
	secret := s.cfg.Payout.Secret
	got := r.Header.Get(payoutSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		writeError(w, http.StatusForbidden, "payout secret missing or invalid")
		return
	}

	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payout body: "+err.Error())
		return
	}
	if req.Recipient == "" || req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "recipient and a positive amount are required")
		return
	}

	txID, err := s.payouts.Payout(r.Context(), req.Recipient, req.Amount)
	if err != nil {
		writeError(w, http.StatusBadGateway, "payout failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"id":        txID,
		"recipient": req.Recipient,
		"amount":    req.Amount,
	})
}
