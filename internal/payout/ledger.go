// Package payout выполняет выплаты. Сама транзакция делегируется внешнему
// подписанту; здесь ведется только журнал поручений.
package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record — одна запись журнала выплат.
type Record struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ledger пишет поручения на выплату в append-only JSONL-файл. Внешний
// подписант вычитывает файл и проводит транзакции; идентификатор записи
// возвращается клиенту как ссылка на поручение.
type Ledger struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
}

// NewLedger создает журнал по указанному пути.
func NewLedger(path string, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{path: path, log: log}
}

// Payout регистрирует поручение и возвращает его идентификатор.
func (l *Ledger) Payout(_ context.Context, recipient string, amount uint64) (string, error) {
	rec := Record{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal payout record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open payout ledger: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("append payout record: %w", err)
	}

	l.log.Info("payout recorded", "id", rec.ID, "recipient", recipient, "amount", amount)
	return rec.ID, nil
}
