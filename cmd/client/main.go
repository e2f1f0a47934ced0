// Утилита командной строки для проверки релея: печатает сообщения чата
// таблицей и отправляет выплаты, запрашивая секрет интерактивно.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"pumpfun-chat-relay/internal/domain"
	"pumpfun-chat-relay/internal/pkg/term"
)

type chatScrapeResponse struct {
	OK           bool                 `json:"ok"`
	RoomID       string               `json:"roomId"`
	Mode         string               `json:"mode"`
	MessageCount int                  `json:"messageCount"`
	Messages     []domain.ChatMessage `json:"messages"`
	Note         string               `json:"note,omitempty"`
	Error        string               `json:"error,omitempty"`
}

type payoutResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func main() {
	var serverAddr string
	var mode string
	var max int
	flag.StringVar(&serverAddr, "server", "http://localhost:3000", "Server address")
	flag.StringVar(&mode, "mode", "socket", "Chat extraction mode: socket or html")
	flag.IntVar(&max, "max", 20, "Maximum messages to fetch")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("Usage: client [flags] chat <mint> | payout <recipient> <amount>")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	switch args[0] {
	case "chat":
		if len(args) < 2 {
			log.Fatal("Usage: client chat <mint>")
		}
		runChat(httpClient, serverAddr, args[1], mode, max)
	case "payout":
		if len(args) < 3 {
			log.Fatal("Usage: client payout <recipient> <amount>")
		}
		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			log.Fatalf("Неверная сумма %q: %v", args[2], err)
		}
		runPayout(httpClient, serverAddr, args[1], amount)
	default:
		log.Fatalf("Неизвестная команда %q", args[0])
	}
}

// runChat запрашивает сообщения комнаты и печатает их таблицей.
func runChat(httpClient *http.Client, serverAddr, mint, mode string, max int) {
	q := url.Values{}
	q.Set("mint", mint)
	q.Set("mode", mode)
	q.Set("max", strconv.Itoa(max))

	resp, err := httpClient.Get(serverAddr + "/chat-scrape?" + q.Encode())
	if err != nil {
		log.Fatalf("Запрос не удался: %v", err)
	}
	defer resp.Body.Close()

	var body chatScrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	if !body.OK {
		log.Fatalf("Сервер вернул ошибку (%d): %s", resp.StatusCode, body.Error)
	}

	fmt.Printf("Room %s, mode %s, %d message(s)\n", body.RoomID, body.Mode, body.MessageCount)
	if body.Note != "" {
		fmt.Println("Note:", body.Note)
	}
	printMessagesTable(os.Stdout, body.Messages)
}

// printMessagesTable выравнивает колонки по фактической ширине рун:
// имена в чате бывают с эмодзи и CJK-символами.
func printMessagesTable(out io.Writer, msgs []domain.ChatMessage) {
	const (
		userWidth = 20
		msgWidth  = 60
	)
	header := runewidth.FillRight("USERNAME", userWidth) + "  " +
		runewidth.FillRight("MESSAGE", msgWidth) + "  WALLET"
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, strings.Repeat("-", runewidth.StringWidth(header)))
	for _, m := range msgs {
		user := runewidth.Truncate(m.Username, userWidth, "…")
		text := runewidth.Truncate(strings.ReplaceAll(m.Message, "\n", " "), msgWidth, "…")
		fmt.Fprintln(out,
			runewidth.FillRight(user, userWidth)+"  "+
				runewidth.FillRight(text, msgWidth)+"  "+m.WalletAddress)
	}
}

// runPayout запрашивает секрет без эха и отправляет поручение на выплату.
func runPayout(httpClient *http.Client, serverAddr, recipient string, amount uint64) {
	secret, err := term.NewTerminal().ReadSecret("Payout secret: ")
	if err != nil {
		log.Fatalf("Не удалось прочитать секрет: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"recipient": recipient,
		"amount":    amount,
	})
	req, err := http.NewRequest(http.MethodPost, serverAddr+"/payout", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Не удалось создать запрос: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-payout-secret", secret)

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("Запрос не удался: %v", err)
	}
	defer resp.Body.Close()

	var body payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	if !body.OK {
		log.Fatalf("Выплата отклонена (%d): %s", resp.StatusCode, body.Error)
	}
	fmt.Println("Payout recorded:", body.ID)
}
