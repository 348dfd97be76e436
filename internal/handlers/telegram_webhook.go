package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rainsgod/filegate/internal/bot"
)

// TelegramWebhook decodes an update and hands it to the dispatcher in
// its own goroutine; Telegram only needs the 200 back quickly.
func TelegramWebhook(secret string, d *bot.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Simple secret check: /tg/webhook?secret=...
		if r.URL.Query().Get("secret") != secret {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)

		var up bot.Update
		if err := json.Unmarshal(b, &up); err != nil {
			http.Error(w, "bad request", 400)
			return
		}
		go d.Handle(&up)
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}
}
