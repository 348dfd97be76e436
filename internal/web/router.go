package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rainsgod/filegate/internal/bot"
	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/handlers"
)

func Router(cfg *config.Config, d *bot.Dispatcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)
	r.Post("/tg/webhook", handlers.TelegramWebhook(cfg.WebhookSecret, d))
	r.Get("/qr/upi.png", handlers.UPIQR(cfg.UPIID))

	return r
}
