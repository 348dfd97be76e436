package main

import (
	"log"
	"net/http"

	"github.com/rainsgod/filegate/internal/bot"
	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/db"
	"github.com/rainsgod/filegate/internal/gate"
	"github.com/rainsgod/filegate/internal/referral"
	"github.com/rainsgod/filegate/internal/shortlink"
	"github.com/rainsgod/filegate/internal/verify"
	"github.com/rainsgod/filegate/internal/web"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("db init: %v", err)
	}

	client := bot.NewClient(cfg.BotToken, cfg.APIBase)
	window := verify.NewWindow(db.Conn(), cfg.VerifyExpire)
	engine := referral.NewEngine(db.Conn(), cfg.NewUserWindow, bot.NewNotifier(client))
	shortener := shortlink.New(cfg.ShortlinkAPIURL, cfg.ShortlinkAPIKey)
	g := gate.New(cfg, db.Conn(), window, engine, shortener)
	dispatcher := bot.NewDispatcher(cfg, db.Conn(), client, g, window, engine)

	r := web.Router(cfg, dispatcher)

	log.Printf("filegate listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
