package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jaeyopark/mellow/internal/config"
	"github.com/jaeyopark/mellow/internal/handlers"
	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/repository"
	"github.com/jaeyopark/mellow/internal/resolver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	db, err := repository.OpenDB(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	repo := repository.NewRepo(db)

	var spotify *resolver.SpotifyClient
	if cfg.SpotifyEnabled() {
		spotify, err = resolver.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		slog.Info("spotify credentials not set, spotify links disabled")
	}

	store := queue.NewStore()
	bot := handlers.NewBot(cfg, repo, store, resolver.New(spotify))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = bot.Run(ctx)
	store.Shutdown()
	if err != nil {
		log.Fatal(err)
	}
}
