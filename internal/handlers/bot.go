// Package handlers wires the Discord gateway to the queue, playback and
// notification machinery.
package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/config"
	"github.com/jaeyopark/mellow/internal/notify"
	"github.com/jaeyopark/mellow/internal/playback"
	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/repository"
	"github.com/jaeyopark/mellow/internal/resolver"
	"github.com/jaeyopark/mellow/internal/voice"
)

type Bot struct {
	cfg     *config.Config
	repo    *repository.Repo
	store   *queue.Store
	res     *resolver.Resolver
	watcher *playback.Watcher
	cmd     *CommandHandler
}

func NewBot(cfg *config.Config, repo *repository.Repo, store *queue.Store, res *resolver.Resolver) *Bot {
	return &Bot{cfg: cfg, repo: repo, store: store, res: res}
}

// Run connects to Discord and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildVoiceStates

	notifier := notify.New(dg)
	b.watcher = &playback.Watcher{Store: b.store, Notify: notifier}
	b.cmd = NewCommandHandler(ctx, b.cfg, b.repo, b.store, b.res, notifier, voice.NewConnector(dg))

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("connected", "user", s.State.User.Username)
		presence := discordgo.UpdateStatusData{Status: b.cfg.BotStatus}
		if b.cfg.BotActivity != "" {
			presence.Activities = []*discordgo.Activity{{
				Name: b.cfg.BotActivity,
				Type: discordgo.ActivityTypeGame,
			}}
		}
		if err := s.UpdateStatusComplex(presence); err != nil {
			slog.Warn("failed to set presence", "error", err)
		}
	})
	dg.AddHandler(b.cmd.HandleMessage)
	dg.AddHandler(b.handleVoiceState)

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	return nil
}
