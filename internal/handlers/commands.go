package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/config"
	"github.com/jaeyopark/mellow/internal/permission"
	"github.com/jaeyopark/mellow/internal/playback"
	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/repository"
	"github.com/jaeyopark/mellow/internal/resolver"
	"github.com/jaeyopark/mellow/internal/stream"
	"github.com/jaeyopark/mellow/internal/voice"
)

// messenger is the slice of the notifier the dispatcher talks to. An
// interface so command tests can observe replies without a gateway session.
type messenger interface {
	playback.Notifier
	Text(channelID, content string)
	Error(channelID, msg string)
	AddedTrack(channelID string, t queue.Track, position int)
	AddedCollection(channelID string, count int)
	Queue(channelID string, tracks []queue.Track, volume float64, playing bool)
	Help(channelID, prefix string)
}

// CommandHandler dispatches prefix commands from guild text channels.
type CommandHandler struct {
	ctx       context.Context
	cfg       *config.Config
	repo      *repository.Repo
	store     *queue.Store
	res       *resolver.Resolver
	notify    messenger
	connector *voice.Connector
	acquirer  *stream.Acquirer
}

func NewCommandHandler(
	ctx context.Context,
	cfg *config.Config,
	repo *repository.Repo,
	store *queue.Store,
	res *resolver.Resolver,
	notifier messenger,
	connector *voice.Connector,
) *CommandHandler {
	return &CommandHandler{
		ctx:       ctx,
		cfg:       cfg,
		repo:      repo,
		store:     store,
		res:       res,
		notify:    notifier,
		connector: connector,
		acquirer:  stream.NewAcquirer(),
	}
}

func (h *CommandHandler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, h.cfg.Prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(m.Content, h.cfg.Prefix))
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	arg := strings.Join(fields[1:], " ")

	switch cmd {
	case "play", "p":
		h.cmdPlay(s, m, arg)
	case "skip", "s":
		h.cmdSkip(s, m)
	case "stop":
		h.cmdStop(s, m)
	case "queue", "q":
		h.cmdQueue(m)
	case "pause":
		h.cmdPause(s, m)
	case "resume":
		h.cmdResume(s, m)
	case "volume", "vol":
		h.cmdVolume(m, arg)
	case "shuffle":
		h.cmdShuffle(s, m)
	case "forceleave", "fl":
		h.cmdForceLeave(s, m)
	case "help":
		h.notify.Help(m.ChannelID, h.cfg.Prefix)
	}
}

// actor captures who is asking, for permission checks.
func (h *CommandHandler) actor(s *discordgo.Session, m *discordgo.MessageCreate) permission.Actor {
	a := permission.Actor{ID: m.Author.ID}
	if perms, err := s.State.MessagePermissions(m.Message); err == nil {
		a.IsAdmin = perms&discordgo.PermissionAdministrator != 0
	}
	if ch := userVoiceChannel(s, m.GuildID, m.Author.ID); ch != "" {
		a.AloneInChannel = nonBotCount(s, m.GuildID, ch) == 1
	}
	return a
}

func userVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

func (h *CommandHandler) cmdPlay(s *discordgo.Session, m *discordgo.MessageCreate, arg string) {
	if arg == "" {
		h.notify.Error(m.ChannelID, fmt.Sprintf("Usage: `%splay <url | search>`", h.cfg.Prefix))
		return
	}
	voiceCh := userVoiceChannel(s, m.GuildID, m.Author.ID)
	if voiceCh == "" {
		h.notify.Error(m.ChannelID, "Join a voice channel first.")
		return
	}

	sess := h.store.Get(m.GuildID)
	if sess != nil && sess.VoiceChannelID != voiceCh {
		h.notify.Error(m.ChannelID, "Already playing in another voice channel.")
		return
	}

	set, err := h.repo.UpsertSettings(h.ctx, m.GuildID)
	if err != nil {
		slog.Error("failed to load settings", "guild_id", m.GuildID, "error", err)
		h.notify.Error(m.ChannelID, "Something went wrong, try again.")
		return
	}

	var tracks []queue.Track
	if resolver.IsValidCollectionLocator(arg) {
		tracks, err = h.res.ResolveCollection(h.ctx, arg, set.PlaylistLimit, m.Author.ID)
	} else {
		var t queue.Track
		t, err = h.res.ResolveSingle(h.ctx, arg, m.Author.ID)
		tracks = []queue.Track{t}
	}
	if err != nil {
		h.notify.Error(m.ChannelID, resolveErrorText(err))
		return
	}
	if len(tracks) == 0 {
		h.notify.Error(m.ChannelID, "Nothing found for that.")
		return
	}

	if sess == nil {
		sess, err = h.store.Create(m.GuildID, m.ChannelID, voiceCh)
		if err != nil {
			h.notify.Error(m.ChannelID, "Already playing in this guild.")
			return
		}
		_ = sess.SetVolume(float64(set.DefaultVolume) / 100)

		conn, err := h.connector.Join(h.ctx, m.GuildID, voiceCh)
		if err != nil {
			slog.Error("voice join failed", "guild_id", m.GuildID, "error", err)
			h.store.Destroy(m.GuildID)
			h.notify.Error(m.ChannelID, "Could not join the voice channel.")
			return
		}
		if !sess.BindConnection(conn) {
			_ = conn.Destroy()
			return
		}
		sess.Enqueue(tracks...)

		d := &playback.Driver{
			Sess:   sess,
			Store:  h.store,
			Open:   h.openFunc(conn),
			Format: stream.BestFormat,
			Notify: h.notify,
		}
		go d.Run(h.ctx)
	} else {
		sess.Enqueue(tracks...)
		if len(tracks) == 1 {
			h.notify.AddedTrack(m.ChannelID, tracks[0], sess.Len()-1)
		}
	}
	if len(tracks) > 1 {
		h.notify.AddedCollection(m.ChannelID, len(tracks))
	}
}

// openFunc builds the stream acquisition pipeline for one session's voice
// connection: resolve the direct media URL, spawn ffmpeg, start the Opus
// send loop.
func (h *CommandHandler) openFunc(conn *voice.Conn) playback.OpenFunc {
	return func(ctx context.Context, locator string) (playback.Playhead, error) {
		var ph playback.Playhead
		err := h.acquirer.Acquire(ctx, func(ctx context.Context) error {
			mi, err := stream.FetchInfo(ctx, locator)
			if err != nil {
				return err
			}
			if mi.MediaURL == "" {
				return errors.New("no streamable url in media info")
			}
			pcm, err := stream.StartPCM(ctx, mi.MediaURL)
			if err != nil {
				return err
			}
			enc, err := stream.NewEncoder()
			if err != nil {
				pcm.Close()
				return err
			}
			p := voice.NewPlayer(conn, pcm, enc)
			p.Start()
			ph = p
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ph, nil
	}
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	cur, ok := sess.CurrentTrack()
	if !ok {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	if err := permission.CanSkip(h.actor(s, m), cur.RequestedBy); err != nil {
		h.notify.Error(m.ChannelID, "Only the requester or an admin can skip this track.")
		return
	}
	sess.StopCurrent()
	h.notify.Text(m.ChannelID, "⏭️ Skipped.")
}

func (h *CommandHandler) cmdStop(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	if err := permission.CanStop(h.actor(s, m)); err != nil {
		h.notify.Error(m.ChannelID, "Only an admin can stop playback.")
		return
	}
	h.store.Destroy(m.GuildID)
	h.notify.Text(m.ChannelID, "⏹️ Stopped and cleared the queue.")
}

func (h *CommandHandler) cmdForceLeave(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Not in a voice channel.")
		return
	}
	if err := permission.CanForceLeave(h.actor(s, m)); err != nil {
		h.notify.Error(m.ChannelID, "Only an admin can force me out.")
		return
	}
	h.store.Destroy(m.GuildID)
	h.notify.Text(m.ChannelID, "👋 Left the voice channel.")
}

func (h *CommandHandler) cmdQueue(m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Queue(m.ChannelID, nil, queue.DefaultVolume, false)
		return
	}
	h.notify.Queue(m.ChannelID, sess.Tracks(), sess.Volume(), sess.Playing())
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	cur, _ := sess.CurrentTrack()
	if err := permission.CanPause(h.actor(s, m), cur.RequestedBy); err != nil {
		h.notify.Error(m.ChannelID, "You need to be an admin or alone with me to pause.")
		return
	}
	if err := sess.Pause(); err != nil {
		h.notify.Error(m.ChannelID, "Nothing to pause.")
		return
	}
	h.notify.Text(m.ChannelID, "⏸️ Paused.")
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	cur, _ := sess.CurrentTrack()
	if err := permission.CanResume(h.actor(s, m), cur.RequestedBy); err != nil {
		h.notify.Error(m.ChannelID, "You need to be an admin or alone with me to resume.")
		return
	}
	if err := sess.Resume(); err != nil {
		h.notify.Error(m.ChannelID, "Nothing to resume.")
		return
	}
	h.notify.Text(m.ChannelID, "▶️ Resumed.")
}

func (h *CommandHandler) cmdVolume(m *discordgo.MessageCreate, arg string) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	if arg == "" {
		h.notify.Text(m.ChannelID, fmt.Sprintf("🔊 Volume is %d%%.", int(math.Round(sess.Volume()*100))))
		return
	}
	pct, err := strconv.Atoi(arg)
	if err != nil {
		h.notify.Error(m.ChannelID, fmt.Sprintf("Usage: `%svolume [0-200]`", h.cfg.Prefix))
		return
	}
	if err := sess.SetVolume(float64(pct) / 100); err != nil {
		h.notify.Error(m.ChannelID, "Volume must be between 0 and 200.")
		return
	}
	if err := h.repo.SetDefaultVolume(h.ctx, m.GuildID, pct); err != nil {
		slog.Warn("failed to persist volume", "guild_id", m.GuildID, "error", err)
	}
	h.notify.Text(m.ChannelID, fmt.Sprintf("🔊 Volume set to %d%%.", pct))
}

func (h *CommandHandler) cmdShuffle(s *discordgo.Session, m *discordgo.MessageCreate) {
	sess := h.store.Get(m.GuildID)
	if sess == nil {
		h.notify.Error(m.ChannelID, "Nothing is playing.")
		return
	}
	if err := permission.CanShuffle(h.actor(s, m)); err != nil {
		h.notify.Error(m.ChannelID, "Only an admin can shuffle the queue.")
		return
	}
	if err := sess.ShuffleRest(); err != nil {
		h.notify.Error(m.ChannelID, "Not enough queued tracks to shuffle.")
		return
	}
	h.notify.Text(m.ChannelID, "🔀 Shuffled the queue.")
}

func resolveErrorText(err error) string {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return "Nothing found for that."
	case errors.Is(err, resolver.ErrRateLimited):
		return "The media source is rate limiting us, try again in a bit."
	default:
		return "Could not load that right now."
	}
}
