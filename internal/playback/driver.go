// Package playback runs the per-guild playback loop and reacts to voice
// channel membership changes.
package playback

import (
	"context"
	"log/slog"

	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/stream"
	"github.com/jaeyopark/mellow/internal/voice"
)

// Playhead is a running track: the controls the session binds plus the
// completion event stream.
type Playhead interface {
	queue.Controller
	Events() <-chan voice.Event
	Close()
}

// OpenFunc acquires a playable stream for a locator on the session's voice
// connection.
type OpenFunc func(ctx context.Context, locator string) (Playhead, error)

// FormatFunc reports the audio format a locator would stream in. The second
// return is false when the probe failed; playback proceeds regardless.
type FormatFunc func(ctx context.Context, locator string) (stream.FormatDescriptor, bool)

// Notifier posts playback updates to the guild's text channel.
type Notifier interface {
	NowPlaying(channelID string, t queue.Track, remaining int, format string)
	QueueEmpty(channelID string)
	PlaybackError(channelID string, t queue.Track, err error)
	PlaybackAborted(channelID string)
	EveryoneLeft(channelID string)
	TracksRemoved(channelID string, n int)
}

// Driver plays a session's queue front to back. One driver per session; it
// exits when the queue drains, the session is torn down, or too many tracks
// fail in a row.
type Driver struct {
	Sess   *queue.Session
	Store  *queue.Store
	Open   OpenFunc
	Format FormatFunc
	Notify Notifier

	// MaxFailures caps consecutive track failures before the driver gives
	// up and tears the session down.
	MaxFailures int
}

const DefaultMaxFailures = 5

// Run loops until the session ends. It must be called at most once.
func (d *Driver) Run(ctx context.Context) {
	maxFailures := d.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}

	failures := 0
	for {
		if ctx.Err() != nil || d.Sess.Closed() {
			return
		}

		t, ok := d.Sess.CurrentTrack()
		if !ok {
			d.Notify.QueueEmpty(d.Sess.TextChannelID)
			d.Store.Destroy(d.Sess.GuildID)
			return
		}

		ph, err := d.Open(ctx, t.Locator)
		if err != nil {
			slog.Error("failed to open track",
				"guild_id", d.Sess.GuildID,
				"title", t.Title,
				"error", err)
			d.Notify.PlaybackError(d.Sess.TextChannelID, t, err)
			failures++
			if failures >= maxFailures {
				d.Notify.PlaybackAborted(d.Sess.TextChannelID)
				d.Store.Destroy(d.Sess.GuildID)
				return
			}
			d.Sess.DropHead(t)
			continue
		}

		// A stream that finished acquiring after teardown has no session
		// to play into.
		if !d.Sess.BindController(ph) {
			ph.Close()
			return
		}

		format := ""
		if d.Format != nil {
			if fd, ok := d.Format(ctx, t.Locator); ok {
				format = fd.String()
			}
		}
		d.Notify.NowPlaying(d.Sess.TextChannelID, t, d.Sess.Len()-1, format)

		select {
		case ev := <-ph.Events():
			d.Sess.ClearController()
			ph.Close()
			if ev.Err != nil {
				slog.Error("playback failed",
					"guild_id", d.Sess.GuildID,
					"title", t.Title,
					"error", ev.Err)
				d.Notify.PlaybackError(d.Sess.TextChannelID, t, ev.Err)
				failures++
				if failures >= maxFailures {
					d.Notify.PlaybackAborted(d.Sess.TextChannelID)
					d.Store.Destroy(d.Sess.GuildID)
					return
				}
			} else {
				failures = 0
			}
			if d.Sess.Closed() {
				return
			}
			d.Sess.DropHead(t)

		case <-d.Sess.Done():
			ph.Close()
			return

		case <-ctx.Done():
			ph.Close()
			return
		}
	}
}
