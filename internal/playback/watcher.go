package playback

import (
	"log/slog"

	"github.com/jaeyopark/mellow/internal/queue"
)

// Watcher reacts to users leaving the voice channel a session plays in.
type Watcher struct {
	Store  *queue.Store
	Notify Notifier
}

// HandleDeparture processes one user leaving channelID. nonBotRemaining is
// the number of human listeners still in the channel; leaveIfEmpty comes from
// the guild's settings.
func (w *Watcher) HandleDeparture(guildID, channelID, userID string, nonBotRemaining int, leaveIfEmpty bool) {
	sess := w.Store.Get(guildID)
	if sess == nil || sess.VoiceChannelID != channelID {
		return
	}

	if nonBotRemaining == 0 && leaveIfEmpty {
		slog.Info("voice channel empty, leaving", "guild_id", guildID, "channel_id", channelID)
		w.Notify.EveryoneLeft(sess.TextChannelID)
		w.Store.Destroy(guildID)
		return
	}

	cur, hasCur := sess.CurrentTrack()
	if n := sess.RemoveTracksBy(userID); n > 0 {
		w.Notify.TracksRemoved(sess.TextChannelID, n)
	}
	// Stopping the playhead lets the driver advance; the departed user's
	// current track is already out of the queue so the next head survives.
	if hasCur && cur.RequestedBy == userID {
		sess.StopCurrent()
	}
}
