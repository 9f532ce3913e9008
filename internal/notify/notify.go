// Package notify posts playback and command feedback to guild text channels.
// Sends are fire-and-forget: a failed message never blocks playback.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/utils"
)

type Notifier struct {
	session *discordgo.Session
}

func New(s *discordgo.Session) *Notifier {
	return &Notifier{session: s}
}

func (n *Notifier) send(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := n.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		slog.Warn("failed to send message", "channel_id", channelID, "error", err)
	}
}

func (n *Notifier) Text(channelID, content string) {
	if _, err := n.session.ChannelMessageSend(channelID, content); err != nil {
		slog.Warn("failed to send message", "channel_id", channelID, "error", err)
	}
}

func (n *Notifier) Error(channelID, msg string) {
	n.send(channelID, errorEmbed(msg))
}

func (n *Notifier) NowPlaying(channelID string, t queue.Track, remaining int, format string) {
	n.send(channelID, nowPlayingEmbed(t, remaining, format))
}

func (n *Notifier) QueueEmpty(channelID string) {
	n.Text(channelID, "Queue finished, leaving the voice channel.")
}

func (n *Notifier) PlaybackError(channelID string, t queue.Track, err error) {
	n.Error(channelID, fmt.Sprintf("Could not play **%s**, skipping.", utils.EscapeMd(t.Title)))
}

func (n *Notifier) PlaybackAborted(channelID string) {
	n.Error(channelID, "Too many playback failures in a row, stopping.")
}

func (n *Notifier) EveryoneLeft(channelID string) {
	n.Text(channelID, "Everyone left the voice channel, cleaning up.")
}

func (n *Notifier) TracksRemoved(channelID string, count int) {
	word := "tracks"
	if count == 1 {
		word = "track"
	}
	n.Text(channelID, fmt.Sprintf("Removed %d %s requested by a user who left.", count, word))
}

func (n *Notifier) AddedTrack(channelID string, t queue.Track, position int) {
	n.send(channelID, addedTrackEmbed(t, position))
}

func (n *Notifier) AddedCollection(channelID string, count int) {
	n.Text(channelID, fmt.Sprintf("Added **%d** tracks to the queue.", count))
}

func (n *Notifier) Queue(channelID string, tracks []queue.Track, volume float64, playing bool) {
	n.send(channelID, queueEmbed(tracks, volume, playing))
}

func (n *Notifier) Help(channelID, prefix string) {
	n.send(channelID, helpEmbed(prefix))
}
