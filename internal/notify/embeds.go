package notify

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/utils"
)

const (
	colorGreen = 0x00FF00
	colorRed   = 0xFF0000
	colorBlue  = 0x0099FF
)

func errorEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "❌ " + msg,
		Color:       colorRed,
	}
}

func nowPlayingEmbed(t queue.Track, remaining int, format string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("**%s**", utils.EscapeMd(t.Title)),
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: utils.FormatDuration(t.DurationSeconds), Inline: true},
			{Name: "Requested by", Value: fmt.Sprintf("<@%s>", t.RequestedBy), Inline: true},
			{Name: "Up next", Value: fmt.Sprintf("%d", remaining), Inline: true},
		},
	}
	if format != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name: "Format", Value: format, Inline: true,
		})
	}
	if t.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ThumbnailURL}
	}
	return e
}

func addedTrackEmbed(t queue.Track, position int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Added to Queue",
		Description: fmt.Sprintf("**%s**", utils.EscapeMd(t.Title)),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: utils.FormatDuration(t.DurationSeconds), Inline: true},
			{Name: "Position", Value: fmt.Sprintf("%d", position), Inline: true},
		},
	}
	if t.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ThumbnailURL}
	}
	return e
}

const queuePageSize = 10

func queueEmbed(tracks []queue.Track, volume float64, playing bool) *discordgo.MessageEmbed {
	if len(tracks) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Queue",
			Description: "The queue is empty.",
			Color:       colorBlue,
		}
	}

	var b strings.Builder
	state := "▶️"
	if !playing {
		state = "⏸️"
	}
	head := tracks[0]
	fmt.Fprintf(&b, "%s **%s** [%s] <@%s>\n",
		state, utils.EscapeMd(head.Title), utils.FormatDuration(head.DurationSeconds), head.RequestedBy)

	total := head.DurationSeconds
	for i, t := range tracks[1:] {
		total += t.DurationSeconds
		if i < queuePageSize {
			fmt.Fprintf(&b, "`%d.` %s [%s]\n",
				i+1, utils.EscapeMd(t.Title), utils.FormatDuration(t.DurationSeconds))
		}
	}
	if len(tracks)-1 > queuePageSize {
		fmt.Fprintf(&b, "...and %d more\n", len(tracks)-1-queuePageSize)
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
		Color:       colorBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d tracks | total %s | volume %d%%",
				len(tracks), utils.FormatDuration(total), int(volume*100)),
		},
	}
}

func helpEmbed(prefix string) *discordgo.MessageEmbed {
	rows := [][2]string{
		{"play <url | search>", "play a track, playlist or search result"},
		{"skip", "skip the current track"},
		{"stop", "stop playback and clear the queue"},
		{"queue", "show the current queue"},
		{"pause", "pause playback"},
		{"resume", "resume playback"},
		{"volume [0-200]", "show or set the playback volume"},
		{"shuffle", "shuffle the queued tracks"},
		{"forceleave", "force the bot out of the voice channel"},
		{"help", "show this message"},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "`%s%s` - %s\n", prefix, r[0], r[1])
	}
	return &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: b.String(),
		Color:       colorBlue,
	}
}
