package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// handleVoiceState forwards user departures to the membership watcher.
func (b *Bot) handleVoiceState(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.BeforeUpdate == nil || vs.BeforeUpdate.ChannelID == "" {
		return
	}
	// Mute and deafen toggles arrive here too.
	if vs.ChannelID == vs.BeforeUpdate.ChannelID {
		return
	}
	if s.State.User != nil && vs.UserID == s.State.User.ID {
		return
	}
	departed := vs.BeforeUpdate.ChannelID

	leaveIfEmpty := true
	if set, err := b.repo.GetSettings(context.Background(), vs.GuildID); err == nil {
		leaveIfEmpty = set.LeaveIfNoListeners
	}

	b.watcher.HandleDeparture(vs.GuildID, departed, vs.UserID,
		nonBotCount(s, vs.GuildID, departed), leaveIfEmpty)
}

// nonBotCount counts human members currently in a voice channel.
func nonBotCount(s *discordgo.Session, guildID, channelID string) int {
	g, _ := s.State.Guild(guildID)
	if g == nil {
		return 0
	}
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID {
			m, _ := s.State.Member(guildID, vs.UserID)
			if m != nil && m.User != nil && !m.User.Bot {
				n++
			}
		}
	}
	return n
}
