// Package voice manages Discord voice connections and the Opus send loop.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Connector joins voice channels on behalf of the bot.
type Connector struct {
	session *discordgo.Session
}

func NewConnector(s *discordgo.Session) *Connector {
	return &Connector{session: s}
}

// Join connects to a voice channel unmuted and deafened.
func (c *Connector) Join(ctx context.Context, guildID, channelID string) (*Conn, error) {
	vc, err := c.session.ChannelVoiceJoin(ctx, guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("voice join %s/%s: %w", guildID, channelID, err)
	}
	if vc.OpusSend == nil {
		vc.OpusSend = make(chan []byte, 2)
	}
	return &Conn{vc: vc}, nil
}

// Conn wraps a discordgo voice connection with an idempotent teardown.
type Conn struct {
	vc   *discordgo.VoiceConnection
	once sync.Once
}

func (c *Conn) Raw() *discordgo.VoiceConnection { return c.vc }

// Destroy leaves the voice channel. discordgo's voice internals can panic
// during shutdown races, so the disconnect is fenced off.
func (c *Conn) Destroy() error {
	var err error
	c.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Warn("panic during voice disconnect", "panic", r)
			}
		}()
		if c.vc == nil {
			return
		}
		_ = c.vc.Speaking(false)
		// Give the UDP loop a moment to drain before tearing down.
		time.Sleep(150 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err = c.vc.Disconnect(ctx)
	})
	return err
}
