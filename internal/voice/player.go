package voice

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/stream"
)

// Event reports the end of a playback run. Err is nil when the stream played
// to completion or was stopped.
type Event struct {
	Err error
}

// Player drives one track: it pulls PCM frames from ffmpeg, applies volume,
// encodes to Opus and paces packets onto the voice connection at 20 ms.
type Player struct {
	vc  *discordgo.VoiceConnection
	pcm *stream.PCM
	enc *stream.Encoder

	volume atomic.Uint64 // float64 bits
	paused atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	events   chan Event

	closeOnce sync.Once
}

func NewPlayer(conn *Conn, pcm *stream.PCM, enc *stream.Encoder) *Player {
	p := &Player{
		vc:     conn.Raw(),
		pcm:    pcm,
		enc:    enc,
		stop:   make(chan struct{}),
		events: make(chan Event, 1),
	}
	p.volume.Store(math.Float64bits(1.0))
	return p
}

// Start launches the send loop. The completion event arrives on Events.
func (p *Player) Start() {
	go func() {
		err := p.run()
		p.events <- Event{Err: err}
	}()
}

func (p *Player) Events() <-chan Event { return p.events }

func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Player) Pause() error {
	if p.paused.Swap(true) {
		return errors.New("already paused")
	}
	return nil
}

func (p *Player) Resume() error {
	if !p.paused.Swap(false) {
		return errors.New("not paused")
	}
	return nil
}

func (p *Player) SetVolume(v float64) {
	p.volume.Store(math.Float64bits(v))
}

// Close releases the decode pipeline. Safe after Stop and safe to call twice.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.Stop()
		p.enc.Close()
		p.pcm.Close()
	})
}

func (p *Player) waitReady() error {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p.vc != nil && p.vc.Ready && p.vc.OpusSend != nil {
			return nil
		}
		select {
		case <-p.stop:
			return nil
		case <-time.After(50 * time.Millisecond):
		}
	}
	return errors.New("voice connection never became ready")
}

func (p *Player) run() error {
	if err := p.waitReady(); err != nil {
		return err
	}
	select {
	case <-p.stop:
		return nil
	default:
	}

	_ = p.vc.Speaking(true)
	defer func() { _ = p.vc.Speaking(false) }()

	reader := bufio.NewReaderSize(p.pcm.Reader(), 64*1024)
	frame := make([]byte, p.enc.FrameBytes())
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return nil
		case <-ticker.C:
		}
		if p.paused.Load() {
			continue
		}

		if _, err := io.ReadFull(reader, frame); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("read pcm: %w", err)
		}

		p.scale(frame)

		err := p.enc.EncodeFrame(frame, func(pkt []byte) error {
			out := make([]byte, len(pkt))
			copy(out, pkt)
			select {
			case <-p.stop:
				return errStopped
			case p.vc.OpusSend <- out:
				return nil
			case <-time.After(200 * time.Millisecond):
				return errors.New("opus send timed out")
			}
		})
		if err != nil {
			if err == errStopped {
				return nil
			}
			return err
		}
	}
}

var errStopped = errors.New("stopped")

// scale multiplies every s16le sample by the current volume, clamping at the
// int16 range.
func (p *Player) scale(frame []byte) {
	v := math.Float64frombits(p.volume.Load())
	if v == 1.0 {
		return
	}
	for i := 0; i+1 < len(frame); i += 2 {
		s := int16(binary.LittleEndian.Uint16(frame[i:]))
		scaled := float64(s) * v
		switch {
		case scaled > math.MaxInt16:
			s = math.MaxInt16
		case scaled < math.MinInt16:
			s = math.MinInt16
		default:
			s = int16(scaled)
		}
		binary.LittleEndian.PutUint16(frame[i:], uint16(s))
	}
}
