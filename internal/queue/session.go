package queue

import (
	"math/rand/v2"
	"sync"
)

const DefaultVolume = 0.5

// Connection is the session's handle on an open voice connection.
type Connection interface {
	Destroy() error
}

// Controller is the session's handle on the active playback controller. It
// doubles as the volume-controllable audio resource: SetVolume takes effect
// on whatever is currently streaming.
type Controller interface {
	Stop()
	Pause() error
	Resume() error
	SetVolume(v float64)
}

// Session is the per-guild queue state machine. Every exported method is a
// complete critical section under s.mu, which is what serializes command
// handlers, the playback driver and the membership watcher for one guild.
type Session struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string

	mu      sync.Mutex
	tracks  []Track
	volume  float64
	playing bool
	conn    Connection
	ctrl    Controller
	closed  bool
	done    chan struct{}
}

func newSession(guildID, textChannelID, voiceChannelID string) *Session {
	return &Session{
		GuildID:        guildID,
		TextChannelID:  textChannelID,
		VoiceChannelID: voiceChannelID,
		volume:         DefaultVolume,
		done:           make(chan struct{}),
	}
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Enqueue appends tracks. If the session was idle beforehand the caller is
// expected to start the playback driver.
func (s *Session) Enqueue(tracks ...Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.tracks = append(s.tracks, tracks...)
}

// CurrentTrack returns the head track: now playing, or next to play.
func (s *Session) CurrentTrack() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return Track{}, false
	}
	return s.tracks[0], true
}

// Advance pops the head and returns the new head, if any.
func (s *Session) Advance() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked()
}

// DropHead pops the head only if it is still t. The driver advances with this
// so that a track already filtered out by the membership watcher does not
// cost a second, surviving track its slot.
func (s *Session) DropHead(t Track) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return Track{}, false
	}
	if s.tracks[0] != t {
		return s.tracks[0], true
	}
	return s.advanceLocked()
}

func (s *Session) advanceLocked() (Track, bool) {
	if len(s.tracks) == 0 {
		return Track{}, false
	}
	s.tracks = s.tracks[1:]
	if len(s.tracks) == 0 {
		return Track{}, false
	}
	return s.tracks[0], true
}

// ShuffleRest applies a Fisher-Yates permutation to everything behind the
// head. The head track never moves.
func (s *Session) ShuffleRest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) <= 2 {
		return ErrInsufficientTracks
	}
	rest := s.tracks[1:]
	for i := len(rest) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		rest[i], rest[j] = rest[j], rest[i]
	}
	return nil
}

// SetVolume stores v and applies it to the bound controller immediately.
func (s *Session) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0.0 || v > 2.0 {
		return ErrVolumeOutOfRange
	}
	s.volume = v
	if s.ctrl != nil {
		s.ctrl.SetVolume(v)
	}
	return nil
}

func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// RemoveTracksBy filters out every track requested by requester, current and
// pending alike, preserving the order of survivors. Returns how many were
// removed.
func (s *Session) RemoveTracksBy(requester string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tracks[:0]
	removed := 0
	for _, t := range s.tracks {
		if t.RequestedBy == requester {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tracks = kept
	return removed
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Tracks returns a snapshot copy for rendering.
func (s *Session) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// BindConnection attaches the voice connection. Returns false when the
// session was torn down while the caller was connecting; the caller must then
// release the connection itself.
func (s *Session) BindConnection(c Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = c
	return true
}

// BindController attaches the playback controller for the track about to
// play and marks the session playing. A false return means the session died
// mid-acquisition and the late stream must be discarded.
func (s *Session) BindController(c Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ctrl = c
	s.playing = true
	c.SetVolume(s.volume)
	return true
}

// ClearController detaches the controller after a track finishes.
func (s *Session) ClearController() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = nil
	s.playing = false
}

// StopCurrent stops whatever is playing. The controller's stop surfaces as an
// idle signal to the driver, which then advances.
func (s *Session) StopCurrent() {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl != nil {
		ctrl.Stop()
	}
}

func (s *Session) Pause() error {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return ErrNoActiveQueue
	}
	if err := ctrl.Pause(); err != nil {
		return err
	}
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return ErrNoActiveQueue
	}
	if err := ctrl.Resume(); err != nil {
		return err
	}
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	return nil
}

// Teardown stops the controller, destroys the connection and closes the
// session. Safe to call more than once; only the first call does work.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ctrl := s.ctrl
	conn := s.conn
	s.ctrl = nil
	s.conn = nil
	s.playing = false
	s.tracks = nil
	close(s.done)
	s.mu.Unlock()

	if ctrl != nil {
		ctrl.Stop()
	}
	if conn != nil {
		_ = conn.Destroy()
	}
}
