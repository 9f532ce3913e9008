package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jaeyopark/mellow/internal/config"
	"github.com/jaeyopark/mellow/internal/queue"
)

type recordingMessenger struct {
	texts  []string
	errs   []string
	helped int
}

func (r *recordingMessenger) Text(_ string, content string) { r.texts = append(r.texts, content) }
func (r *recordingMessenger) Error(_ string, msg string)    { r.errs = append(r.errs, msg) }
func (r *recordingMessenger) Help(string, string)           { r.helped++ }

func (r *recordingMessenger) NowPlaying(string, queue.Track, int, string) {}
func (r *recordingMessenger) QueueEmpty(string)                           {}
func (r *recordingMessenger) PlaybackError(string, queue.Track, error)    {}
func (r *recordingMessenger) PlaybackAborted(string)                      {}
func (r *recordingMessenger) EveryoneLeft(string)                         {}
func (r *recordingMessenger) TracksRemoved(string, int)                   {}
func (r *recordingMessenger) AddedTrack(string, queue.Track, int)         {}
func (r *recordingMessenger) AddedCollection(string, int)                 {}
func (r *recordingMessenger) Queue(string, []queue.Track, float64, bool)  {}

func message(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		Content:   content,
		GuildID:   "g",
		ChannelID: "text",
		Author:    &discordgo.User{ID: "u"},
	}}
}

func testHandler(st *queue.Store, rec *recordingMessenger) *CommandHandler {
	return &CommandHandler{cfg: &config.Config{Prefix: "!"}, store: st, notify: rec}
}

func TestVolumeWithoutArgumentReportsCurrent(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	if err := sess.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}

	rec := &recordingMessenger{}
	testHandler(st, rec).HandleMessage(nil, message("!volume"))

	if len(rec.texts) != 1 || rec.texts[0] != "🔊 Volume is 50%." {
		t.Errorf("texts = %q, want a volume report", rec.texts)
	}
	if len(rec.errs) != 0 {
		t.Errorf("errs = %q, want none", rec.errs)
	}
}

func TestVolumeWithoutSessionErrors(t *testing.T) {
	rec := &recordingMessenger{}
	testHandler(queue.NewStore(), rec).HandleMessage(nil, message("!volume"))

	if len(rec.errs) != 1 || rec.errs[0] != "Nothing is playing." {
		t.Errorf("errs = %q, want nothing-playing", rec.errs)
	}
}

func TestVolumeWithMalformedArgumentErrors(t *testing.T) {
	st := queue.NewStore()
	st.Create("g", "text", "vc")

	rec := &recordingMessenger{}
	testHandler(st, rec).HandleMessage(nil, message("!volume loud"))

	if len(rec.errs) != 1 || rec.errs[0] != "Usage: `!volume [0-200]`" {
		t.Errorf("errs = %q, want usage", rec.errs)
	}
}

func TestHandleMessageIgnoresUnprefixed(t *testing.T) {
	rec := &recordingMessenger{}
	h := testHandler(queue.NewStore(), rec)
	h.HandleMessage(nil, message("volume"))
	h.HandleMessage(nil, message("!"))

	if len(rec.texts) != 0 || len(rec.errs) != 0 {
		t.Errorf("replies = %q %q, want none", rec.texts, rec.errs)
	}
}
