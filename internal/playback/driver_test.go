package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/stream"
	"github.com/jaeyopark/mellow/internal/voice"
)

type fakeNotifier struct {
	nowPlaying   []queue.Track
	remaining    []int
	formats      []string
	queueEmpty   int
	playbackErrs int
	aborted      int
	everyoneLeft int
	removed      []int
}

func (f *fakeNotifier) NowPlaying(_ string, t queue.Track, remaining int, format string) {
	f.nowPlaying = append(f.nowPlaying, t)
	f.remaining = append(f.remaining, remaining)
	f.formats = append(f.formats, format)
}
func (f *fakeNotifier) QueueEmpty(string)                        { f.queueEmpty++ }
func (f *fakeNotifier) PlaybackError(string, queue.Track, error) { f.playbackErrs++ }
func (f *fakeNotifier) PlaybackAborted(string)                   { f.aborted++ }
func (f *fakeNotifier) EveryoneLeft(string)                      { f.everyoneLeft++ }
func (f *fakeNotifier) TracksRemoved(_ string, n int)            { f.removed = append(f.removed, n) }

type fakePlayhead struct {
	events chan voice.Event
	closed int
	volume float64
}

func finishedPlayhead() *fakePlayhead {
	ph := &fakePlayhead{events: make(chan voice.Event, 1)}
	ph.events <- voice.Event{}
	return ph
}

func (f *fakePlayhead) Stop()                      {}
func (f *fakePlayhead) Pause() error               { return nil }
func (f *fakePlayhead) Resume() error              { return nil }
func (f *fakePlayhead) SetVolume(v float64)        { f.volume = v }
func (f *fakePlayhead) Events() <-chan voice.Event { return f.events }
func (f *fakePlayhead) Close()                     { f.closed++ }

func trk(title, by string) queue.Track {
	return queue.Track{Title: title, Locator: "loc-" + title, RequestedBy: by}
}

func TestDriverPlaysQueueInOrder(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u"), trk("b", "u"), trk("c", "u"))

	n := &fakeNotifier{}
	var opened []string
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(_ context.Context, locator string) (Playhead, error) {
			opened = append(opened, locator)
			return finishedPlayhead(), nil
		},
		Format: func(context.Context, string) (stream.FormatDescriptor, bool) {
			return stream.FormatDescriptor{Container: "opus", BitrateKbps: 160}, true
		},
		Notify: n,
	}
	d.Run(context.Background())

	want := []string{"loc-a", "loc-b", "loc-c"}
	if len(opened) != len(want) {
		t.Fatalf("opened %v, want %v", opened, want)
	}
	for i := range want {
		if opened[i] != want[i] {
			t.Errorf("opened[%d] = %q, want %q", i, opened[i], want[i])
		}
	}
	if len(n.nowPlaying) != 3 || n.nowPlaying[0].Title != "a" {
		t.Errorf("nowPlaying = %v", n.nowPlaying)
	}
	if n.remaining[0] != 2 || n.remaining[2] != 0 {
		t.Errorf("remaining = %v, want [2 1 0]", n.remaining)
	}
	if n.formats[0] != "OPUS - 160kbps" {
		t.Errorf("format = %q", n.formats[0])
	}
	if n.queueEmpty != 1 {
		t.Errorf("queueEmpty notified %d times, want 1", n.queueEmpty)
	}
	if st.Get("g") != nil {
		t.Error("session not destroyed after queue drained")
	}
}

func TestDriverSingleTrackPlaysThenLeaves(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(queue.Track{Title: "A", Locator: "loc-A", DurationSeconds: 125, RequestedBy: "u"})

	if sess.Len() != 1 {
		t.Fatalf("Len = %d, want 1", sess.Len())
	}

	n := &fakeNotifier{}
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(context.Context, string) (Playhead, error) {
			return finishedPlayhead(), nil
		},
		Notify: n,
	}
	d.Run(context.Background())

	if len(n.nowPlaying) != 1 || n.nowPlaying[0].Title != "A" {
		t.Errorf("nowPlaying = %v, want [A]", n.nowPlaying)
	}
	if n.remaining[0] != 0 {
		t.Errorf("remaining = %d, want 0", n.remaining[0])
	}
	if n.queueEmpty != 1 || st.Get("g") != nil {
		t.Error("session should be destroyed after its only track finishes")
	}
}

func TestDriverAbortsAfterConsecutiveFailures(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u"), trk("b", "u"), trk("c", "u"), trk("d", "u"))

	n := &fakeNotifier{}
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(context.Context, string) (Playhead, error) {
			return nil, errors.New("no stream")
		},
		Notify:      n,
		MaxFailures: 2,
	}
	d.Run(context.Background())

	if n.playbackErrs != 2 {
		t.Errorf("playback errors = %d, want 2", n.playbackErrs)
	}
	if n.aborted != 1 {
		t.Errorf("aborted notified %d times, want 1", n.aborted)
	}
	if st.Get("g") != nil {
		t.Error("session not destroyed after abort")
	}
}

func TestDriverFailureCounterResetsOnSuccess(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u"), trk("b", "u"), trk("c", "u"))

	n := &fakeNotifier{}
	calls := 0
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(context.Context, string) (Playhead, error) {
			calls++
			if calls%2 == 1 {
				return nil, errors.New("flaky")
			}
			return finishedPlayhead(), nil
		},
		Notify:      n,
		MaxFailures: 2,
	}
	d.Run(context.Background())

	// Alternating failures never reach two in a row.
	if n.aborted != 0 {
		t.Errorf("aborted = %d, want 0", n.aborted)
	}
	if n.queueEmpty != 1 {
		t.Errorf("queueEmpty = %d, want 1", n.queueEmpty)
	}
}

func TestDriverDiscardsLateStream(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u"))

	n := &fakeNotifier{}
	ph := finishedPlayhead()
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(context.Context, string) (Playhead, error) {
			// Session dies while the stream is being acquired.
			st.Destroy("g")
			return ph, nil
		},
		Notify: n,
	}
	d.Run(context.Background())

	if ph.closed != 1 {
		t.Errorf("late playhead closed %d times, want 1", ph.closed)
	}
	if len(n.nowPlaying) != 0 {
		t.Errorf("nowPlaying sent for a dead session: %v", n.nowPlaying)
	}
}

func TestDriverStopsOnTeardownDuringPlayback(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u"), trk("b", "u"))

	n := &fakeNotifier{}
	ph := &fakePlayhead{events: make(chan voice.Event, 1)}
	d := &Driver{
		Sess:  sess,
		Store: st,
		Open: func(context.Context, string) (Playhead, error) {
			return ph, nil
		},
		Notify: n,
	}

	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()

	// Wait for playback to start, then tear the session down.
	for !sess.Playing() {
		time.Sleep(time.Millisecond)
	}
	st.Destroy("g")
	<-done

	if ph.closed != 1 {
		t.Errorf("playhead closed %d times, want 1", ph.closed)
	}
	if n.queueEmpty != 0 {
		t.Errorf("queueEmpty = %d, want 0 after forced teardown", n.queueEmpty)
	}
}
