package playback

import (
	"testing"

	"github.com/jaeyopark/mellow/internal/queue"
)

type stopCounter struct {
	stops int
}

func (s *stopCounter) Stop()             { s.stops++ }
func (s *stopCounter) Pause() error      { return nil }
func (s *stopCounter) Resume() error     { return nil }
func (s *stopCounter) SetVolume(float64) {}

func TestWatcherLeavesWhenChannelEmpties(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u1"))

	n := &fakeNotifier{}
	w := &Watcher{Store: st, Notify: n}
	w.HandleDeparture("g", "vc", "u1", 0, true)

	if n.everyoneLeft != 1 {
		t.Errorf("everyoneLeft = %d, want 1", n.everyoneLeft)
	}
	if st.Get("g") != nil {
		t.Error("session not destroyed on empty channel")
	}
}

func TestWatcherStaysWhenLeaveDisabled(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u1"))

	n := &fakeNotifier{}
	w := &Watcher{Store: st, Notify: n}
	w.HandleDeparture("g", "vc", "u1", 0, false)

	if st.Get("g") == nil {
		t.Fatal("session destroyed despite leave_if_no_listeners=false")
	}
	// The departed user's tracks still go.
	if sess.Len() != 0 {
		t.Errorf("Len = %d, want 0", sess.Len())
	}
	if n.everyoneLeft != 0 {
		t.Errorf("everyoneLeft = %d, want 0", n.everyoneLeft)
	}
}

func TestWatcherDropsDeparterTracksAndSkipsTheirCurrent(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u1"), trk("b", "u2"), trk("c", "u1"))
	ctrl := &stopCounter{}
	sess.BindController(ctrl)

	n := &fakeNotifier{}
	w := &Watcher{Store: st, Notify: n}
	w.HandleDeparture("g", "vc", "u1", 2, true)

	if len(n.removed) != 1 || n.removed[0] != 2 {
		t.Errorf("removed = %v, want [2]", n.removed)
	}
	if ctrl.stops != 1 {
		t.Errorf("current track stopped %d times, want 1", ctrl.stops)
	}
	got := sess.Tracks()
	if len(got) != 1 || got[0].Title != "b" {
		t.Errorf("survivors = %v, want [b]", got)
	}
}

func TestWatcherIgnoresOtherChannelsAndGuilds(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u1"))

	n := &fakeNotifier{}
	w := &Watcher{Store: st, Notify: n}

	w.HandleDeparture("g", "other-vc", "u1", 0, true)
	w.HandleDeparture("unknown", "vc", "u1", 0, true)

	if st.Get("g") == nil || sess.Len() != 1 {
		t.Error("watcher acted on an unrelated channel")
	}
}

func TestWatcherLeavesOtherUsersTracksAlone(t *testing.T) {
	st := queue.NewStore()
	sess, _ := st.Create("g", "text", "vc")
	sess.Enqueue(trk("a", "u2"), trk("b", "u2"))
	ctrl := &stopCounter{}
	sess.BindController(ctrl)

	n := &fakeNotifier{}
	w := &Watcher{Store: st, Notify: n}
	w.HandleDeparture("g", "vc", "u1", 3, true)

	if len(n.removed) != 0 {
		t.Errorf("removed = %v, want none", n.removed)
	}
	if ctrl.stops != 0 {
		t.Errorf("current track stopped %d times, want 0", ctrl.stops)
	}
	if sess.Len() != 2 {
		t.Errorf("Len = %d, want 2", sess.Len())
	}
}
