// Package permission decides whether an actor may perform a mutating action
// on a guild's playback session. All checks are pure functions of the actor's
// standing; the dispatcher gathers that standing from gateway state.
package permission

import "errors"

// ErrDenied is what every failed policy check returns. It is distinct from
// queue.ErrNoActiveQueue so callers can word replies differently.
var ErrDenied = errors.New("permission denied")

// Actor captures everything the policy needs to know about the command issuer.
type Actor struct {
	ID             string
	IsAdmin        bool
	AloneInChannel bool
}

func check(allowed bool) error {
	if allowed {
		return nil
	}
	return ErrDenied
}

// CanSkip allows administrators and the requester of the current track.
func CanSkip(a Actor, currentRequester string) error {
	return check(a.IsAdmin || (currentRequester != "" && a.ID == currentRequester))
}

func CanStop(a Actor) error { return check(a.IsAdmin) }

func CanShuffle(a Actor) error { return check(a.IsAdmin) }

func CanForceLeave(a Actor) error { return check(a.IsAdmin) }

// CanPause allows administrators, or the current requester when nobody else
// is listening in the channel.
func CanPause(a Actor, currentRequester string) error {
	return check(a.IsAdmin || (a.AloneInChannel && currentRequester != "" && a.ID == currentRequester))
}

func CanResume(a Actor, currentRequester string) error {
	return CanPause(a, currentRequester)
}

// CanEnqueue has no restriction beyond being in the target voice channel,
// which the dispatcher enforces before resolving anything.
func CanEnqueue(Actor) error { return nil }

func CanAdjustVolume(Actor) error { return nil }
