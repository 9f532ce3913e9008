package queue

import "errors"

var (
	ErrAlreadyActive      = errors.New("a session is already active for this guild")
	ErrNoActiveQueue      = errors.New("no active queue for this guild")
	ErrInsufficientTracks = errors.New("not enough tracks to shuffle")
	ErrVolumeOutOfRange   = errors.New("volume must be between 0.0 and 2.0")
)
