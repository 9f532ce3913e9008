package queue

// Track is one queued item. Immutable once enqueued; Locator is an opaque
// handle that the resolver and audio source know how to open.
type Track struct {
	Title           string
	Locator         string
	DurationSeconds int
	ThumbnailURL    string
	RequestedBy     string
}
