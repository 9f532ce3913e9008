// Package resolver turns user-supplied locators (URLs, video IDs, free-text
// search, Spotify links) into playable queue tracks.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jaeyopark/mellow/internal/queue"
	"github.com/jaeyopark/mellow/internal/stream"
)

var (
	ErrNotFound    = errors.New("no playable media found")
	ErrUnavailable = errors.New("media source unavailable")
	ErrRateLimited = errors.New("media source rate limited")
)

var videoIDRe = regexp.MustCompile(`^[\w-]{11}$`)

// IsValidSingleLocator reports whether text points at exactly one track: a watch
// URL, a short URL, a bare video ID, or a Spotify track link.
func IsValidSingleLocator(text string) bool {
	if videoIDRe.MatchString(text) {
		return true
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return false
	}
	switch {
	case strings.Contains(u.Host, "youtu.be"):
		return true
	case strings.Contains(u.Host, "youtube.com"):
		return u.Query().Get("v") != "" && u.Query().Get("list") == ""
	case strings.Contains(u.Host, "spotify.com"):
		return strings.Contains(u.Path, "/track/")
	}
	return false
}

// IsValidCollectionLocator reports whether text points at a multi-track source: a
// playlist URL or a Spotify album/playlist/artist link.
func IsValidCollectionLocator(text string) bool {
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return false
	}
	switch {
	case strings.Contains(u.Host, "youtube.com"):
		return u.Query().Get("list") != ""
	case strings.Contains(u.Host, "spotify.com"):
		return strings.Contains(u.Path, "/album/") ||
			strings.Contains(u.Path, "/playlist/") ||
			strings.Contains(u.Path, "/artist/")
	}
	return false
}

// Resolver resolves locators via yt-dlp, with optional Spotify metadata
// lookup for spotify.com links.
type Resolver struct {
	spotify *SpotifyClient
}

func New(spotify *SpotifyClient) *Resolver {
	return &Resolver{spotify: spotify}
}

// normalizeSingle rewrites a locator into something yt-dlp resolves to one
// item.
func normalizeSingle(text string) string {
	if videoIDRe.MatchString(text) {
		return "https://www.youtube.com/watch?v=" + text
	}
	if u, err := url.Parse(text); err == nil && u.Host != "" {
		return text
	}
	return "ytsearch1:" + text
}

func trackFromInfo(mi *stream.MediaInfo, requestedBy string) queue.Track {
	locator := mi.WebpageURL
	if locator == "" {
		locator = "https://www.youtube.com/watch?v=" + mi.ID
	}
	return queue.Track{
		Title:           mi.Title,
		Locator:         locator,
		DurationSeconds: int(mi.Duration),
		ThumbnailURL:    mi.Thumbnail,
		RequestedBy:     requestedBy,
	}
}

// ResolveSingle resolves one track. Free text becomes a search; the first
// result wins.
func (r *Resolver) ResolveSingle(ctx context.Context, text, requestedBy string) (queue.Track, error) {
	if r.spotify != nil && isSpotifyLink(text) {
		tracks, err := r.spotify.Resolve(ctx, text, 1, requestedBy)
		if err != nil {
			return queue.Track{}, err
		}
		if len(tracks) == 0 {
			return queue.Track{}, ErrNotFound
		}
		return tracks[0], nil
	}

	mi, err := stream.FetchInfo(ctx, normalizeSingle(text))
	if err != nil {
		return queue.Track{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if mi.Title == "" && mi.ID == "" {
		return queue.Track{}, ErrNotFound
	}
	return trackFromInfo(mi, requestedBy), nil
}

// ResolveCollection resolves a playlist-like locator into at most limit
// tracks, preserving source order.
func (r *Resolver) ResolveCollection(ctx context.Context, text string, limit int, requestedBy string) ([]queue.Track, error) {
	if r.spotify != nil && isSpotifyLink(text) {
		return r.spotify.Resolve(ctx, text, limit, requestedBy)
	}

	infos, err := stream.FetchPlaylist(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	out := make([]queue.Track, 0, len(infos))
	for i := range infos {
		out = append(out, trackFromInfo(&infos[i], requestedBy))
	}
	return out, nil
}

func isSpotifyLink(text string) bool {
	u, err := url.Parse(text)
	return err == nil && strings.Contains(u.Host, "spotify.com")
}
