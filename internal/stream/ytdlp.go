package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

// MediaInfo is the subset of yt-dlp output the bot cares about. MediaURL is
// the direct, streamable URL ffmpeg opens; WebpageURL is the stable locator
// stored on queued tracks.
type MediaInfo struct {
	ID         string
	Title      string
	Uploader   string
	Duration   float64
	IsLive     bool
	WebpageURL string
	MediaURL   string
	Thumbnail  string
}

var installOnce sync.Once

func ensureInstalled(ctx context.Context) {
	installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})
}

func strv(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatv(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func boolv(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

func fromExtracted(e *ytdlp.ExtractedInfo) MediaInfo {
	mi := MediaInfo{
		ID:         e.ID,
		Title:      strv(e.Title),
		Uploader:   strv(e.Uploader),
		Duration:   floatv(e.Duration),
		IsLive:     boolv(e.IsLive),
		WebpageURL: strv(e.WebpageURL),
	}
	for _, t := range e.Thumbnails {
		if t != nil && t.URL != "" {
			mi.Thumbnail = t.URL
		}
	}
	// Direct URL priority: requested formats, top-level url, then formats[].
	for _, rf := range e.RequestedFormats {
		if rf != nil && strings.HasPrefix(rf.URL, "http") {
			mi.MediaURL = rf.URL
			return mi
		}
	}
	if u := strv(e.URL); strings.HasPrefix(u, "http") {
		mi.MediaURL = u
		return mi
	}
	for _, f := range e.Formats {
		if f != nil && strings.HasPrefix(f.URL, "http") {
			mi.MediaURL = f.URL
			return mi
		}
	}
	return mi
}

// FetchInfo runs yt-dlp -J against a single locator (watch URL, video ID, or
// ytsearch1: query) and returns the first item.
func FetchInfo(ctx context.Context, locator string) (*MediaInfo, error) {
	ensureInstalled(ctx)

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("parse yt-dlp json: no info returned")
	}
	ext := infos[0]

	// Search results and single-entry playlists come back as containers.
	for _, e := range ext.Entries {
		if e != nil {
			mi := fromExtracted(e)
			return &mi, nil
		}
	}
	mi := fromExtracted(ext)
	return &mi, nil
}

// FetchPlaylist runs a flat-playlist dump and returns one MediaInfo per
// entry, at most limit when limit > 0. Entries carry metadata only; MediaURL
// stays empty until the track is actually acquired for playback.
func FetchPlaylist(ctx context.Context, locator string, limit int) ([]MediaInfo, error) {
	ensureInstalled(ctx)

	cmd := ytdlp.New().
		FlatPlaylist().
		DumpJSON()
	if limit > 0 {
		cmd = cmd.PlaylistItems(fmt.Sprintf("1-%d", limit))
	}

	res, err := cmd.Run(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp playlist fetch: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp playlist json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("yt-dlp returned empty playlist info")
	}

	pl := infos[0]
	out := make([]MediaInfo, 0, len(pl.Entries))
	for _, e := range pl.Entries {
		if e == nil {
			continue
		}
		out = append(out, fromExtracted(e))
	}
	return out, nil
}

// FormatDescriptor describes the audio format a locator resolved to.
type FormatDescriptor struct {
	Container   string
	BitrateKbps int
}

func (f FormatDescriptor) String() string {
	if f.BitrateKbps > 0 {
		return fmt.Sprintf("%s - %dkbps", strings.ToUpper(f.Container), f.BitrateKbps)
	}
	return strings.ToUpper(f.Container)
}

// BestFormat asks yt-dlp which audio format playback would select. Failures
// only cost the quality line in the now-playing message.
func BestFormat(ctx context.Context, locator string) (FormatDescriptor, bool) {
	ensureInstalled(ctx)

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		Print("%(ext)s\t%(abr)s")

	res, err := cmd.Run(ctx, locator)
	if err != nil {
		return FormatDescriptor{}, false
	}
	line := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	parts := strings.Split(line, "\t")
	if len(parts) == 0 || parts[0] == "" || parts[0] == "NA" {
		return FormatDescriptor{}, false
	}
	fd := FormatDescriptor{Container: parts[0]}
	if len(parts) > 1 {
		if abr, err := strconv.ParseFloat(parts[1], 64); err == nil {
			fd.BitrateKbps = int(abr)
		}
	}
	return fd, true
}
