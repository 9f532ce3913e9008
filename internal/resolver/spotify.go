package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jaeyopark/mellow/internal/queue"
)

// SpotifyClient resolves Spotify links into queue tracks. Spotify only
// provides metadata; each track gets a search locator that playback resolves
// against the media source at stream time.
type SpotifyClient struct {
	raw *spotify.Client
}

func NewSpotifyClient(clientID, clientSecret string) (*SpotifyClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify credentials not configured")
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	return &SpotifyClient{raw: spotify.New(httpClient, spotify.WithRetry(true))}, nil
}

func parseSpotifyID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 {
			return parts[1], spotify.ID(parts[2]), nil
		}
		return "", "", fmt.Errorf("invalid spotify URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid spotify URL path")
	}
	switch parts[0] {
	case "album", "playlist", "track", "artist":
		return parts[0], spotify.ID(parts[1]), nil
	}
	return "", "", fmt.Errorf("unsupported spotify type %q", parts[0])
}

func searchTrack(name, artist string, durationSec int, requestedBy string) queue.Track {
	title := name
	if artist != "" {
		title = artist + " - " + name
	}
	return queue.Track{
		Title:           title,
		Locator:         "ytsearch1:" + title,
		DurationSeconds: durationSec,
		RequestedBy:     requestedBy,
	}
}

func simpleTrack(t spotify.SimpleTrack, requestedBy string) queue.Track {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return searchTrack(t.Name, artist, int(t.TimeDuration().Seconds()), requestedBy)
}

func fullTrack(t *spotify.FullTrack, requestedBy string) queue.Track {
	tr := simpleTrack(t.SimpleTrack, requestedBy)
	for _, img := range t.Album.Images {
		if img.URL != "" {
			tr.ThumbnailURL = img.URL
			break
		}
	}
	return tr
}

// Resolve maps a Spotify link to at most limit queue tracks. Albums and
// playlists are paged until the limit; artists yield their top tracks.
func (c *SpotifyClient) Resolve(ctx context.Context, link string, limit int, requestedBy string) ([]queue.Track, error) {
	typ, id, err := parseSpotifyID(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	switch typ {
	case "track":
		t, err := c.raw.GetTrack(ctx, id)
		if err != nil {
			return nil, spotifyErr(err)
		}
		return []queue.Track{fullTrack(t, requestedBy)}, nil

	case "album":
		page, err := c.raw.GetAlbumTracks(ctx, id)
		if err != nil {
			return nil, spotifyErr(err)
		}
		var out []queue.Track
		for {
			for _, t := range page.Tracks {
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
				out = append(out, simpleTrack(t, requestedBy))
			}
			if page.Next == "" {
				return out, nil
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				return out, nil
			}
		}

	case "playlist":
		page, err := c.raw.GetPlaylistItems(ctx, id)
		if err != nil {
			return nil, spotifyErr(err)
		}
		var out []queue.Track
		for {
			for _, it := range page.Items {
				if it.Track.Track == nil {
					continue
				}
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
				out = append(out, fullTrack(it.Track.Track, requestedBy))
			}
			if page.Next == "" {
				return out, nil
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				return out, nil
			}
		}

	case "artist":
		top, err := c.raw.GetArtistsTopTracks(ctx, id, "US")
		if err != nil {
			return nil, spotifyErr(err)
		}
		out := make([]queue.Track, 0, len(top))
		for i := range top {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, fullTrack(&top[i], requestedBy))
		}
		return out, nil
	}
	return nil, ErrNotFound
}

func spotifyErr(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
