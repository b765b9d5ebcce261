package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"ffqueue/internal/logging"
	"ffqueue/internal/services"
)

const (
	playlistParam  = "list="
	paramSeparator = "&"

	// DefaultTimeout bounds one playlist lookup.
	DefaultTimeout = 60 * time.Second

	videoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Item is one video of a playlist.
type Item struct {
	VideoID string
	Title   string
}

// URL returns the watch URL for the item.
func (i Item) URL() string {
	return fmt.Sprintf(videoURLTemplate, i.VideoID)
}

// Lister fetches the items of a playlist.
type Lister interface {
	Items(ctx context.Context, playlistID string) ([]Item, error)
}

// LibraryLister resolves playlists with the ytdlp library.
type LibraryLister struct{}

// Items implements Lister.
func (LibraryLister) Items(ctx context.Context, playlistID string) ([]Item, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.VideoID) == "" {
			continue
		}
		out = append(out, Item{VideoID: it.VideoID, Title: it.Title})
	}
	return out, nil
}

// ID extracts the playlist id from url, or "" when url names no playlist.
func ID(url string) string {
	_, after, found := strings.Cut(url, playlistParam)
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, paramSeparator)
	return strings.TrimSpace(id)
}

// Expander replaces playlist URLs with the URLs of their videos.
type Expander struct {
	Lister  Lister
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewExpander returns an Expander backed by the ytdlp library.
func NewExpander(logger *slog.Logger) *Expander {
	return &Expander{Lister: LibraryLister{}, Timeout: DefaultTimeout, Logger: logger}
}

// Expand returns urls with every playlist URL replaced by its videos, in
// order. A playlist that cannot be listed, or that lists nothing, is kept as
// the original URL so the downloader can still try it.
func (e *Expander) Expand(ctx context.Context, urls []string) ([]string, error) {
	logger := logging.NewComponentLogger(e.Logger, "playlist")
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "playlist", "expand", "", err)
		}
		id := ID(url)
		if id == "" || e.Lister == nil {
			out = append(out, url)
			continue
		}
		items, err := e.list(ctx, id)
		if err != nil || len(items) == 0 {
			attrs := []logging.Attr{
				logging.String("url", url),
				logging.String("playlist_id", id),
				logging.String(logging.FieldErrorHint, "the URL is passed to the downloader unchanged"),
			}
			if err != nil {
				attrs = append(attrs, logging.Error(err))
			}
			logging.WarnWithContext(logger, "playlist expansion failed", "playlist_expand_failed", attrs...)
			out = append(out, url)
			continue
		}
		logger.Info("playlist expanded",
			logging.String(logging.FieldEventType, "playlist_expanded"),
			logging.String("playlist_id", id),
			logging.Int("videos", len(items)),
		)
		for _, item := range items {
			out = append(out, item.URL())
		}
	}
	return out, nil
}

func (e *Expander) list(ctx context.Context, id string) ([]Item, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.Lister.Items(ctx, id)
}
