package ytinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ffqueue/internal/runner"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxReleaseBody     = 1 << 20
)

// HTTPDoer describes the HTTP client used for the release lookup.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client runs yt-dlp queries through the same executor as downloads.
type Client struct {
	Builder    task.DownloadBuilder
	Exec       runner.Executor
	HTTP       HTTPDoer
	ReleaseURL string
}

// Formats returns the format table yt-dlp prints for url.
func (c Client) Formats(ctx context.Context, url string) ([]string, error) {
	argv, err := c.Builder.FormatsCommand(url)
	if err != nil {
		return nil, err
	}
	return c.output(ctx, "formats", argv)
}

// InstalledVersion returns the version reported by the configured yt-dlp.
func (c Client) InstalledVersion(ctx context.Context) (string, error) {
	lines, err := c.output(ctx, "version", c.Builder.VersionCommand())
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if v := strings.TrimSpace(line); v != "" {
			return v, nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "ytinfo", "version", "yt-dlp printed no version", nil)
}

// LatestVersion reads the newest release from ReleaseURL. The body may be a
// GitHub release document (its tag_name is used) or a bare version string.
func (c Client) LatestVersion(ctx context.Context) (string, error) {
	url := strings.TrimSpace(c.ReleaseURL)
	if url == "" {
		return "", services.Wrap(services.ErrConfiguration, "ytinfo", "latest", "downloader.release_url is empty", nil)
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ytinfo", "latest", "build release request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "ffqueue")

	resp, err := client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ytinfo", "latest", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrExternalTool, "ytinfo", "latest",
			fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseBody))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "ytinfo", "latest", "read release body", err)
	}
	version := parseRelease(body)
	if version == "" {
		return "", services.Wrap(services.ErrExternalTool, "ytinfo", "latest", "release response carries no version", nil)
	}
	return version, nil
}

func parseRelease(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var release struct {
			TagName string `json:"tag_name"`
			Name    string `json:"name"`
		}
		if err := json.Unmarshal([]byte(trimmed), &release); err != nil {
			return ""
		}
		if tag := strings.TrimSpace(release.TagName); tag != "" {
			return tag
		}
		return strings.TrimSpace(release.Name)
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	return strings.TrimSpace(first)
}

// SameVersion compares two version strings, ignoring a leading "v" and
// surrounding space.
func SameVersion(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimPrefix(strings.TrimSpace(s), "v")
	}
	return norm(a) != "" && norm(a) == norm(b)
}

func (c Client) output(ctx context.Context, op string, argv []string) ([]string, error) {
	exec := c.Exec
	if exec == nil {
		exec = runner.CommandExecutor{}
	}
	var lines []string
	code, err := exec.Run(ctx, argv, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, err
	}
	if code != 0 {
		last := ""
		if len(lines) > 0 {
			last = strings.TrimSpace(lines[len(lines)-1])
		}
		return nil, services.Wrap(services.ErrExternalTool, "ytinfo", op,
			fmt.Sprintf("%s exited with status %d: %s", argv[0], code, last), nil)
	}
	return lines, nil
}
