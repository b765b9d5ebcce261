package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"ffqueue/internal/logging"
	"ffqueue/internal/services"
)

// Result is the subset of ffprobe's JSON output ffqueue uses.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream in the container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Format holds container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// DurationSeconds returns the container duration, falling back to the
// longest stream. It returns 0 when nothing usable is reported.
func (r Result) DurationSeconds() float64 {
	if d := parseSeconds(r.Format.Duration); d > 0 {
		return d
	}
	var longest float64
	for _, stream := range r.Streams {
		if d := parseSeconds(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

// StreamCount returns the number of streams of codecType ("video", "audio").
func (r Result) StreamCount(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// Inspect runs ffprobe against path and decodes its JSON report.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "inspect", "empty path", nil)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrExecutableNotFound, "probe", "inspect", binary, err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "inspect",
			strings.TrimSpace(stderr.String()), err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "parse", "invalid ffprobe JSON", err)
	}
	return result, nil
}

// Prober resolves the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe is a Prober backed by the ffprobe binary.
type FFprobe struct {
	Binary string
	// Timeout bounds each probe; zero means 30s.
	Timeout time.Duration
}

// Duration implements Prober.
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

// Durations probes every path and returns the known durations keyed by path.
// Failures are logged at debug level and leave the entry absent.
func Durations(ctx context.Context, prober Prober, paths []string, logger *slog.Logger) map[string]float64 {
	if logger == nil {
		logger = logging.NewNop()
	}
	out := make(map[string]float64, len(paths))
	if prober == nil {
		return out
	}
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		seconds, err := prober.Duration(ctx, path)
		if err != nil {
			logger.Debug("duration probe failed; progress percentage unavailable",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		if seconds > 0 {
			out[path] = seconds
		}
	}
	return out
}

func parseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}

// String renders a duration for logs.
func String(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	return fmt.Sprint(time.Duration(seconds * float64(time.Second)).Round(time.Millisecond))
}
