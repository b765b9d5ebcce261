package task_test

import (
	"errors"
	"reflect"
	"testing"

	"ffqueue/internal/config"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

func TestBuilderCommandOrder(t *testing.T) {
	b := task.Builder{
		FFmpeg:      "/usr/bin/ffmpeg",
		TimeSeq:     "-ss 00:00:10 -t 00:01:00",
		LogLevel:    "-loglevel info",
		ExtraParams: "-hide_banner",
		Threads:     "-threads 4",
	}
	d := task.Descriptor{
		Input:  "/in/my movie.mov",
		Output: "/out/my movie_x.mkv",
		Args:   `-c:v libx264 -vf "scale=1280:-2,fps=30"`,
		Volume: "-af volume=2dB",
	}

	argv, err := b.Command(d)
	if err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	want := []string{
		"/usr/bin/ffmpeg",
		"-ss", "00:00:10", "-t", "00:01:00",
		"-loglevel", "info",
		"-hide_banner",
		"-i", "/in/my movie.mov",
		"-c:v", "libx264", "-vf", "scale=1280:-2,fps=30",
		"-af", "volume=2dB",
		"-threads", "4",
		"-y", "/out/my movie_x.mkv",
	}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv mismatch\n got: %q\nwant: %q", argv, want)
	}
}

func TestBuilderDropsEmptySegments(t *testing.T) {
	b := task.NewBuilder(config.FFmpeg{Binary: "ffmpeg"})
	argv, err := b.Command(task.Descriptor{Input: "a.mov", Output: "b.mkv", Args: "-c copy"})
	if err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	want := []string{"ffmpeg", "-i", "a.mov", "-c", "copy", "-y", "b.mkv"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv = %q, want %q", argv, want)
	}
}

func TestBuilderRejectsUnbalancedQuotes(t *testing.T) {
	b := task.Builder{FFmpeg: "ffmpeg"}
	_, err := b.Command(task.Descriptor{Input: "a", Output: "b", Args: `-vf "scale=1280:-2`})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = b.Command(task.Descriptor{Output: "b"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
}

func TestDownloadBuilder(t *testing.T) {
	b := task.NewDownloadBuilder(config.Downloader{
		Binary:         "yt-dlp",
		Format:         "best",
		ExtraArgs:      "--no-playlist",
		OutputTemplate: "%(title)s.%(ext)s",
	}, "/downloads")

	queue := b.DownloadQueue([]string{"https://example.com/a", "https://example.com/b"})
	if len(queue) != 2 || queue[1].Index != 2 || queue[1].Total != 2 {
		t.Fatalf("unexpected queue %+v", queue)
	}
	if queue[0].Kind != task.KindDownload {
		t.Fatalf("unexpected kind %q", queue[0].Kind)
	}

	argv, err := b.Command(queue[0])
	if err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	if argv[0] != "yt-dlp" || argv[len(argv)-1] != "https://example.com/a" {
		t.Fatalf("expected binary first and url last, got %q", argv)
	}
	requireArg(t, argv, "--newline")
	requireArg(t, argv, "--no-playlist")
	requireFlagValue(t, argv, "best", "-f", "--format")
	requireFlagValue(t, argv, "/downloads/%(title)s.%(ext)s", "-o", "--output")

	if _, err := b.Command(task.Descriptor{Kind: task.KindDownload, Output: "x"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty url, got %v", err)
	}
	b.ExtraArgs = `--cookies "unterminated`
	if _, err := b.Command(queue[0]); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unbalanced quotes, got %v", err)
	}
	if b.Binary() != "yt-dlp" {
		t.Fatalf("unexpected binary %q", b.Binary())
	}
}

func TestDownloadBuilderInfoCommands(t *testing.T) {
	b := task.DownloadBuilder{YTDLP: "/opt/yt-dlp"}

	argv, err := b.FormatsCommand(" https://example.com/a ")
	if err != nil {
		t.Fatalf("FormatsCommand: %v", err)
	}
	if argv[0] != "/opt/yt-dlp" || argv[len(argv)-1] != "https://example.com/a" {
		t.Fatalf("unexpected formats argv %q", argv)
	}
	if !hasArg(argv, "-F") && !hasArg(argv, "--list-formats") {
		t.Fatalf("expected a list-formats flag in %q", argv)
	}
	if _, err := b.FormatsCommand(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	version := b.VersionCommand()
	if version[0] != "/opt/yt-dlp" || version[len(version)-1] != "--version" {
		t.Fatalf("unexpected version argv %q", version)
	}
}

func hasArg(argv []string, want string) bool {
	for _, arg := range argv {
		if arg == want {
			return true
		}
	}
	return false
}

func requireArg(t *testing.T, argv []string, want string) {
	t.Helper()
	if !hasArg(argv, want) {
		t.Fatalf("expected %q in %q", want, argv)
	}
}

// requireFlagValue accepts either "-x value", "--long value" or "--long=value".
func requireFlagValue(t *testing.T, argv []string, value string, names ...string) {
	t.Helper()
	for i, arg := range argv {
		for _, name := range names {
			if arg == name+"="+value {
				return
			}
			if arg == name && i+1 < len(argv) && argv[i+1] == value {
				return
			}
		}
	}
	t.Fatalf("expected %v %q in %q", names, value, argv)
}
