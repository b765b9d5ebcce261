package progress_test

import (
	"math"
	"testing"

	"ffqueue/internal/progress"
)

func TestParseFFmpegTime(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"frame=  120 fps= 30 q=28.0 size=    512kB time=00:00:04.00 bitrate=1048.6kbits/s", 4, true},
		{"size=    1024kB time=01:02:03.50 bitrate= 128.0kbits/s speed=1.0x", 3723.5, true},
		{"size=       0kB time=-00:00:00.02 bitrate=N/A speed=N/A", 0, true},
		{"frame=    0 fps=0.0 q=0.0 size=0kB time=-00:00:01.50 bitrate=N/A", 0, true},
		{"size=N/A time=N/A bitrate=N/A", 0, false},
		{"Stream #0:0: Video: h264", 0, false},
	}
	for _, tt := range tests {
		got, ok := progress.ParseFFmpegTime(tt.line)
		if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseFFmpegTime(%q) = %v, %v; want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsFFmpegStatus(t *testing.T) {
	if !progress.IsFFmpegStatus("frame=  12 fps=0.0 q=0.0 size=0kB time=00:00:00.40 bitrate=0.9kbits/s") {
		t.Fatal("expected frame line to be a status line")
	}
	if progress.IsFFmpegStatus("Input #0, matroska,webm, from 'a.mkv':") {
		t.Fatal("expected header line not to be a status line")
	}
}

func TestPercent(t *testing.T) {
	if got := progress.Percent(30, 120); got != 25 {
		t.Fatalf("Percent = %v, want 25", got)
	}
	if got := progress.Percent(130, 120); got != 100 {
		t.Fatalf("Percent should clamp to 100, got %v", got)
	}
	if got := progress.Percent(10, 0); got != -1 {
		t.Fatalf("Percent with unknown duration = %v, want -1", got)
	}
}

func TestParseDownloadPercent(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"[download]  42.0% of ~ 10.00MiB at  1.00MiB/s ETA 00:06", 42, true},
		{"[download] 100% of 10.00MiB in 00:10", 100, true},
		{"[download] Destination: video.mp4", 0, false},
		{"[youtube] abc: Downloading webpage", 0, false},
	}
	for _, tt := range tests {
		got, ok := progress.ParseDownloadPercent(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseDownloadPercent(%q) = %v, %v; want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLinePercent(t *testing.T) {
	if got := progress.LinePercent(false, "size=1kB time=00:00:30.00 bitrate=1k", 60); got != 50 {
		t.Fatalf("ffmpeg percent = %v, want 50", got)
	}
	if got := progress.LinePercent(false, "size=0kB time=-00:00:00.02 bitrate=N/A", 60); got != 0 {
		t.Fatalf("negative position percent = %v, want 0", got)
	}
	if got := progress.LinePercent(true, "[download]  12.5% of 1MiB", 0); got != 12.5 {
		t.Fatalf("download percent = %v, want 12.5", got)
	}
	if got := progress.LinePercent(true, "size=1kB time=00:00:30.00", 60); got != -1 {
		t.Fatalf("download kind should ignore ffmpeg lines, got %v", got)
	}
}
