package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ffqueue/internal/testsupport"
)

const ffmpegCapabilities = `case "$*" in
*-version*) echo "ffmpeg version 7.0.2 Copyright (c) 2000-2024 the FFmpeg developers"
  echo "configuration: --prefix=/usr --enable-gpl --enable-libx264" ;;
*-formats*) cat <<'OUT'
File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
 DE matroska,webm   Matroska / WebM
  E mp4             MP4 (MPEG-4 Part 14)
OUT
;;
*-encoders*) cat <<'OUT'
Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
OUT
;;
*) exit 1 ;;
esac
`

func TestFFmpegCapabilityCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFFmpegScript(ffmpegCapabilities))

	out, _, err := runCLI(t, env, "ffmpeg", "buildconf")
	if err != nil {
		t.Fatalf("ffmpeg buildconf: %v", err)
	}
	requireContains(t, out, "Version: 7.0.2")
	requireContains(t, out, "  --enable-libx264")

	out, _, err = runCLI(t, env, "ffmpeg", "formats")
	if err != nil {
		t.Fatalf("ffmpeg formats: %v", err)
	}
	requireContains(t, out, "matroska,webm")
	requireContains(t, out, "MP4 (MPEG-4 Part 14)")

	out, _, err = runCLI(t, env, "ffmpeg", "encoders", "AUDIO")
	if err != nil {
		t.Fatalf("ffmpeg encoders: %v", err)
	}
	requireContains(t, out, "aac")
	requireNotContains(t, out, "libx264")

	if _, _, err := runCLI(t, env, "ffmpeg", "decoders"); err == nil {
		t.Fatal("expected decoders listing to fail when ffmpeg exits non-zero")
	}
}

func TestDownloadVersionChecksLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name": "2024.12.13"}`))
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	env.cfg.Downloader.Binary = testsupport.WriteScript(t, filepath.Join(env.baseDir, "bin"), "yt-dlp-info", `case "$*" in
*--version*) echo "2024.08.06" ;;
*) echo "137 mp4   1920x1080   25 | avc1.640028 video only" ;;
esac
`)
	env.cfg.Downloader.ReleaseURL = server.URL
	env.writeConfig(t)

	out, _, err := runCLI(t, env, "download", "version")
	if err != nil {
		t.Fatalf("download version: %v", err)
	}
	requireContains(t, out, "Installed: 2024.08.06")
	requireNotContains(t, out, "Latest:")

	out, _, err = runCLI(t, env, "download", "version", "--check-latest")
	if err != nil {
		t.Fatalf("download version --check-latest: %v", err)
	}
	requireContains(t, out, "Latest:    2024.12.13")
	requireContains(t, out, "Update available: 2024.08.06 -> 2024.12.13")

	out, _, err = runCLI(t, env, "download", "formats", "https://example.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("download formats: %v", err)
	}
	requireContains(t, out, "1920x1080")
}
