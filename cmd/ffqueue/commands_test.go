package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffqueue/internal/playlist"
	"ffqueue/internal/services"
	"ffqueue/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestPresetsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "presets", "list")
	if err != nil {
		t.Fatalf("presets list: %v", err)
	}
	requireContains(t, out, "No presets found")

	testsupport.WritePreset(t, env.cfg, "web", testsupport.SamplePreset)
	out, _, err = runCLI(t, env, "presets", "list")
	if err != nil {
		t.Fatalf("presets list: %v", err)
	}
	requireContains(t, out, "web")

	out, _, err = runCLI(t, env, "presets", "list", "web")
	if err != nil {
		t.Fatalf("presets list web: %v", err)
	}
	requireContains(t, out, "x264 two pass")
	requireContains(t, out, "same as source")
	requireContains(t, out, "mov, mkv, avi")

	out, _, err = runCLI(t, env, "presets", "show", "web", "x264 two pass")
	if err != nil {
		t.Fatalf("presets show: %v", err)
	}
	requireContains(t, out, "Description: H.264 two pass for web")
	requireContains(t, out, "-pass 2")
	requireContains(t, out, "-i INPUT.mp4")
	requireContains(t, out, "-y OUTPUT.mp4")

	if _, _, err := runCLI(t, env, "presets", "show", "web", "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryEmptyAndUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, env, "history", "show", "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	out, _, err = runCLI(t, env, "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 0 run(s)")
}

func TestDepsReportsStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "deps")
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[OK]")
	requireNotContains(t, out, "\x1b[")

	env.cfg.FFmpeg.Binary = "ffmpeg-not-installed"
	env.cfg.Downloader.Binary = "yt-dlp-not-installed"
	env.writeConfig(t)
	out, _, err = runCLI(t, env, "deps")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "[MISSING] binary \"ffmpeg-not-installed\" not found")
	requireContains(t, out, "[WARN] binary \"yt-dlp-not-installed\" not found")
}

type fakeLister map[string][]playlist.Item

func (f fakeLister) Items(_ context.Context, id string) ([]playlist.Item, error) {
	items, ok := f[id]
	if !ok {
		return nil, errors.New("unknown playlist")
	}
	return items, nil
}

func TestDownloadExpandsPlaylists(t *testing.T) {
	env := setupCLITestEnv(t)
	record := filepath.Join(env.baseDir, "downloaded.txt")
	env.cfg.Downloader.Binary = testsupport.WriteScript(t, filepath.Join(env.baseDir, "bin"), "yt-dlp-stub", fmt.Sprintf(`for last; do :; done
echo "$last" >> %q
echo "[download]  50.0%% of ~10.00MiB at 1.00MiB/s ETA 00:05"
exit 0
`, record))
	env.writeConfig(t)
	env.ctx = newCommandContext(new(string))
	env.ctx.playlistLister = fakeLister{"PL1": {{VideoID: "v1"}, {VideoID: "v2"}}}

	out, _, err := runCLI(t, env, "download", "--format", "best", "https://www.youtube.com/playlist?list=PL1", "https://example.com/clip.mp4")
	if err != nil {
		t.Fatalf("download: %v\n%s", err, out)
	}
	requireContains(t, out, "File 3/3")
	requireContains(t, out, "All finished!")

	got := strings.Fields(testsupport.ReadText(t, record))
	want := []string{
		"https://www.youtube.com/watch?v=v1",
		"https://www.youtube.com/watch?v=v2",
		"https://example.com/clip.mp4",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected download order: %v", got)
	}
}

func TestDownloadNoPlaylistKeepsURL(t *testing.T) {
	env := setupCLITestEnv(t)
	record := filepath.Join(env.baseDir, "args.txt")
	env.cfg.Downloader.Binary = testsupport.WriteScript(t, filepath.Join(env.baseDir, "bin"), "yt-dlp-args", fmt.Sprintf("echo \"$@\" >> %q\n", record))
	env.writeConfig(t)
	env.ctx = newCommandContext(new(string))
	env.ctx.playlistLister = fakeLister{}

	url := "https://www.youtube.com/playlist?list=PL1"
	if _, _, err := runCLI(t, env, "download", "--no-playlist", "-f", "bestaudio", url); err != nil {
		t.Fatalf("download: %v", err)
	}
	args := testsupport.ReadText(t, record)
	requireContains(t, args, "--newline")
	requireContains(t, args, "bestaudio")
	requireContains(t, args, filepath.Join(env.cfg.Paths.OutputDir, "%(title)s.%(ext)s"))
	if !strings.HasSuffix(strings.TrimSpace(args), url) {
		t.Fatalf("expected the url last in %q", args)
	}
}

func TestLogShowsLatestRunLog(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFFmpegScript(ffmpegWritesOutput))
	testsupport.WritePreset(t, env.cfg, "web", testsupport.SamplePreset)
	input := env.input(t, "clip.mov")

	if out, _, err := runCLI(t, env, "run", "--preset", "web", "--profile", "audio copy", input); err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	out, _, err := runCLI(t, env, "log", "encode", "--lines", "200")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	requireContains(t, out, "[DATE]:")
	requireContains(t, out, "[FFMPEG]: Input #0, matroska,webm")

	pathOut, _, err := runCLI(t, env, "log", "--path")
	if err != nil {
		t.Fatalf("log --path: %v", err)
	}
	requireContains(t, pathOut, filepath.Join(env.cfg.Paths.LogDir, "ffqueue-encode-"))

	if _, _, err := runCLI(t, env, "log", "download"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without download logs, got %v", err)
	}
	if _, _, err := runCLI(t, env, "log", "bogus"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown kind, got %v", err)
	}
}

func TestConfigValidateReportsBrokenPresets(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WritePreset(t, env.cfg, "web", testsupport.SamplePreset)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Presets: 1 (2 usable profiles)")

	testsupport.WritePreset(t, env.cfg, "broken", `[{"Name": "p", "Description": "", "Passes": [["-c copy"]], "Supported_list": "", "Output_extension": "mkv"}]`)
	out, _, err = runCLI(t, env, "config", "validate")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, "invalid: ")
	requireNotContains(t, out, "Configuration valid")
}
