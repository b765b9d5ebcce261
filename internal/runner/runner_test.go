package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ffqueue/internal/progress"
	"ffqueue/internal/runner"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
	"ffqueue/internal/testsupport"
)

type scriptedExecutor struct {
	lines []string
	code  int
	err   error
	argv  [][]string
}

func (s *scriptedExecutor) Run(ctx context.Context, argv []string, onLine func(string)) (int, error) {
	s.argv = append(s.argv, argv)
	for _, line := range s.lines {
		onLine(line)
	}
	return s.code, s.err
}

func descriptor(dir string) task.Descriptor {
	return task.Descriptor{
		Kind:      task.KindEncode,
		Input:     filepath.Join(dir, "in.mov"),
		Output:    filepath.Join(dir, "out_x.mkv"),
		Args:      "-c:v libx264",
		Duration:  8,
		FileIndex: 1, FileCount: 1,
		PassIndex: 1, PassCount: 1,
		Index: 1, Total: 1,
	}
}

func TestRunSuccessPublishesLifecycle(t *testing.T) {
	dir := t.TempDir()
	logFile, err := runner.OpenLogFile(dir, "run")
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	exec := &scriptedExecutor{lines: []string{
		"Input #0, mov,mp4, from 'in.mov':",
		"frame=  10 fps=0.0 q=28.0 size=  256kB time=00:00:04.00 bitrate=524.3kbits/s",
	}}
	r := runner.New(task.Builder{FFmpeg: "ffmpeg"}, runner.WithExecutor(exec), runner.WithLogFile(logFile))

	var events progress.Collector
	res := r.Run(context.Background(), descriptor(dir), &events)
	if err := logFile.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(exec.argv) != 1 || exec.argv[0][0] != "ffmpeg" {
		t.Fatalf("unexpected argv %v", exec.argv)
	}

	got := events.Events()
	kinds := make([]progress.Kind, 0, len(got))
	for _, e := range got {
		kinds = append(kinds, e.Kind)
	}
	want := []progress.Kind{progress.KindTaskStarted, progress.KindLine, progress.KindLine, progress.KindTaskFinished}
	if len(kinds) != len(want) {
		t.Fatalf("event kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event kinds = %v, want %v", kinds, want)
		}
	}
	if got[1].Percent != -1 {
		t.Fatalf("expected unknown percent for header line, got %v", got[1].Percent)
	}
	if got[2].Percent != 50 {
		t.Fatalf("expected 50%% for time=4s of 8s, got %v", got[2].Percent)
	}

	content := testsupport.ReadText(t, logFile.Path())
	for _, fragment := range []string{
		"File 1/1",
		`Source: "` + filepath.Join(dir, "in.mov") + `"`,
		"[COMMAND]:\nffmpeg -i",
		"[FFMPEG]: Input #0",
	} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in run log:\n%s", fragment, content)
		}
	}
}

func TestRunNonZeroExitIsTaskFailure(t *testing.T) {
	dir := t.TempDir()
	logFile, err := runner.OpenLogFile(dir, "run")
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	defer logFile.Close()
	r := runner.New(task.Builder{}, runner.WithExecutor(&scriptedExecutor{code: 1}), runner.WithLogFile(logFile))

	var events progress.Collector
	res := r.Run(context.Background(), descriptor(dir), &events)
	if res.Succeeded() || res.Fatal || res.Cancelled {
		t.Fatalf("expected plain failure, got %+v", res)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	failed := events.OfKind(progress.KindTaskFailed)
	if len(failed) != 1 || failed[0].ExitCode != 1 {
		t.Fatalf("expected one task_failed event with status 1, got %+v", failed)
	}
	if !strings.Contains(testsupport.ReadText(t, logFile.Path()), "Exit status: 1") {
		t.Fatal("expected exit status in run log")
	}
}

func TestRunExecutableNotFoundIsFatal(t *testing.T) {
	exec := &scriptedExecutor{code: -1, err: services.Wrap(services.ErrExecutableNotFound, "runner", "start", "ffmpeg", nil)}
	r := runner.New(task.Builder{FFmpeg: "ffmpeg"}, runner.WithExecutor(exec))

	var events progress.Collector
	res := r.Run(context.Background(), descriptor(t.TempDir()), &events)
	if !res.Fatal {
		t.Fatalf("expected fatal result, got %+v", res)
	}
	fatal := events.OfKind(progress.KindFatal)
	if len(fatal) != 1 {
		t.Fatalf("expected one fatal event, got %d", len(fatal))
	}
	if fatal[0].Hint != "Is 'ffmpeg' installed on your system?" {
		t.Fatalf("unexpected hint %q", fatal[0].Hint)
	}
}

func TestRunBuildErrorDoesNotSpawn(t *testing.T) {
	exec := &scriptedExecutor{}
	r := runner.New(task.Builder{}, runner.WithExecutor(exec))
	d := descriptor(t.TempDir())
	d.Args = `-vf "unterminated`

	res := r.Run(context.Background(), d, nil)
	if !errors.Is(res.Err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", res.Err)
	}
	if len(exec.argv) != 0 {
		t.Fatal("expected no process to be spawned")
	}
}

func TestCommandExecutorStreamsAndExitCodes(t *testing.T) {
	dir := t.TempDir()
	script := testsupport.WriteScript(t, dir, "fake-ffmpeg",
		"printf 'line one\\n' >&2\nprintf 'frame=1 time=00:00:01.00\\rframe=2 time=00:00:02.00\\r' >&2\necho stdout-line\nexit 3\n")

	var lines []string
	code, err := runner.CommandExecutor{}.Run(context.Background(), []string{script}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	joined := strings.Join(lines, "|")
	for _, want := range []string{"line one", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "stdout-line"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q among lines %q", want, lines)
		}
	}
}

func TestCommandExecutorMissingBinary(t *testing.T) {
	_, err := runner.CommandExecutor{}.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	if !errors.Is(err, services.ErrExecutableNotFound) {
		t.Fatalf("expected executable not found, got %v", err)
	}
	_, err = runner.CommandExecutor{}.Run(context.Background(), []string{"ffqueue-definitely-missing-binary"}, nil)
	if !errors.Is(err, services.ErrExecutableNotFound) {
		t.Fatalf("expected executable not found for PATH lookup, got %v", err)
	}
}

// cancellingExecutor cancels the run before printing the tool's shutdown
// lines, the way ffmpeg reports a SIGTERM.
type cancellingExecutor struct {
	cancel context.CancelFunc
	lines  []string
}

func (c *cancellingExecutor) Run(ctx context.Context, argv []string, onLine func(string)) (int, error) {
	c.cancel()
	for _, line := range c.lines {
		onLine(line)
	}
	return 255, services.Wrap(services.ErrCancelled, "test", "run", argv[0], ctx.Err())
}

func TestRunLogKeepsLinesPrintedAfterCancel(t *testing.T) {
	dir := t.TempDir()
	logFile, err := runner.OpenLogFile(dir, "run")
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &cancellingExecutor{cancel: cancel, lines: []string{
		"frame=  10 fps=0.0 q=28.0 size=  256kB time=00:00:04.00 bitrate=524.3kbits/s",
		"Exiting normally, received signal 15.",
	}}
	r := runner.New(task.Builder{FFmpeg: "ffmpeg"}, runner.WithExecutor(exec), runner.WithLogFile(logFile))

	var events progress.Collector
	res := r.Run(ctx, descriptor(dir), &events)
	if err := logFile.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
	if !res.Cancelled {
		t.Fatalf("expected cancelled result, got %+v", res)
	}
	for _, e := range events.Events() {
		if e.Kind == progress.KindLine {
			t.Fatalf("no line events expected after cancel, got %+v", e)
		}
	}

	content := testsupport.ReadText(t, logFile.Path())
	for _, fragment := range []string{"Exiting normally, received signal 15.", "Interrupted by user"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in run log:\n%s", fragment, content)
		}
	}
	if strings.Index(content, "received signal 15") > strings.Index(content, "Interrupted by user") {
		t.Fatalf("tool output should precede the interruption note:\n%s", content)
	}
}

func TestCommandExecutorCancelStopsBackgroundChildren(t *testing.T) {
	for name, body := range map[string]string{
		"background child":  "echo started\nsleep 8 &\nwait\n",
		"ignores terminate": "trap '' TERM\necho started\nsleep 8 &\nwait\n",
	} {
		t.Run(name, func(t *testing.T) {
			script := testsupport.WriteScript(t, t.TempDir(), "fake-tool", body)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			start := time.Now()
			_, err := runner.CommandExecutor{WaitDelay: 500 * time.Millisecond}.Run(ctx, []string{script}, func(line string) {
				if line == "started" {
					go func() {
						time.Sleep(300 * time.Millisecond)
						cancel()
					}()
				}
			})
			if !errors.Is(err, services.ErrCancelled) {
				t.Fatalf("expected cancelled marker, got %v", err)
			}
			if elapsed := time.Since(start); elapsed > 4*time.Second {
				t.Fatalf("cancellation took %s", elapsed)
			}
		})
	}
}

func TestCommandExecutorDoesNotWaitForOrphanedOutput(t *testing.T) {
	script := testsupport.WriteScript(t, t.TempDir(), "fake-tool", "echo done\nsleep 8 &\nexit 0\n")

	start := time.Now()
	code, err := runner.CommandExecutor{WaitDelay: 500 * time.Millisecond}.Run(context.Background(), []string{script}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("run took %s", elapsed)
	}
}

func TestRunCancellationTerminatesAndKeepsPartialOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(
		"for last; do :; done\necho partial > \"$last\"\necho started >&2\ntrap 'exit 143' TERM\nwhile true; do sleep 0.05; done\n"))
	dir := t.TempDir()
	d := descriptor(dir)

	r := runner.New(task.NewBuilder(cfg.FFmpeg), runner.WithExecutor(runner.CommandExecutor{WaitDelay: 2 * time.Second}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := progress.ListenerFunc(func(e progress.Event) {
		if e.Kind == progress.KindLine && e.Line == "started" {
			cancel()
		}
	})

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(ctx, d, listener) }()

	select {
	case res := <-done:
		if !res.Cancelled {
			t.Fatalf("expected cancelled result, got %+v", res)
		}
		if !errors.Is(res.Err, services.ErrCancelled) {
			t.Fatalf("expected cancelled marker, got %v", res.Err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not return after cancellation")
	}

	data, err := os.ReadFile(d.Output)
	if err != nil {
		t.Fatalf("expected partial output to be kept: %v", err)
	}
	if strings.TrimSpace(string(data)) != "partial" {
		t.Fatalf("unexpected partial output %q", data)
	}
}

func TestFormatArgv(t *testing.T) {
	got := runner.FormatArgv([]string{"ffmpeg", "-i", "my file.mov", "-vf", "scale=1:2", "-y", "out.mkv"})
	want := `ffmpeg -i "my file.mov" -vf scale=1:2 -y out.mkv`
	if got != want {
		t.Fatalf("FormatArgv = %q, want %q", got, want)
	}
}
