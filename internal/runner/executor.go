package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"ffqueue/internal/services"
)

// DefaultWaitDelay is how long a cancelled process gets after SIGTERM before
// it is killed.
const DefaultWaitDelay = 5 * time.Second

const maxLineSize = 1 << 20

// Executor abstracts process execution for testability. Run blocks until the
// process exits and returns its exit code. Lines from stdout and stderr are
// delivered to onLine one at a time.
type Executor interface {
	Run(ctx context.Context, argv []string, onLine func(string)) (int, error)
}

// CommandExecutor runs processes with os/exec.
type CommandExecutor struct {
	WaitDelay time.Duration
}

func (e CommandExecutor) Run(ctx context.Context, argv []string, onLine func(string)) (int, error) {
	if len(argv) == 0 {
		return -1, services.Wrap(services.ErrValidation, "runner", "exec", "empty command", nil)
	}
	if err := ctx.Err(); err != nil {
		return -1, services.Wrap(services.ErrCancelled, "runner", "exec", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	// The tool runs in its own process group so helpers it spawns (yt-dlp's
	// ffmpeg, wrapper scripts) are stopped with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process, unix.SIGTERM)
	}
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	// Non-file writers make exec copy output itself, so WaitDelay also bounds
	// how long a leftover child can hold the streams open.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	closeWriters := func() {
		_ = stdoutW.Close()
		_ = stderrW.Close()
	}
	if err := cmd.Start(); err != nil {
		closeWriters()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return -1, services.Wrap(services.ErrExecutableNotFound, "runner", "start", argv[0], err)
		}
		return -1, services.Wrap(services.ErrExternalTool, "runner", "start", argv[0], err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
	)
	forward := func(line string) {
		if onLine == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onLine(line)
	}
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		scanner.Split(scanLines)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdoutR)
	go scan(stderrR)

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// Anything in the group that outlived SIGTERM and WaitDelay goes now.
		_ = signalGroup(cmd.Process, unix.SIGKILL)
	}
	closeWriters()
	wg.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		waitErr = nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return exitCode, services.Wrap(services.ErrCancelled, "runner", "wait", argv[0], ctxErr)
	}
	if scanErr != nil {
		return exitCode, services.Wrap(services.ErrExternalTool, "runner", "scan output", argv[0], scanErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitCode >= 0 {
			return exitCode, nil
		}
		return exitCode, services.Wrap(services.ErrExternalTool, "runner", "wait", argv[0], waitErr)
	}
	return exitCode, nil
}

// signalGroup delivers sig to the process group led by p. A group that is
// already gone is not an error.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	err := unix.Kill(-p.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// scanLines splits on \n, \r\n or a bare \r. ffmpeg rewrites its status line
// with carriage returns, so each update becomes its own line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// FormatArgv renders argv for logs, quoting entries that contain spaces.
func FormatArgv(argv []string) string {
	var buf bytes.Buffer
	for i, arg := range argv {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if arg == "" || bytes.ContainsAny([]byte(arg), " \t\"'") {
			fmt.Fprintf(&buf, "%q", arg)
			continue
		}
		buf.WriteString(arg)
	}
	return buf.String()
}
