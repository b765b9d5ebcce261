package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ffqueue/internal/task"
)

// LogFile is the plain-text log for one run. It is safe for concurrent use.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenLogFile opens (appending) <dir>/<name>.log and writes a dated header.
func OpenLogFile(dir, name string) (*LogFile, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".log")
	if name == "" {
		name = "ffqueue-run"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, name+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	l := &LogFile{path: path, file: file}
	l.write(fmt.Sprintf("\n[DATE]: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	return l, nil
}

// Path returns the log location.
func (l *LogFile) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// TaskHeader records the position, paths and command of a task.
func (l *LogFile) TaskHeader(d task.Descriptor, command string) {
	l.write(fmt.Sprintf("\n%s\nSource: %q\nDestination: %q\n\n[COMMAND]:\n%s\n\n",
		d.Label(), d.Input, d.Output, command))
}

// Line records one line of tool output.
func (l *LogFile) Line(line string) {
	l.write("[FFMPEG]: " + line + "\n")
}

// ExitStatus records a non-zero exit code.
func (l *LogFile) ExitStatus(code int) {
	l.write(fmt.Sprintf("Exit status: %d\n", code))
}

// Note records a free-form message.
func (l *LogFile) Note(msg string) {
	l.write(msg + "\n")
}

// Close flushes and closes the file.
func (l *LogFile) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *LogFile) write(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_, _ = l.file.WriteString(s)
}
