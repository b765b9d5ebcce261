package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ffqueue/internal/services"
)

const (
	namePrefix  = "ffqueue-"
	defaultPoll = 250 * time.Millisecond
	maxLineSize = 1024 * 1024
)

// Latest returns the most recently modified run log in dir. An empty kind
// matches logs of every kind.
func Latest(dir, kind string) (string, error) {
	pattern := namePrefix + "*.log"
	if kind = strings.TrimSpace(kind); kind != "" {
		pattern = namePrefix + kind + "-*.log"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "logs", "find run log", "invalid log kind", err)
	}
	var (
		newest   string
		newestAt time.Time
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestAt) ||
			(info.ModTime().Equal(newestAt) && path > newest) {
			newest, newestAt = path, info.ModTime()
		}
	}
	if newest == "" {
		what := "run logs"
		if kind != "" {
			what = kind + " logs"
		}
		return "", services.Wrap(services.ErrNotFound, "logs", "find run log",
			fmt.Sprintf("no %s in %s", what, dir), nil)
	}
	return newest, nil
}

// Last returns up to n trailing lines of path and the offset of its end. A
// non-positive n returns no lines, only the offset.
func Last(path string, n int) ([]string, int64, error) {
	file, err := openLog(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	var ring []string
	if n > 0 {
		ring = make([]string, 0, n)
	}
	scanner := newScanner(file)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read run log: %w", err)
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek run log: %w", err)
	}
	return ring, offset, nil
}

// Follow emits every complete line appended to path after offset until ctx is
// done. A file that shrinks (rotated or truncated) is reread from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readAppended(path, offset, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readAppended(path string, offset int64, emit func(string)) (int64, error) {
	file, err := openLog(path)
	if err != nil {
		return offset, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat run log: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek run log: %w", err)
	}

	// Partial trailing lines stay unread until the writer finishes them.
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read run log: %w", err)
		}
		offset += int64(len(line))
		emit(strings.TrimRight(line, "\r\n"))
	}
}

func openLog(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "logs", "open run log", path, err)
		}
		return nil, fmt.Errorf("open run log: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat run log: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, services.Wrap(services.ErrValidation, "logs", "open run log",
			fmt.Sprintf("%s is a directory", path), nil)
	}
	return file, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
