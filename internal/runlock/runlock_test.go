package runlock_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"ffqueue/internal/runlock"
	"ffqueue/internal/testsupport"
)

func TestAcquireIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	contents := testsupport.ReadText(t, cfg.LockPath())
	if strings.TrimSpace(contents) != fmt.Sprint(os.Getpid()) {
		t.Fatalf("expected pid in lock file, got %q", contents)
	}

	_, err = runlock.Acquire(cfg.LockPath())
	if !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if !strings.Contains(err.Error(), "pid ") {
		t.Fatalf("expected holder pid in error, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	again, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer again.Release()
}

func TestReleaseNil(t *testing.T) {
	var lock *runlock.Lock
	if err := lock.Release(); err != nil {
		t.Fatalf("expected nil lock release to succeed, got %v", err)
	}
}
