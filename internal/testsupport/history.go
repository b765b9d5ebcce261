package testsupport

import (
	"testing"

	"ffqueue/internal/config"
	"ffqueue/internal/history"
)

// MustOpenHistory opens the history database for cfg and closes it when the
// test completes.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
