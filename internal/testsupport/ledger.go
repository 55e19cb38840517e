package testsupport

import (
	"testing"

	"github.com/joseluismolina/BPMaster/internal/config"
	"github.com/joseluismolina/BPMaster/internal/ledger"
)

// MustOpenLedger opens the run ledger for the test config and registers
// cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := ledger.Open(cfg.Paths.StateDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
