//go:build !windows

package procshim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "procshim.toml")
	content := `[managed]
name = "blackbird"
binary = "` + filepath.Join(dir, "blackbird-launcher") + `"
pidfile = "` + filepath.Join(dir, "blackbird.pid") + `"
lockfile = "` + filepath.Join(dir, "lock", "blackbird") + `"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestFacadeStatusCleanState(t *testing.T) {
	sup := New(testConfig(t))
	st, err := sup.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Running || st.LockHeld || st.Name != "blackbird" {
		t.Fatalf("unexpected clean status: %+v", st)
	}
	if sup.State() != StateUnknown {
		t.Fatalf("expected unknown state before any operation, got %q", sup.State())
	}
}

func TestFacadeHistorySink(t *testing.T) {
	sink, err := NewHistorySink("sqlite://" + filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	if sink == nil {
		t.Fatal("expected a sink")
	}
}
