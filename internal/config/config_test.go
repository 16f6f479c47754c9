package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Root != "." {
		t.Errorf("Scan.Root = %q, want .", cfg.Scan.Root)
	}
	if cfg.Scan.Workers != runtime.NumCPU() {
		t.Errorf("Scan.Workers = %d, want %d", cfg.Scan.Workers, runtime.NumCPU())
	}
	if cfg.Log.Level != "info" || !cfg.Log.Pretty {
		t.Errorf("Log = %+v, want info/pretty", cfg.Log)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicomtree.yaml")
	content := `
scan:
  root: /data/rt
  workers: 3
log:
  level: debug
  pretty: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DICOMTREE_SCAN_WORKERS", "6")
	t.Setenv("DICOMTREE_SERVER_ADDR", ":9999")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Root != "/data/rt" {
		t.Errorf("Scan.Root = %q, want /data/rt", cfg.Scan.Root)
	}
	if cfg.Scan.Workers != 6 {
		t.Errorf("Scan.Workers = %d, want env override 6", cfg.Scan.Workers)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Pretty {
		t.Errorf("Log = %+v, want debug/plain", cfg.Log)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("DICOMTREE_SCAN_WORKERS", "-1")
	if _, err := Load(New(), ""); err == nil {
		t.Error("expected error for negative workers")
	}
}
