package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDenylistFallsBackToDefaultWhenPathEmpty(t *testing.T) {
	cfg, err := LoadDenylist("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Languages["python"]) == 0 {
		t.Fatal("expected default python rules to be populated")
	}
	if len(cfg.Network) == 0 {
		t.Fatal("expected default network rules to be populated")
	}
}

func TestLoadDenylistFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "denylist.yaml")
	contents := `
network:
  - pattern: "forbidden-network-marker"
    reason: "test network rule"
languages:
  python:
    - pattern: "forbidden-python-marker"
      reason: "test python rule"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDenylist(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := NewStaticValidator(cfg, false)
	if res := v.Validate("python", "forbidden-python-marker"); res.OK {
		t.Fatal("expected custom python rule to reject the submission")
	}
	if res := v.Validate("cpp", "forbidden-network-marker"); res.OK {
		t.Fatal("expected custom network rule to reject the submission")
	}
}

func TestLoadDenylistMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := LoadDenylist(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Languages["python"]) == 0 {
		t.Fatal("expected default rules when file is missing")
	}
}
