package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindPort != 8532 {
		t.Fatalf("BindPort = %d; want 8532", cfg.BindPort)
	}
	if cfg.DefaultRange != "1Y" {
		t.Fatalf("DefaultRange = %q; want 1Y", cfg.DefaultRange)
	}
	if cfg.RenderCDP {
		t.Fatalf("RenderCDP defaults to true; want false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CHARTD_BIND_PORT", "9001")
	t.Setenv("CHARTD_DEFAULT_SYMBOL", "MSFT")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindPort != 9001 || cfg.DefaultSymbol != "MSFT" {
		t.Fatalf("override ignored: port=%d symbol=%s", cfg.BindPort, cfg.DefaultSymbol)
	}
}

func TestSymbolMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	if err := os.WriteFile(path, []byte("symbols:\n  SPX: ^GSPC\n  DJI: ^DJI\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := &Config{SymbolMapFile: path}
	m, err := cfg.SymbolMap()
	if err != nil {
		t.Fatalf("SymbolMap() error = %v", err)
	}
	if m["SPX"] != "^GSPC" || m["DJI"] != "^DJI" {
		t.Fatalf("SymbolMap() = %v", m)
	}
}

func TestSymbolMapMissingFileIsEmpty(t *testing.T) {
	cfg := &Config{}
	m, err := cfg.SymbolMap()
	if err != nil || len(m) != 0 {
		t.Fatalf("SymbolMap() = (%v, %v); want empty map", m, err)
	}
}
