package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	contents := "server_name = \"Custom Server\"\nport = 19133\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerName != "Custom Server" {
		t.Fatalf("ServerName: got %q, want %q", cfg.ServerName, "Custom Server")
	}
	if cfg.Port != 19133 {
		t.Fatalf("Port: got %d, want 19133", cfg.Port)
	}
	want := Default()
	if cfg.MaxPlayers != want.MaxPlayers {
		t.Fatalf("MaxPlayers: got %d, want unchanged default %d", cfg.MaxPlayers, want.MaxPlayers)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	cfg := Default()
	cfg.ServerName = "Round Trip"
	cfg.WorldSeed = 42
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}
