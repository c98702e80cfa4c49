package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, `
server:
  http_address: ":7000"
database:
  driver: postgres
  postgres:
    host: db
    dbname: settlers
game:
  players: 4
  seed: 99
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.HTTPAddress != ":7000" {
		t.Errorf("Expected http address :7000, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Server.RPCAddress != ":8081" {
		t.Errorf("Expected default rpc address, got %s", cfg.Server.RPCAddress)
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.Postgres.Host != "db" || cfg.Database.Postgres.Port != 5432 {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if cfg.Game.Players != 4 || cfg.Game.Seed != 99 {
		t.Errorf("Unexpected game config: %+v", cfg.Game)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server: {}\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Game.Players != 3 {
		t.Errorf("Expected 3 players by default, got %d", cfg.Game.Players)
	}
	if cfg.Database.Driver != DriverGorm {
		t.Errorf("Expected gorm driver by default, got %s", cfg.Database.Driver)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("GAME_PLAYERS", "5")
	cfg, err := LoadConfig(writeConfig(t, "game:\n  players: 3\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Game.Players != 5 {
		t.Errorf("Expected env override to 5 players, got %d", cfg.Game.Players)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
