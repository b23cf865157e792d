package utils

import (
	"testing"
)

// TestReadTOML calls ReadTOML with a known test config, checking
// for a valid return value for each key
func TestReadTOML(t *testing.T) {
	cfg, err := ReadTOML("testConf.toml")
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}

	if cfg.Arena.Name != "test" {
		t.Fatalf(`Arena.Name = %q, want %q`, cfg.Arena.Name, "test")
	}
	if cfg.Arena.Min != -100 || cfg.Arena.Max != 1000 {
		t.Fatalf(`Arena bounds = [%v, %v], want [-100, 1000]`, cfg.Arena.Min, cfg.Arena.Max)
	}
	if len(cfg.Arena.Walls) != 1 {
		t.Fatalf(`len(Arena.Walls) = %d, want 1`, len(cfg.Arena.Walls))
	}
	if wall := cfg.Arena.Walls[0]; wall.W != 40 || wall.Cell != 4 {
		t.Fatalf(`Arena.Walls[0] = %+v, want W=40 Cell=4`, wall)
	}
	if cfg.Net.FullUpdateInterval != 30 {
		t.Fatalf(`Net.FullUpdateInterval = %v, want 30`, cfg.Net.FullUpdateInterval)
	}
	if len(cfg.Players.BlockedWords) != 1 || cfg.Players.BlockedWords[0] != "test" {
		t.Fatalf(`Players.BlockedWords = %v, want [test]`, cfg.Players.BlockedWords)
	}
	if cfg.UI.Resolution.X != 1 || cfg.UI.Resolution.Y != 1 {
		t.Fatalf(`UI.Resolution = %+v, want {1 1}`, cfg.UI.Resolution)
	}
}

func TestReadTOMLKeepsDefaults(t *testing.T) {
	cfg, err := ReadTOML("testConf.toml")
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	def := DefaultConfig()
	if cfg.Net.TickRate != def.Net.TickRate {
		t.Fatalf(`Net.TickRate = %v, want default %v`, cfg.Net.TickRate, def.Net.TickRate)
	}
	if cfg.Smoothing.PosCutoff != def.Smoothing.PosCutoff {
		t.Fatalf(`Smoothing.PosCutoff = %v, want default %v`, cfg.Smoothing.PosCutoff, def.Smoothing.PosCutoff)
	}
}

func TestReadTOMLMissingFile(t *testing.T) {
	if _, err := ReadTOML("does-not-exist.toml"); err == nil {
		t.Fatalf("ReadTOML on missing file returned nil error")
	}
}
