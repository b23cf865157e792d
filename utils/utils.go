package utils

import (
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type WallConfig struct {
	X, Y, W, H float64
	Cell       float64
}

type ArenaConfig struct {
	Name       string
	Min, Max   float64
	Walls      []WallConfig
	Ships      string
	RespawnFPS int
}

type NetConfig struct {
	Address            string
	TickRate           int
	FullUpdateInterval int
	PingInterval       int
	QueueSize          int
}

type SmoothingConfig struct {
	PosCutoff      float64
	RotationCutoff float64
	GiveUp         float64
}

type PlayersConfig struct {
	BlockedWords []string
}

type ResolutionConfig struct {
	X, Y int
}

type UIConfig struct {
	Resolution ResolutionConfig
}

type Config struct {
	Arena     ArenaConfig
	Net       NetConfig
	Smoothing SmoothingConfig
	Players   PlayersConfig
	UI        UIConfig
}

// DefaultConfig is used as the base that a TOML file overrides.
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Name: "bunker",
			Min:  0,
			Max:  16000,
			Walls: []WallConfig{
				{X: 7000, Y: 7600, W: 400, H: 80, Cell: 8},
				{X: 8600, Y: 8200, W: 80, H: 400, Cell: 8},
			},
			Ships:      "windlord",
			RespawnFPS: 180,
		},
		Net: NetConfig{
			Address:            "localhost:4242",
			TickRate:           60,
			FullUpdateInterval: 60,
			PingInterval:       60,
			QueueSize:          1024,
		},
		Smoothing: SmoothingConfig{
			PosCutoff:      50,
			RotationCutoff: math.Pi / 2,
			GiveUp:         0.01,
		},
		UI: UIConfig{
			Resolution: ResolutionConfig{X: 1280, Y: 720},
		},
	}
}

func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	walls := config.Arena.Walls
	config.Arena.Walls = nil
	if err := toml.Unmarshal([]byte(file), config); err != nil {
		return nil, err
	}
	if len(config.Arena.Walls) == 0 {
		config.Arena.Walls = walls
	}
	return config, nil
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
