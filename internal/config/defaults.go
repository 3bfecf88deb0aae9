package config

import (
	_ "embed"
)

//go:embed defaults/lemmings.yaml
var defaultYAML []byte

// DefaultConfig returns the hard-coded configuration, identical to the
// embedded defaults/lemmings.yaml.
func DefaultConfig() Config {
	return Config{
		Simulation: SimulationConfig{
			SpeedMS:         100,
			Selector:        ".collidable",
			SpawnCount:      3,
			SpawnIntervalMS: 1500,
		},
		Display: DisplayConfig{
			TickRate: 30,
			ScaleX:   4,
			ScaleY:   8,
		},
		Stage: StageConfig{
			ID: "steps",
		},
		Storage: StorageConfig{
			Path: "~/.lemmings/journal.db",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			SSHPort: 2222,
			WebAddr: ":8080",
			HostKey: ".ssh/lemmings_ed25519",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
