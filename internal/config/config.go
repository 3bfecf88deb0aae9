// Package config provides YAML-based configuration loading and pace
// presets for the lemmings simulator.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config contains all configuration for a simulator run.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Display    DisplayConfig    `yaml:"display"`
	Stage      StageConfig      `yaml:"stage"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
}

// SimulationConfig defines the options shared by every agent.
type SimulationConfig struct {
	SpeedMS         int    `yaml:"speed_ms"`          // Animation cadence; the ledge nudge waits half of it
	Selector        string `yaml:"selector"`          // Obstacle query
	SpawnCount      int    `yaml:"spawn_count"`       // Agents spawned at start
	SpawnIntervalMS int    `yaml:"spawn_interval_ms"` // Delay between initial spawns
}

// DisplayConfig defines how the terminal viewer draws the stage.
type DisplayConfig struct {
	TickRate int `yaml:"tick_rate"` // Redraws per second
	ScaleX   int `yaml:"scale_x"`   // Stage pixels per terminal column
	ScaleY   int `yaml:"scale_y"`   // Stage pixels per terminal row
}

// StageConfig selects the geometry.
type StageConfig struct {
	ID   string `yaml:"id"`   // Built-in stage ID
	File string `yaml:"file"` // Stage YAML file, overrides ID when set
}

// StorageConfig locates the incident journal.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig defines the listen addresses of the SSH and web servers.
type ServerConfig struct {
	Host    string `yaml:"host"`
	SSHPort int    `yaml:"ssh_port"`
	WebAddr string `yaml:"web_addr"`
	HostKey string `yaml:"host_key"`
}

// Speed returns the animation cadence as a duration.
func (c Config) Speed() time.Duration {
	return time.Duration(c.Simulation.SpeedMS) * time.Millisecond
}

// SpawnInterval returns the delay between initial spawns.
func (c Config) SpawnInterval() time.Duration {
	return time.Duration(c.Simulation.SpawnIntervalMS) * time.Millisecond
}

// Validate reports every invalid value.
func (c Config) Validate() error {
	var errs []error
	if c.Simulation.SpeedMS <= 0 {
		errs = append(errs, fmt.Errorf("simulation.speed_ms must be positive, got %d", c.Simulation.SpeedMS))
	}
	if c.Simulation.SpawnCount < 0 {
		errs = append(errs, fmt.Errorf("simulation.spawn_count must not be negative, got %d", c.Simulation.SpawnCount))
	}
	if c.Display.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("display.tick_rate must be positive, got %d", c.Display.TickRate))
	}
	if c.Display.ScaleX <= 0 || c.Display.ScaleY <= 0 {
		errs = append(errs, fmt.Errorf("display scale must be positive, got %dx%d", c.Display.ScaleX, c.Display.ScaleY))
	}
	if c.Stage.ID == "" && c.Stage.File == "" {
		errs = append(errs, errors.New("stage.id or stage.file is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
