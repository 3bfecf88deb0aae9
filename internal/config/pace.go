package config

import "fmt"

// Pace is a named simulation speed.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceNormal Pace = "normal"
	PaceFast   Pace = "fast"
)

// Paces lists the presets from slowest to fastest.
var Paces = []Pace{PaceSlow, PaceNormal, PaceFast}

// SpeedForPace returns the animation cadence in milliseconds for a preset.
func SpeedForPace(p Pace) (int, error) {
	switch p {
	case PaceSlow:
		return 200, nil
	case PaceNormal:
		return 100, nil
	case PaceFast:
		return 50, nil
	default:
		return 0, fmt.Errorf("config: unknown pace %q", p)
	}
}

// ApplyPace sets the simulation speed from a preset. An empty pace is a no-op.
func ApplyPace(cfg *Config, p Pace) error {
	if p == "" {
		return nil
	}
	ms, err := SpeedForPace(p)
	if err != nil {
		return err
	}
	cfg.Simulation.SpeedMS = ms
	return nil
}

// StepSpeed returns the speed one notch faster (delta < 0) or slower
// (delta > 0) than ms, halving or doubling within [10ms, 1000ms].
func StepSpeed(ms, delta int) int {
	switch {
	case delta < 0:
		ms /= 2
	case delta > 0:
		ms *= 2
	}
	return max(10, min(1000, ms))
}
