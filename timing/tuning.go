package timing

import (
	"math"
	"time"
)

const (
	minSpeed       = 1.0
	minZoneWidth   = 1.0
	defaultTimeout = 2500 * time.Millisecond
)

// Tuning describes how a bar scales with arena level.
type Tuning struct {
	Mode            Mode          `yaml:"mode"`
	Speed           float64       `yaml:"speed"`
	SpeedPerLevel   float64       `yaml:"speed_per_level"`
	MaxSpeed        float64       `yaml:"max_speed"`
	Center          float64       `yaml:"center"`
	GoodWidth       float64       `yaml:"good_width"`
	GoodShrink      float64       `yaml:"good_shrink"`
	MinGoodWidth    float64       `yaml:"min_good_width"`
	PerfectWidth    float64       `yaml:"perfect_width"`
	PerfectShrink   float64       `yaml:"perfect_shrink"`
	MinPerfectWidth float64       `yaml:"min_perfect_width"`
	Timeout         time.Duration `yaml:"timeout"`
	TimeoutStep     time.Duration `yaml:"timeout_step"`
	MinTimeout      time.Duration `yaml:"min_timeout"`
	Guard           time.Duration `yaml:"guard"`
}

// Config resolves the tuning for a level. Speed never exceeds MaxSpeed and
// zone widths never drop below their minimums.
func (t Tuning) Config(kind Kind, level int) Config {
	steps := float64(max(level, 1) - 1)

	speed := t.Speed + t.SpeedPerLevel*steps
	if t.MaxSpeed > 0 && speed > t.MaxSpeed {
		speed = t.MaxSpeed
	}
	if speed < minSpeed {
		speed = minSpeed
	}

	center := t.Center
	if center <= 0 || center >= 100 {
		center = 50
	}

	good := shrink(t.GoodWidth, t.GoodShrink, t.MinGoodWidth, steps)
	cfg := Config{
		Kind:  kind,
		Mode:  t.Mode,
		Speed: speed,
		Good:  centered(center, good),
	}
	if !kind.Binary() && t.PerfectWidth > 0 {
		perfect := math.Min(shrink(t.PerfectWidth, t.PerfectShrink, t.MinPerfectWidth, steps), good)
		cfg.Perfect = centered(center, perfect)
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	timeout -= time.Duration(steps) * t.TimeoutStep
	if floor := t.MinTimeout; floor > 0 && timeout < floor {
		timeout = floor
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.Timeout = timeout

	cfg.Guard = t.Guard
	if cfg.Guard <= 0 {
		cfg.Guard = DefaultGuard
	}
	return cfg
}

func shrink(width, step, floor, steps float64) float64 {
	w := width - step*steps
	floor = math.Max(floor, minZoneWidth)
	if w < floor {
		w = floor
	}
	return math.Min(w, 100)
}

func centered(center, width float64) Zone {
	start := center - width/2
	end := center + width/2
	if start < 0 {
		end -= start
		start = 0
	}
	if end > 100 {
		start -= end - 100
		end = 100
	}
	return Zone{Start: start, End: end}
}

// DefaultTunings returns the built-in bar tunings used when no arena file is
// available.
func DefaultTunings() map[Kind]Tuning {
	return map[Kind]Tuning{
		AttackTiming: {
			Mode: ModeFill, Speed: 40, SpeedPerLevel: 3, MaxSpeed: 120, Center: 70,
			GoodWidth: 30, GoodShrink: 1.5, MinGoodWidth: 10,
			PerfectWidth: 10, PerfectShrink: 0.5, MinPerfectWidth: 4,
			Timeout: 2500 * time.Millisecond, TimeoutStep: 50 * time.Millisecond, MinTimeout: 1200 * time.Millisecond,
		},
		CriticalTiming: {
			Mode: ModeOscillate, Speed: 90, SpeedPerLevel: 3, MaxSpeed: 200, Center: 50,
			GoodWidth: 20, GoodShrink: 0.5, MinGoodWidth: 8,
			Timeout: 2 * time.Second, TimeoutStep: 40 * time.Millisecond, MinTimeout: time.Second,
		},
		DefenseTiming: {
			Mode: ModeOscillate, Speed: 50, SpeedPerLevel: 3, MaxSpeed: 150, Center: 80,
			GoodWidth: 24, GoodShrink: 1, MinGoodWidth: 8,
			Timeout: 2500 * time.Millisecond, TimeoutStep: 50 * time.Millisecond, MinTimeout: 1200 * time.Millisecond,
		},
		DodgeTiming: {
			Mode: ModeOscillate, Speed: 100, SpeedPerLevel: 4, MaxSpeed: 220, Center: 50,
			GoodWidth: 18, GoodShrink: 0.5, MinGoodWidth: 6,
			Timeout: 1500 * time.Millisecond, TimeoutStep: 30 * time.Millisecond, MinTimeout: 800 * time.Millisecond,
		},
	}
}
