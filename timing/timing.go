package timing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultGuard ignores input for a short window after a bar starts so the
// key press that opened the mini-game cannot also resolve it.
const DefaultGuard = 50 * time.Millisecond

// Kind identifies which mini-game a bar belongs to.
type Kind int

const (
	AttackTiming Kind = iota
	CriticalTiming
	DefenseTiming
	DodgeTiming
)

func (k Kind) String() string {
	switch k {
	case AttackTiming:
		return "attack"
	case CriticalTiming:
		return "critical"
	case DefenseTiming:
		return "defense"
	case DodgeTiming:
		return "dodge"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Binary reports whether the bar only distinguishes success from a miss.
func (k Kind) Binary() bool {
	return k != AttackTiming
}

// Mode selects how the bar moves.
type Mode int

const (
	ModeFill Mode = iota
	ModeOscillate
)

func (m Mode) String() string {
	if m == ModeOscillate {
		return "oscillate"
	}
	return "fill"
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "fill":
		*m = ModeFill
	case "oscillate":
		*m = ModeOscillate
	default:
		return fmt.Errorf("timing: unknown mode %q", string(text))
	}
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Grade is the outcome of a timing bar.
type Grade int

const (
	GradeMiss Grade = iota
	GradeGood
	GradeCritical
	GradeSuccess
)

func (g Grade) String() string {
	switch g {
	case GradeGood:
		return "good"
	case GradeCritical:
		return "critical"
	case GradeSuccess:
		return "success"
	default:
		return "miss"
	}
}

// Hit reports whether the grade counts as a successful input.
func (g Grade) Hit() bool {
	return g != GradeMiss
}

// Zone is a closed interval on the 0..100 bar.
type Zone struct {
	Start float64
	End   float64
}

func (z Zone) Contains(p float64) bool {
	if z.End <= z.Start {
		return false
	}
	return p >= z.Start && p <= z.End
}

func (z Zone) Width() float64 {
	return z.End - z.Start
}

// Config is a fully resolved bar configuration.
type Config struct {
	Kind    Kind
	Mode    Mode
	Speed   float64
	Good    Zone
	Perfect Zone
	Timeout time.Duration
	Guard   time.Duration
}

// GradeAt grades a bar position.
func (c Config) GradeAt(pos float64) Grade {
	if c.Kind.Binary() {
		if c.Good.Contains(pos) {
			return GradeSuccess
		}
		return GradeMiss
	}
	if c.Perfect.Contains(pos) {
		return GradeCritical
	}
	if c.Good.Contains(pos) {
		return GradeGood
	}
	return GradeMiss
}

// PositionAt returns the bar position and direction after elapsed time.
func (c Config) PositionAt(elapsed time.Duration) (float64, int) {
	if elapsed < 0 {
		elapsed = 0
	}
	dist := c.Speed * elapsed.Seconds()
	if c.Mode == ModeFill {
		return math.Min(100, dist), 1
	}
	cycle := math.Mod(dist, 200)
	if cycle <= 100 {
		return cycle, 1
	}
	return 200 - cycle, -1
}

// Bar is one running timing mini-game. It resolves exactly once.
type Bar struct {
	cfg       Config
	startedAt time.Duration
	position  float64
	direction int
	resolved  bool
	grade     Grade
}

// Start begins a bar at the given clock time.
func Start(cfg Config, now time.Duration) *Bar {
	return &Bar{cfg: cfg, startedAt: now, direction: 1}
}

func (b *Bar) Config() Config { return b.cfg }

func (b *Bar) Kind() Kind { return b.cfg.Kind }

func (b *Bar) Position() float64 { return b.position }

func (b *Bar) Direction() int { return b.direction }

func (b *Bar) Resolved() bool { return b.resolved }

func (b *Bar) Grade() Grade { return b.grade }

// Deadline is the clock time at which the bar times out.
func (b *Bar) Deadline() time.Duration {
	return b.startedAt + b.cfg.Timeout
}

// Advance moves the bar to the given clock time.
func (b *Bar) Advance(now time.Duration) {
	if b == nil || b.resolved {
		return
	}
	if now > b.Deadline() {
		now = b.Deadline()
	}
	b.position, b.direction = b.cfg.PositionAt(now - b.startedAt)
}

// Sample resolves the bar from player input. The second result is false when
// the input was ignored, either because the bar is already resolved or the
// guard window is still open.
func (b *Bar) Sample(now time.Duration) (Grade, bool) {
	if b == nil {
		return GradeMiss, false
	}
	if b.resolved {
		return b.grade, false
	}
	if now-b.startedAt < b.cfg.Guard {
		return GradeMiss, false
	}
	if now >= b.Deadline() {
		return b.Expire(now)
	}
	b.Advance(now)
	return b.resolve(b.cfg.GradeAt(b.position)), true
}

// Expire resolves the bar on timeout. Fill bars grade the value they reached;
// oscillating bars miss.
func (b *Bar) Expire(now time.Duration) (Grade, bool) {
	if b == nil {
		return GradeMiss, false
	}
	if b.resolved {
		return b.grade, false
	}
	if now < b.Deadline() {
		return GradeMiss, false
	}
	b.Advance(b.Deadline())
	if b.cfg.Mode == ModeFill {
		return b.resolve(b.cfg.GradeAt(b.position)), true
	}
	return b.resolve(GradeMiss), true
}

func (b *Bar) resolve(g Grade) Grade {
	b.resolved = true
	b.grade = g
	return g
}
