package combat

import (
	"time"

	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/status"
	"github.com/milk9111/tycoon/timing"
)

// EnemyView is the render-facing copy of an enemy.
type EnemyView struct {
	Name      string
	Health    int
	MaxHealth int
	IsBoss    bool
	Preparing string
	Defeated  bool
}

// BarView is the render-facing copy of a timing bar.
type BarView struct {
	Kind      timing.Kind
	Position  float64
	Direction int
	Good      timing.Zone
	Perfect   timing.Zone
	Remaining time.Duration
}

// Snapshot is everything the arena UI draws in one frame.
type Snapshot struct {
	Mode    profile.Mode
	Session Session
	Enemies []EnemyView
	Current int
	Bar     *BarView
	Effects map[status.Kind]int
	Potions int
	Result  Result
	Log     []Entry
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Mode:    m.mode,
		Session: m.session,
		Current: m.current,
		Effects: m.effects.Snapshot(),
		Result:  m.result,
		Log:     m.log.Entries(),
	}
	if m.profile != nil {
		s.Potions = m.profile.Get().HealthPotions
	}
	for _, e := range m.foes {
		v := EnemyView{Name: e.Name, Health: e.Health, MaxHealth: e.MaxHealth, IsBoss: e.IsBoss, Defeated: e.Defeated()}
		if e.PreparingSpecial {
			v.Preparing = specialName(e.ChosenSpecial)
		}
		s.Enemies = append(s.Enemies, v)
	}
	if b := m.bar; b != nil {
		cfg := b.Config()
		s.Bar = &BarView{
			Kind:      cfg.Kind,
			Position:  b.Position(),
			Direction: b.Direction(),
			Good:      cfg.Good,
			Perfect:   cfg.Perfect,
			Remaining: max(b.Deadline()-m.sched.Now(), 0),
		}
	}
	return s
}
