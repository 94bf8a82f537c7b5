package enemy

import (
	"fmt"
	"math"
	"slices"
)

// Special is a boss ability that applies a status effect to the player.
type Special string

const (
	SpecialNone   Special = ""
	SpecialPoison Special = "poison"
	SpecialWound  Special = "wound"
)

// Archetype is a base stat block from the enemy table.
type Archetype struct {
	Name       string    `yaml:"name"`
	Health     int       `yaml:"health"`
	Damage     int       `yaml:"damage"`
	CoinReward int       `yaml:"coin_reward"`
	Specials   []Special `yaml:"specials"`
}

// Enemy is a scaled combatant. Health never exceeds MaxHealth.
type Enemy struct {
	Name       string
	Health     int
	MaxHealth  int
	Damage     int
	CoinReward int
	IsBoss     bool
	Specials   []Special

	PreparingSpecial bool
	ChosenSpecial    Special
}

// TakeDamage lowers health and returns the amount actually removed.
func (e *Enemy) TakeDamage(amount int) int {
	if e == nil || amount <= 0 || e.Health <= 0 {
		return 0
	}
	if amount > e.Health {
		amount = e.Health
	}
	e.Health -= amount
	return amount
}

func (e *Enemy) Defeated() bool {
	return e == nil || e.Health <= 0
}

// Prepare marks a telegraphed special to be executed on the next enemy turn.
func (e *Enemy) Prepare(s Special) bool {
	if e == nil || !e.IsBoss || !slices.Contains(e.Specials, s) {
		return false
	}
	e.PreparingSpecial = true
	e.ChosenSpecial = s
	return true
}

func (e *Enemy) ClearSpecial() {
	if e == nil {
		return
	}
	e.PreparingSpecial = false
	e.ChosenSpecial = SpecialNone
}

// Table holds the archetype lists and scaling constants.
type Table struct {
	Regular      []Archetype `yaml:"regular"`
	Bosses       []Archetype `yaml:"bosses"`
	BucketSize   int         `yaml:"bucket_size"`
	BossEvery    int         `yaml:"boss_every"`
	WaveGrowth   float64     `yaml:"wave_growth"`
	FloorGrowth  float64     `yaml:"floor_growth"`
	BossGrowth   float64     `yaml:"boss_growth"`
	WaveSizeStep int         `yaml:"wave_size_step"`
	MaxWaveSize  int         `yaml:"max_wave_size"`
}

// Generator builds enemies for a level number.
type Generator struct {
	table Table
}

func NewGenerator(t Table) *Generator {
	def := DefaultTable()
	if len(t.Regular) == 0 {
		t.Regular = def.Regular
	}
	if len(t.Bosses) == 0 {
		t.Bosses = def.Bosses
	}
	if t.BucketSize <= 0 {
		t.BucketSize = def.BucketSize
	}
	if t.BossEvery <= 0 {
		t.BossEvery = def.BossEvery
	}
	if t.WaveSizeStep <= 0 {
		t.WaveSizeStep = def.WaveSizeStep
	}
	if t.MaxWaveSize <= 0 {
		t.MaxWaveSize = def.MaxWaveSize
	}
	t.WaveGrowth = math.Max(t.WaveGrowth, 0)
	t.FloorGrowth = math.Max(t.FloorGrowth, 0)
	t.BossGrowth = math.Max(t.BossGrowth, 0)
	return &Generator{table: t}
}

func (g *Generator) Table() Table {
	return g.table
}

// IsBossFloor reports whether floor n is guarded by a boss.
func (g *Generator) IsBossFloor(n int) bool {
	return n > 0 && n%g.table.BossEvery == 0
}

// Floor returns the single enemy guarding floor n.
func (g *Generator) Floor(n int) Enemy {
	n = max(n, 1)
	if g.IsBossFloor(n) {
		idx := clampIndex(n/g.table.BossEvery-1, len(g.table.Bosses))
		e := build(g.table.Bosses[idx], n, g.table.BossGrowth)
		e.IsBoss = true
		return e
	}
	return build(g.table.Regular[g.archetypeIndex(n)], n, g.table.FloorGrowth)
}

// Wave returns the enemies of wave n in the order they are fought.
func (g *Generator) Wave(n int) []Enemy {
	n = max(n, 1)
	size := min(1+(n-1)/g.table.WaveSizeStep, g.table.MaxWaveSize)
	arch := g.table.Regular[g.archetypeIndex(n)]
	out := make([]Enemy, 0, size)
	for i := 0; i < size; i++ {
		e := build(arch, n, g.table.WaveGrowth)
		if size > 1 {
			e.Name = fmt.Sprintf("%s %c", arch.Name, 'A'+rune(i))
		}
		out = append(out, e)
	}
	return out
}

func (g *Generator) archetypeIndex(n int) int {
	return clampIndex((n-1)/g.table.BucketSize, len(g.table.Regular))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func build(a Archetype, n int, growth float64) Enemy {
	hp := max(Scale(a.Health, n, growth), 1)
	return Enemy{
		Name:       a.Name,
		Health:     hp,
		MaxHealth:  hp,
		Damage:     max(Scale(a.Damage, n, growth), 0),
		CoinReward: max(Scale(a.CoinReward, n, growth), 0),
		Specials:   slices.Clone(a.Specials),
	}
}

// Scale applies level growth to a base stat: floor(base * (1 + (n-1)*growth)).
func Scale(base, n int, growth float64) int {
	n = max(n, 1)
	return int(math.Floor(float64(base)*(1+float64(n-1)*growth) + 1e-9))
}

// DefaultTable is the built-in enemy roster.
func DefaultTable() Table {
	return Table{
		Regular: []Archetype{
			{Name: "Slime", Health: 30, Damage: 5, CoinReward: 10},
			{Name: "Goblin", Health: 45, Damage: 8, CoinReward: 15},
			{Name: "Skeleton", Health: 60, Damage: 11, CoinReward: 22},
			{Name: "Orc", Health: 85, Damage: 15, CoinReward: 30},
			{Name: "Dark Knight", Health: 120, Damage: 20, CoinReward: 45},
			{Name: "Wraith", Health: 160, Damage: 26, CoinReward: 60},
		},
		Bosses: []Archetype{
			{Name: "Slime King", Health: 200, Damage: 18, CoinReward: 100, Specials: []Special{SpecialPoison}},
			{Name: "Goblin Warlord", Health: 320, Damage: 25, CoinReward: 160, Specials: []Special{SpecialWound}},
			{Name: "Lich", Health: 480, Damage: 32, CoinReward: 240, Specials: []Special{SpecialPoison, SpecialWound}},
			{Name: "Dragon", Health: 700, Damage: 40, CoinReward: 350, Specials: []Special{SpecialPoison, SpecialWound}},
		},
		BucketSize:   5,
		BossEvery:    5,
		WaveGrowth:   0.08,
		FloorGrowth:  0.1,
		BossGrowth:   0.05,
		WaveSizeStep: 5,
		MaxWaveSize:  4,
	}
}
