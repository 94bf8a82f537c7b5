package combat

import "time"

// Tuning holds the arena balance constants loaded from arena.yaml.
type Tuning struct {
	BaseCrit            float64       `yaml:"base_crit"`
	CritPerTier         float64       `yaml:"crit_per_tier"`
	CritCap             float64       `yaml:"crit_cap"`
	MadnessCrit         float64       `yaml:"madness_crit"`
	DodgeNorm           float64       `yaml:"dodge_norm"`
	DodgeCap            float64       `yaml:"dodge_cap"`
	FloorCritMultiplier float64       `yaml:"floor_crit_multiplier"`
	WaveCritMultiplier  float64       `yaml:"wave_crit_multiplier"`
	GoodMultiplier      float64       `yaml:"good_multiplier"`
	ComboStep           float64       `yaml:"combo_step"`
	EnemyDelay          time.Duration `yaml:"enemy_delay"`
	TelegraphDelay      time.Duration `yaml:"telegraph_delay"`
	TelegraphChance     float64       `yaml:"telegraph_chance"`
	EffectMinTurns      int           `yaml:"effect_min_turns"`
	EffectMaxTurns      int           `yaml:"effect_max_turns"`
	PoisonDamage        int           `yaml:"poison_damage"`
	PotionHeal          int           `yaml:"potion_heal"`
	RedrawInterval      time.Duration `yaml:"redraw_interval"`
	MaxLevel            int           `yaml:"max_level"`
	LogSize             int           `yaml:"log_size"`
}

func DefaultTuning() Tuning {
	return Tuning{
		BaseCrit:            0.1,
		CritPerTier:         0.05,
		CritCap:             0.5,
		MadnessCrit:         0.8,
		DodgeNorm:           400,
		DodgeCap:            0.4,
		FloorCritMultiplier: 2.0,
		WaveCritMultiplier:  1.5,
		GoodMultiplier:      1.2,
		ComboStep:           0.1,
		EnemyDelay:          900 * time.Millisecond,
		TelegraphDelay:      1200 * time.Millisecond,
		TelegraphChance:     0.35,
		EffectMinTurns:      1,
		EffectMaxTurns:      3,
		PoisonDamage:        5,
		PotionHeal:          50,
		RedrawInterval:      16 * time.Millisecond,
		LogSize:             DefaultLogSize,
	}
}

// withDefaults fills zero fields from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.CritCap <= 0 {
		t.CritCap = d.CritCap
	}
	if t.MadnessCrit <= 0 {
		t.MadnessCrit = d.MadnessCrit
	}
	if t.DodgeNorm <= 0 {
		t.DodgeNorm = d.DodgeNorm
	}
	if t.FloorCritMultiplier <= 0 {
		t.FloorCritMultiplier = d.FloorCritMultiplier
	}
	if t.WaveCritMultiplier <= 0 {
		t.WaveCritMultiplier = d.WaveCritMultiplier
	}
	if t.GoodMultiplier <= 0 {
		t.GoodMultiplier = d.GoodMultiplier
	}
	if t.ComboStep <= 0 {
		t.ComboStep = d.ComboStep
	}
	if t.EnemyDelay <= 0 {
		t.EnemyDelay = d.EnemyDelay
	}
	if t.TelegraphDelay <= 0 {
		t.TelegraphDelay = d.TelegraphDelay
	}
	if t.EffectMinTurns <= 0 {
		t.EffectMinTurns = d.EffectMinTurns
	}
	if t.EffectMaxTurns < t.EffectMinTurns {
		t.EffectMaxTurns = t.EffectMinTurns
	}
	if t.PoisonDamage < 0 {
		t.PoisonDamage = 0
	}
	if t.PotionHeal <= 0 {
		t.PotionHeal = d.PotionHeal
	}
	if t.RedrawInterval <= 0 {
		t.RedrawInterval = d.RedrawInterval
	}
	if t.LogSize <= 0 {
		t.LogSize = d.LogSize
	}
	return t
}
