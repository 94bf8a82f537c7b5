package prefabs

import (
	"fmt"
	"strings"

	"github.com/milk9111/tycoon/achievement"
	"github.com/milk9111/tycoon/combat"
	"github.com/milk9111/tycoon/enemy"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/timing"
	"github.com/milk9111/tycoon/twitch"
	"gopkg.in/yaml.v3"
)

const (
	ArenaFile        = "arena.yaml"
	EnemiesFile      = "enemies.yaml"
	AchievementsFile = "achievements.yaml"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type ArenaSpec struct {
	Combat     combat.Tuning            `yaml:"combat"`
	Timings    map[string]timing.Tuning `yaml:"timings"`
	Rewards    reward.Table             `yaml:"rewards"`
	BossScript string                   `yaml:"boss_script"`
	Twitch     twitch.RewardConfig      `yaml:"twitch"`
}

// TimingTunings keys the bar tunings by kind. Kinds missing from the file
// keep their built-in tuning.
func (s ArenaSpec) TimingTunings() (map[timing.Kind]timing.Tuning, error) {
	out := timing.DefaultTunings()
	for name, t := range s.Timings {
		kind, err := parseKind(name)
		if err != nil {
			return nil, err
		}
		out[kind] = t
	}
	return out, nil
}

func parseKind(name string) (timing.Kind, error) {
	for _, k := range []timing.Kind{timing.AttackTiming, timing.CriticalTiming, timing.DefenseTiming, timing.DodgeTiming} {
		if strings.EqualFold(strings.TrimSpace(name), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("prefabs: unknown timing %q", name)
}

func LoadArenaSpec() (*ArenaSpec, error) {
	spec, err := LoadSpec[ArenaSpec](ArenaFile)
	if err != nil {
		return nil, err
	}
	if _, err := spec.TimingTunings(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func LoadEnemyTable() (enemy.Table, error) {
	return LoadSpec[enemy.Table](EnemiesFile)
}

type achievementsSpec struct {
	Achievements []achievement.Definition `yaml:"achievements"`
}

func LoadAchievements() ([]achievement.Definition, error) {
	spec, err := LoadSpec[achievementsSpec](AchievementsFile)
	if err != nil {
		return nil, err
	}
	return spec.Achievements, nil
}

// LoadBossBrain compiles the boss script named by the arena spec.
func LoadBossBrain(name string) (*combat.ScriptBrain, error) {
	if name == "" {
		return nil, fmt.Errorf("prefabs: no boss script configured")
	}
	src, err := LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load script %s: %w", name, err)
	}
	return combat.NewScriptBrain(src)
}
