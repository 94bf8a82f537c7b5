package achievement

import (
	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

// Definition is one achievement from the achievements table.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Stat        string `yaml:"stat"`
	Threshold   int    `yaml:"threshold"`
}

// ProfileStore is the part of profile.Store the registry needs.
type ProfileStore interface {
	Get() profile.Profile
	Set(func(*profile.Profile))
	SaveDebounced()
}

// Registry unlocks achievements against the stored profile.
type Registry struct {
	defs  map[string]Definition
	order []string
	store ProfileStore
	log   zerolog.Logger

	OnUnlock func(Definition)
}

func NewRegistry(defs []Definition, store ProfileStore, log zerolog.Logger) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs)), store: store, log: log}
	for _, d := range defs {
		if d.ID == "" {
			continue
		}
		if _, dup := r.defs[d.ID]; !dup {
			r.order = append(r.order, d.ID)
		}
		r.defs[d.ID] = d
	}
	return r
}

func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

func (r *Registry) Unlocked(id string) bool {
	return r.store.Get().HasAchievement(id)
}

// Check unlocks one achievement if its condition holds. It returns true only
// the first time the achievement unlocks.
func (r *Registry) Check(id string) bool {
	def, ok := r.defs[id]
	if !ok {
		return false
	}
	p := r.store.Get()
	if p.HasAchievement(id) {
		return false
	}
	value, ok := StatValue(p, def.Stat)
	if !ok || value < def.Threshold {
		return false
	}
	unlocked := false
	r.store.Set(func(p *profile.Profile) {
		if p.HasAchievement(id) {
			return
		}
		p.Achievements = append(p.Achievements, id)
		unlocked = true
	})
	if !unlocked {
		return false
	}
	r.store.SaveDebounced()
	r.log.Info().Str("achievement", id).Msg("achievement unlocked")
	if r.OnUnlock != nil {
		r.OnUnlock(def)
	}
	return true
}

// CheckAll evaluates every definition and returns the newly unlocked ones.
func (r *Registry) CheckAll() []Definition {
	var out []Definition
	for _, id := range r.order {
		if r.Check(id) {
			out = append(out, r.defs[id])
		}
	}
	return out
}

// StatValue reads a named profile statistic.
func StatValue(p profile.Profile, stat string) (int, bool) {
	switch stat {
	case "money":
		return p.Money, true
	case "best_wave":
		return p.BestArenaWave, true
	case "best_floor":
		return p.BestFloor, true
	case "arena_wins":
		return p.ArenaWins, true
	case "potions":
		return p.HealthPotions, true
	case "sword_tier":
		return p.Stats.SwordTier, true
	case "damage":
		return p.Stats.Damage, true
	case "armor":
		return p.Stats.Armor, true
	case "max_health":
		return p.Stats.MaxHealth, true
	default:
		return 0, false
	}
}
