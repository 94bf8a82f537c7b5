package reward

import (
	"time"

	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

// Store is the part of profile.Store the ledger writes to.
type Store interface {
	Get() profile.Profile
	Set(func(*profile.Profile))
	SaveNow() <-chan error
}

// Run is the state of an arena run at the moment it is committed.
type Run struct {
	Mode   profile.Mode
	Level  int
	Health int
	Coins  int
}

// Outcome describes a committed run.
type Outcome struct {
	Paid    int
	Best    int
	NewBest bool
}

// Ledger commits run results to the profile.
type Ledger struct {
	table Table
	store Store
	check func()
	log   zerolog.Logger
}

func NewLedger(table Table, store Store, log zerolog.Logger) *Ledger {
	return &Ledger{table: table, store: store, log: log}
}

// OnCommit registers a hook run after each commit, typically an achievement
// sweep.
func (l *Ledger) OnCommit(fn func()) {
	l.check = fn
}

func (l *Ledger) Table() Table { return l.table }

func (l *Ledger) WaveReward(n int) int { return l.table.WaveReward(n) }

func (l *Ledger) MilestoneBonus(n int) Milestone { return l.table.MilestoneBonus(n) }

func (l *Ledger) ComboBonus(reward, combo int) int { return l.table.ComboBonus(reward, combo) }

// CashOut pays every session coin.
func (l *Ledger) CashOut(run Run) Outcome {
	out := l.commit(run, max(run.Coins, 0))
	l.log.Info().Str("mode", string(run.Mode)).Int("level", run.Level).Int("paid", out.Paid).Msg("arena cash out")
	return out
}

// GameOver pays the loss share of the session coins.
func (l *Ledger) GameOver(run Run) Outcome {
	out := l.commit(run, l.table.LossPayout(run.Coins))
	l.log.Info().Str("mode", string(run.Mode)).Int("level", run.Level).Int("paid", out.Paid).Msg("arena defeat")
	return out
}

func (l *Ledger) commit(run Run, paid int) Outcome {
	out := Outcome{Paid: paid}
	l.store.Set(func(p *profile.Profile) {
		p.Money += paid
		prev := p.Best(run.Mode)
		best := max(prev, run.Level)
		if run.Mode == profile.ModeFloor {
			p.BestFloor = best
		} else {
			p.BestArenaWave = best
		}
		out.Best = best
		out.NewBest = best > prev
		p.Checkpoint = nil
	})
	l.store.SaveNow()
	if l.check != nil {
		l.check()
	}
	return out
}

// Checkpoint records progress after an enemy falls and counts the win.
func (l *Ledger) Checkpoint(run Run) {
	l.store.Set(func(p *profile.Profile) {
		p.ArenaWins++
		p.Checkpoint = &profile.Checkpoint{
			Mode:    run.Mode,
			Level:   max(run.Level, 1),
			Health:  run.Health,
			Coins:   max(run.Coins, 0),
			SavedAt: time.Now().UTC(),
		}
	})
	l.store.SaveNow()
	if l.check != nil {
		l.check()
	}
}

// GrantItem adds a milestone item to the profile.
func (l *Ledger) GrantItem(item string) bool {
	switch item {
	case HealthPotion:
		l.store.Set(func(p *profile.Profile) { p.HealthPotions++ })
		return true
	default:
		l.log.Warn().Str("item", item).Msg("unknown reward item")
		return false
	}
}
