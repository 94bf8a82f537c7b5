package combat

import (
	"fmt"

	"github.com/milk9111/tycoon/enemy"
	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/status"
	"github.com/milk9111/tycoon/timing"
)

// Attack starts the player's attack. Wave mode opens the timing bar; floor
// mode rolls for a critical chance first and strikes directly on a miss.
func (m *Machine) Attack() bool {
	if m.State() != PlayerTurn || m.currentEnemy() == nil {
		return false
	}
	if m.mode == profile.ModeWave {
		return m.startMiniGame(AttackMiniGame, timing.AttackTiming)
	}
	if m.rand.Float64() < m.critChance() {
		m.log.Add(Colored("An opening! ", ColorCrit), Text("Time your strike."))
		return m.startMiniGame(CriticalAttackMiniGame, timing.CriticalTiming)
	}
	m.strike(1, false, "")
	return true
}

// critChance is the floor-mode chance to enter the critical mini-game. A
// critical madness token overrides it once.
func (m *Machine) critChance() float64 {
	chance := CritChance(m.tuning.BaseCrit, m.tuning.CritPerTier, m.stats.SwordTier, m.tuning.CritCap)
	if m.bonus == nil {
		return chance
	}
	if id, ok := m.bonus.ConsumeCriticalMadness(); ok {
		m.log.Add(Colored("Critical madness", ColorCrit), Text(" sharpens your blade."))
		m.logger.Debug().Str("event", id).Msg("critical madness consumed")
		return m.tuning.MadnessCrit
	}
	return chance
}

func (m *Machine) dodgeChance() float64 {
	return DodgeChance(m.stats.MoveSpeed, m.tuning.DodgeNorm, m.tuning.DodgeCap)
}

func (m *Machine) timingConfig(kind timing.Kind) timing.Config {
	tun, ok := m.timings[kind]
	if !ok {
		tun = timing.DefaultTunings()[kind]
	}
	return tun.Config(kind, m.session.Level)
}

func (m *Machine) startMiniGame(state State, kind timing.Kind) bool {
	if !m.to(state) {
		return false
	}
	cfg := m.timingConfig(kind)
	m.bar = timing.Start(cfg, m.sched.Now())
	gen := m.gen
	m.redraw = m.timers.Every(m.tuning.RedrawInterval, func() {
		if m.gen == gen && m.bar != nil {
			m.bar.Advance(m.sched.Now())
		}
	})
	m.timers.After(cfg.Timeout, func() { m.expire(gen) })
	return true
}

// Input feeds the action key to the running mini-game.
func (m *Machine) Input() bool {
	if !m.State().MiniGame() || m.bar == nil {
		return false
	}
	grade, ok := m.bar.Sample(m.sched.Now())
	if !ok {
		return false
	}
	m.resolveMiniGame(grade)
	return true
}

func (m *Machine) expire(gen uint64) {
	if gen != m.gen || m.bar == nil {
		return
	}
	grade, ok := m.bar.Expire(m.sched.Now())
	if !ok {
		return
	}
	m.log.Add(Text("Too slow!"))
	m.resolveMiniGame(grade)
}

func (m *Machine) resolveMiniGame(grade timing.Grade) {
	m.redraw.Cancel()
	m.redraw = nil
	m.bar = nil

	switch m.State() {
	case AttackMiniGame:
		switch grade {
		case timing.GradeCritical:
			m.strike(m.tuning.WaveCritMultiplier, false, "Critical hit! ")
		case timing.GradeGood:
			m.strike(m.tuning.GoodMultiplier, false, "Good hit! ")
		default:
			m.strike(0, true, "")
		}
	case CriticalAttackMiniGame:
		if grade == timing.GradeSuccess {
			m.strike(m.tuning.FloorCritMultiplier, false, "Critical hit! ")
		} else {
			m.strike(1, true, "")
		}
	case DefenseMiniGame, DodgeMiniGame:
		m.enemyStrike(grade == timing.GradeSuccess, true)
	}
}

// strike resolves a player hit. breaks marks a fumbled timing input, which
// resets the combo instead of extending it.
func (m *Machine) strike(multiplier float64, breaks bool, label string) {
	e := m.currentEnemy()
	if e == nil {
		return
	}
	dmg := ApplyMultiplier(m.stats.Damage, multiplier)
	if breaks {
		m.session.Combo = 0
	} else {
		dmg = ApplyCombo(dmg, m.session.Combo, m.tuning.ComboStep)
		m.session.Combo++
	}
	applied := e.TakeDamage(dmg)

	if applied == 0 {
		m.log.Add(Text("You miss "), Colored(e.Name, ColorInfo), Text("."))
	} else {
		segs := []Segment{}
		if label != "" {
			segs = append(segs, Colored(label, ColorCrit))
		}
		segs = append(segs, Text("You hit "), Colored(e.Name, ColorInfo), Text(" for "), Colored(fmt.Sprintf("%d damage", applied), ColorDamage), Text("."))
		if m.session.Combo > 1 {
			segs = append(segs, Colored(fmt.Sprintf(" Combo x%d", m.session.Combo), ColorGold))
		}
		m.log.Add(segs...)
	}

	if e.Defeated() {
		m.enemyDefeated(e)
		return
	}
	m.beginEnemyTurn()
}

func (m *Machine) beginEnemyTurn() {
	if !m.to(EnemyTurn) {
		return
	}
	gen := m.gen
	m.timers.After(m.tuning.EnemyDelay, func() { m.enemyTurn(gen) })
}

func (m *Machine) enemyDefeated(e *enemy.Enemy) {
	m.log.Add(Colored(e.Name, ColorInfo), Text(" is defeated!"))
	floorCoins := 0
	if m.mode == profile.ModeFloor {
		floorCoins = e.CoinReward + m.comboBonus(e.CoinReward)
	}
	m.current++
	if m.current < len(m.foes) {
		m.checkpoint()
		m.to(PlayerTurn)
		m.announceEnemy()
		return
	}

	level := m.session.Level
	coins := floorCoins
	if m.mode == profile.ModeWave && m.ledger != nil {
		base := m.ledger.WaveReward(level)
		coins = base + m.comboBonus(base)
	}
	if m.ledger != nil {
		ms := m.ledger.MilestoneBonus(level)
		if ms.Bonus > 0 {
			coins += ms.Bonus
			m.log.Add(Colored("Milestone reached! ", ColorGold), Text("Bonus "), m.log.Coins(ms.Bonus), Text("."))
		}
		if ms.Item != "" && m.ledger.GrantItem(ms.Item) {
			m.log.Add(Text("You receive a "), Colored(ms.Item, ColorHeal), Text("."))
		}
	}
	m.session.Coins += coins
	m.log.Add(Text("You earn "), m.log.Coins(coins), Text(". Pot: "), m.log.Coins(m.session.Coins), Text("."))

	if m.tuning.MaxLevel > 0 && level >= m.tuning.MaxLevel {
		m.win()
		return
	}
	m.session.Level++
	m.loadLevel()
	m.checkpoint()
	m.to(PlayerTurn)
	m.announceEnemy()
}

func (m *Machine) comboBonus(base int) int {
	if m.ledger == nil {
		return 0
	}
	return m.ledger.ComboBonus(base, m.session.Combo)
}

func (m *Machine) checkpoint() {
	if m.ledger == nil {
		return
	}
	m.ledger.Checkpoint(m.run())
}

// win ends a run that cleared the last configured level. The pot is banked
// in full.
func (m *Machine) win() {
	m.timers.CancelAll()
	run := m.run()
	out := reward.Outcome{}
	if m.ledger != nil {
		out = m.ledger.CashOut(run)
	}
	m.session.Outcome = OutcomeVictory
	m.result = Result{Outcome: OutcomeVictory, Mode: m.mode, Level: run.Level, Coins: run.Coins, Paid: out.Paid, Best: out.Best, NewBest: out.NewBest}
	m.log.Add(Colored("Victory! ", ColorGold), Text("You bank "), m.log.Coins(out.Paid), Text("."))
	m.finish()
}

func (m *Machine) enemyTurn(gen uint64) {
	if gen != m.gen || m.State() != EnemyTurn {
		return
	}
	e := m.currentEnemy()
	if e == nil {
		m.to(PlayerTurn)
		return
	}

	tick := m.effects.Tick()
	if tick.Damage > 0 {
		m.damagePlayer(tick.Damage)
		m.log.Add(Text("Poison deals "), Colored(fmt.Sprintf("%d damage", tick.Damage), ColorStatus), Text("."))
		if m.session.Health == 0 {
			m.lose()
			return
		}
	}

	if e.IsBoss {
		if e.PreparingSpecial {
			m.executeSpecial(e)
			return
		}
		if m.telegraph(e) {
			return
		}
	}

	if m.mode == profile.ModeWave {
		m.startMiniGame(DefenseMiniGame, timing.DefenseTiming)
		return
	}
	if m.rand.Float64() < m.dodgeChance() {
		m.log.Add(Colored(e.Name, ColorInfo), Text(" lunges. Dodge!"))
		m.startMiniGame(DodgeMiniGame, timing.DodgeTiming)
		return
	}
	m.enemyStrike(false, false)
}

// telegraph asks the boss brain whether to wind up a special. It reports
// whether the turn was spent telegraphing.
func (m *Machine) telegraph(e *enemy.Enemy) bool {
	view := BossView{
		Name:            e.Name,
		Health:          e.Health,
		MaxHealth:       e.MaxHealth,
		Level:           m.session.Level,
		Available:       m.availableSpecials(e),
		TelegraphChance: m.tuning.TelegraphChance,
	}
	if len(view.Available) == 0 {
		return false
	}
	dec, err := m.brain.Decide(view, m.rand)
	if err != nil {
		m.logger.Warn().Err(err).Msg("boss brain failed, using default")
		dec, _ = DefaultBrain{}.Decide(view, m.rand)
	}
	if !dec.Telegraph || !e.Prepare(dec.Special) {
		return false
	}
	if !m.to(BossTelegraph) {
		e.ClearSpecial()
		return false
	}
	m.log.Add(Colored(e.Name, ColorCrit), Text(" is preparing "), Colored(specialName(dec.Special), ColorStatus), Text("!"))
	gen := m.gen
	m.timers.After(m.tuning.TelegraphDelay, func() {
		if gen == m.gen && m.State() == BossTelegraph {
			m.to(PlayerTurn)
		}
	})
	return true
}

// availableSpecials skips specials whose effect is already on the player.
func (m *Machine) availableSpecials(e *enemy.Enemy) []enemy.Special {
	out := make([]enemy.Special, 0, len(e.Specials))
	for _, sp := range e.Specials {
		if kind, ok := effectFor(sp); ok && !m.effects.Active(kind) {
			out = append(out, sp)
		}
	}
	return out
}

func (m *Machine) executeSpecial(e *enemy.Enemy) {
	sp := e.ChosenSpecial
	e.ClearSpecial()
	dmg := EnemyDamage(e.Damage, m.stats.Armor)
	m.damagePlayer(dmg)
	segs := []Segment{Colored(e.Name, ColorCrit), Text(" unleashes "), Colored(specialName(sp), ColorStatus), Text(" for "), Colored(fmt.Sprintf("%d damage", dmg), ColorDamage), Text(".")}
	if kind, ok := effectFor(sp); ok {
		turns := m.tuning.EffectMinTurns
		if spread := m.tuning.EffectMaxTurns - m.tuning.EffectMinTurns; spread > 0 {
			turns += m.rand.IntN(spread + 1)
		}
		m.effects.Apply(kind, turns)
		segs = append(segs, Text(" You are "), Colored(fmt.Sprintf("%s for %d turns", kind, turns), ColorStatus), Text("."))
	}
	m.log.Add(segs...)
	if m.session.Health == 0 {
		m.lose()
		return
	}
	m.to(PlayerTurn)
}

// enemyStrike resolves a regular enemy attack. A defended hit is halved and
// extends the combo; a failed defence resets it.
func (m *Machine) enemyStrike(defended, attempted bool) {
	e := m.currentEnemy()
	if e == nil {
		m.to(PlayerTurn)
		return
	}
	dmg := EnemyDamage(e.Damage, m.stats.Armor)
	switch {
	case defended:
		dmg = max(1, dmg/2)
		m.session.Combo++
		m.log.Add(Colored("Blocked! ", ColorHeal), Colored(e.Name, ColorInfo), Text(" deals only "), Colored(fmt.Sprintf("%d damage", dmg), ColorDamage), Text("."))
	default:
		if attempted {
			m.session.Combo = 0
		}
		m.log.Add(Colored(e.Name, ColorInfo), Text(" hits you for "), Colored(fmt.Sprintf("%d damage", dmg), ColorDamage), Text("."))
	}
	m.damagePlayer(dmg)
	if m.session.Health == 0 {
		m.lose()
		return
	}
	m.to(PlayerTurn)
}

func effectFor(sp enemy.Special) (status.Kind, bool) {
	switch sp {
	case enemy.SpecialPoison:
		return status.Poisoned, true
	case enemy.SpecialWound:
		return status.Wounded, true
	}
	return "", false
}

func specialName(sp enemy.Special) string {
	switch sp {
	case enemy.SpecialPoison:
		return "Toxic Spit"
	case enemy.SpecialWound:
		return "Rending Blow"
	}
	return string(sp)
}
