package combat

import (
	"fmt"

	"github.com/looplab/fsm"
	"github.com/milk9111/tycoon/enemy"
	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/sched"
	"github.com/milk9111/tycoon/status"
	"github.com/milk9111/tycoon/timing"
	"github.com/rs/zerolog"
)

// ProfileStore is the part of profile.Store the arena reads and writes.
type ProfileStore interface {
	Get() profile.Profile
	Set(func(*profile.Profile))
	SaveDebounced()
}

// Ledger commits arena payouts to the profile.
type Ledger interface {
	WaveReward(n int) int
	MilestoneBonus(n int) reward.Milestone
	ComboBonus(reward, combo int) int
	CashOut(run reward.Run) reward.Outcome
	GameOver(run reward.Run) reward.Outcome
	Checkpoint(run reward.Run)
	GrantItem(item string) bool
}

// BonusSource hands out live-event bonuses. ConsumeCriticalMadness returns
// the event id of an unused critical madness token.
type BonusSource interface {
	ConsumeCriticalMadness() (string, bool)
}

type Options struct {
	Mode      profile.Mode
	Tuning    Tuning
	Timings   map[timing.Kind]timing.Tuning
	Enemies   *enemy.Generator
	Ledger    Ledger
	Profile   ProfileStore
	Bonus     BonusSource
	Brain     BossBrain
	Rand      Rand
	Scheduler *sched.Scheduler
	Log       *Log
	Logger    zerolog.Logger
}

// Session is the state of the run in progress.
type Session struct {
	Mode      profile.Mode
	State     State
	Outcome   Outcome
	Level     int
	Health    int
	MaxHealth int
	Combo     int
	Coins     int
}

// Result summarises the last finished run.
type Result struct {
	Outcome Outcome
	Mode    profile.Mode
	Level   int
	Coins   int
	Paid    int
	Best    int
	NewBest bool
}

type reload struct {
	tuning  Tuning
	timings map[timing.Kind]timing.Tuning
	enemies *enemy.Generator
	brain   BossBrain
}

// Machine runs the arena. All methods must be called from the goroutine
// that advances the scheduler.
type Machine struct {
	mode    profile.Mode
	tuning  Tuning
	timings map[timing.Kind]timing.Tuning
	enemies *enemy.Generator
	ledger  Ledger
	profile ProfileStore
	bonus   BonusSource
	brain   BossBrain
	rand    Rand
	sched   *sched.Scheduler
	timers  *sched.Group
	log     *Log
	logger  zerolog.Logger
	pending *reload

	fsm     *fsm.FSM
	session Session
	stats   profile.Stats
	foes    []*enemy.Enemy
	current int
	effects *status.Tracker
	bar     *timing.Bar
	redraw  *sched.Timer
	// gen changes on every transition; scheduled callbacks carry the value
	// they were created under and do nothing once it moves on.
	gen    uint64
	result Result

	OnStateChange func(from, to State)
}

func NewMachine(opts Options) *Machine {
	if opts.Mode == "" {
		opts.Mode = profile.ModeWave
	}
	if opts.Timings == nil {
		opts.Timings = timing.DefaultTunings()
	}
	if opts.Enemies == nil {
		opts.Enemies = enemy.NewGenerator(enemy.DefaultTable())
	}
	if opts.Brain == nil {
		opts.Brain = DefaultBrain{}
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = sched.New()
	}
	tuning := opts.Tuning.withDefaults()
	if opts.Log == nil {
		opts.Log = NewLog(tuning.LogSize)
	}
	m := &Machine{
		mode:    opts.Mode,
		tuning:  tuning,
		timings: opts.Timings,
		enemies: opts.Enemies,
		ledger:  opts.Ledger,
		profile: opts.Profile,
		bonus:   opts.Bonus,
		brain:   opts.Brain,
		rand:    opts.Rand,
		sched:   opts.Scheduler,
		timers:  sched.NewGroup(opts.Scheduler),
		log:     opts.Log,
		logger:  opts.Logger,
		fsm:     newStateMachine(),
		effects: status.NewTracker(tuning.PoisonDamage),
	}
	m.effects.OnExpired = func(k status.Kind) {
		m.log.Add(Text("You are no longer "), Colored(string(k), ColorStatus), Text("."))
	}
	m.session = m.freshSession()
	return m
}

func (m *Machine) State() State { return m.session.State }

func (m *Machine) Mode() profile.Mode { return m.mode }

func (m *Machine) Session() Session { return m.session }

func (m *Machine) Result() Result { return m.result }

func (m *Machine) Log() *Log { return m.log }

func (m *Machine) Effects() *status.Tracker { return m.effects }

// Bar returns the running timing bar, or nil.
func (m *Machine) Bar() *timing.Bar { return m.bar }

// Enemy returns the enemy currently being fought.
func (m *Machine) Enemy() (enemy.Enemy, bool) {
	e := m.currentEnemy()
	if e == nil {
		return enemy.Enemy{}, false
	}
	return *e, true
}

// SetMode switches arena variant. Only allowed between runs.
func (m *Machine) SetMode(mode profile.Mode) bool {
	if !m.betweenRuns() {
		return false
	}
	m.mode = mode
	m.session.Mode = mode
	return true
}

// Reload stages new balance data for the next StartSession. Nil arguments
// keep the current value.
func (m *Machine) Reload(t *Tuning, timings map[timing.Kind]timing.Tuning, enemies *enemy.Generator, brain BossBrain) {
	r := &reload{tuning: m.tuning, timings: m.timings, enemies: m.enemies, brain: m.brain}
	if m.pending != nil {
		r = m.pending
	}
	if t != nil {
		r.tuning = t.withDefaults()
	}
	if timings != nil {
		r.timings = timings
	}
	if enemies != nil {
		r.enemies = enemies
	}
	if brain != nil {
		r.brain = brain
	}
	m.pending = r
}

func (m *Machine) betweenRuns() bool {
	s := m.State()
	return s == Idle || s == Resolved
}

func (m *Machine) freshSession() Session {
	return Session{Mode: m.mode, State: m.session.State, Level: 1}
}

func (m *Machine) currentEnemy() *enemy.Enemy {
	if m.current < 0 || m.current >= len(m.foes) {
		return nil
	}
	return m.foes[m.current]
}

// to moves the state machine. Every successful move bumps gen.
func (m *Machine) to(next State) bool {
	from := m.session.State
	if from == next {
		return true
	}
	if !step(m.fsm, next) {
		m.logger.Debug().Str("from", from.String()).Str("to", next.String()).Msg("arena transition refused")
		return false
	}
	m.gen++
	m.session.State = next
	if m.OnStateChange != nil {
		m.OnStateChange(from, next)
	}
	return true
}

// StartSession begins a run, resuming a saved checkpoint for this mode.
func (m *Machine) StartSession() bool {
	if !m.betweenRuns() {
		return false
	}
	m.timers.CancelAll()
	m.bar = nil
	m.applyReload()

	prof := m.currentProfile()
	m.stats = prof.Stats
	m.session = m.freshSession()
	m.session.MaxHealth = max(m.stats.MaxHealth, 1)
	m.session.Health = m.session.MaxHealth
	m.effects.Clear()
	m.log.Clear()
	m.result = Result{}

	resumed := false
	if cp := prof.Checkpoint; cp != nil && cp.Mode == m.mode && cp.Level > 0 {
		m.session.Level = cp.Level
		m.session.Coins = max(cp.Coins, 0)
		if cp.Health > 0 {
			m.session.Health = min(cp.Health, m.session.MaxHealth)
		}
		resumed = true
	}
	m.loadLevel()
	if !m.to(PlayerTurn) {
		return false
	}

	label := "Wave"
	if m.mode == profile.ModeFloor {
		label = "Floor"
	}
	if resumed {
		m.log.Add(Text("Resuming at "), Colored(fmt.Sprintf("%s %d", label, m.session.Level), ColorInfo), Text(" with "), m.log.Coins(m.session.Coins), Text("."))
	} else {
		m.log.Add(Text("The arena gates open. "), Colored(fmt.Sprintf("%s %d", label, m.session.Level), ColorInfo), Text(" begins."))
	}
	m.announceEnemy()
	m.logger.Info().Str("mode", string(m.mode)).Int("level", m.session.Level).Bool("resumed", resumed).Msg("arena session started")
	return true
}

func (m *Machine) applyReload() {
	if m.pending == nil {
		return
	}
	r := m.pending
	m.pending = nil
	m.tuning = r.tuning
	m.timings = r.timings
	m.enemies = r.enemies
	m.brain = r.brain
	m.effects.SetPoisonDamage(m.tuning.PoisonDamage)
	m.logger.Info().Msg("arena tuning reloaded")
}

func (m *Machine) currentProfile() profile.Profile {
	if m.profile == nil {
		return profile.Default()
	}
	return m.profile.Get()
}

func (m *Machine) loadLevel() {
	m.foes = m.foes[:0]
	m.current = 0
	if m.mode == profile.ModeFloor {
		e := m.enemies.Floor(m.session.Level)
		m.foes = append(m.foes, &e)
		return
	}
	for _, e := range m.enemies.Wave(m.session.Level) {
		m.foes = append(m.foes, &e)
	}
}

func (m *Machine) announceEnemy() {
	e := m.currentEnemy()
	if e == nil {
		return
	}
	color := ColorInfo
	if e.IsBoss {
		color = ColorCrit
	}
	m.log.Add(Colored(e.Name, color), Text(fmt.Sprintf(" appears with %d health.", e.MaxHealth)))
}

// Abandon ends the run without a payout. Saved checkpoints are kept so the
// next StartSession resumes from them.
func (m *Machine) Abandon() {
	m.timers.CancelAll()
	m.bar = nil
	m.redraw = nil
	m.foes = m.foes[:0]
	m.current = 0
	m.effects.Clear()
	m.to(Idle)
	m.session = m.freshSession()
}

// CashOut banks the session coins and ends the run.
func (m *Machine) CashOut() (reward.Outcome, bool) {
	if m.State() != PlayerTurn || m.ledger == nil {
		return reward.Outcome{}, false
	}
	m.timers.CancelAll()
	run := m.run()
	out := m.ledger.CashOut(run)
	m.result = Result{Outcome: OutcomeNone, Mode: m.mode, Level: run.Level, Coins: run.Coins, Paid: out.Paid, Best: out.Best, NewBest: out.NewBest}
	m.log.Add(Text("You leave the arena with "), m.log.Coins(out.Paid), Text("."))
	m.Abandon()
	return out, true
}

func (m *Machine) run() reward.Run {
	return reward.Run{Mode: m.mode, Level: m.session.Level, Health: m.session.Health, Coins: m.session.Coins}
}

// UsePotion heals during the player's turn. It does not end the turn.
func (m *Machine) UsePotion() bool {
	if m.State() != PlayerTurn || m.profile == nil {
		return false
	}
	if m.effects.IsWounded() {
		m.log.Add(Text("Your wounds prevent healing."))
		return false
	}
	if m.session.Health >= m.session.MaxHealth {
		return false
	}
	used := false
	m.profile.Set(func(p *profile.Profile) {
		if p.HealthPotions > 0 {
			p.HealthPotions--
			used = true
		}
	})
	if !used {
		m.log.Add(Text("You have no potions left."))
		return false
	}
	m.profile.SaveDebounced()
	healed := min(m.tuning.PotionHeal, m.session.MaxHealth-m.session.Health)
	m.session.Health += healed
	m.log.Add(Text("You drink a potion and recover "), Colored(fmt.Sprintf("%d health", healed), ColorHeal), Text("."))
	return true
}

func (m *Machine) damagePlayer(n int) {
	if n <= 0 {
		return
	}
	m.session.Health = max(m.session.Health-n, 0)
}

// lose resolves the run as a defeat exactly once.
func (m *Machine) lose() {
	if m.session.Outcome != OutcomeNone {
		return
	}
	m.timers.CancelAll()
	m.bar = nil
	m.redraw = nil
	run := m.run()
	m.session.Outcome = OutcomeLoss
	m.session.Combo = 0
	out := reward.Outcome{}
	if m.ledger != nil {
		out = m.ledger.GameOver(run)
	}
	m.result = Result{Outcome: OutcomeLoss, Mode: m.mode, Level: run.Level, Coins: run.Coins, Paid: out.Paid, Best: out.Best, NewBest: out.NewBest}
	m.log.Add(Colored("You have been defeated.", ColorDamage), Text(" You keep "), m.log.Coins(out.Paid), Text("."))
	m.logger.Info().Str("mode", string(m.mode)).Int("level", run.Level).Int("paid", out.Paid).Msg("arena run lost")
	m.finish()
}

// finish moves to Resolved and clears the session, keeping the outcome.
func (m *Machine) finish() {
	outcome := m.session.Outcome
	m.to(Resolved)
	m.foes = m.foes[:0]
	m.current = 0
	m.effects.Clear()
	m.session = m.freshSession()
	m.session.Outcome = outcome
}
