package combat

import (
	"testing"
	"time"

	"github.com/milk9111/tycoon/enemy"
	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/sched"
	"github.com/milk9111/tycoon/status"
	"github.com/milk9111/tycoon/timing"
	"github.com/rs/zerolog"
)

// seqRand replays fixed values, repeating the last one when exhausted.
type seqRand struct {
	floats []float64
	ints   []int
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *seqRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	if len(r.ints) > 1 {
		r.ints = r.ints[1:]
	}
	if v >= n {
		return n - 1
	}
	return v
}

type fixedBrain struct {
	special enemy.Special
}

func (b fixedBrain) Decide(view BossView, r Rand) (BossDecision, error) {
	if b.special == enemy.SpecialNone {
		return BossDecision{}, nil
	}
	return BossDecision{Telegraph: true, Special: b.special}, nil
}

type madness struct {
	tokens int
}

func (b *madness) ConsumeCriticalMadness() (string, bool) {
	if b.tokens == 0 {
		return "", false
	}
	b.tokens--
	return "evt-1", true
}

type harness struct {
	m     *Machine
	s     *sched.Scheduler
	store *profile.Store
	rand  *seqRand
}

func dummyTable() enemy.Table {
	t := enemy.DefaultTable()
	t.Regular = []enemy.Archetype{{Name: "Dummy", Health: 1000, Damage: 10, CoinReward: 10}}
	return t
}

func newHarness(t *testing.T, mode profile.Mode, table enemy.Table, setup func(o *Options)) *harness {
	t.Helper()
	s := sched.New()
	store := profile.NewStore(&profile.MemoryBackend{}, time.Hour, zerolog.Nop())
	r := &seqRand{}
	opts := Options{
		Mode:      mode,
		Tuning:    DefaultTuning(),
		Enemies:   enemy.NewGenerator(table),
		Ledger:    reward.NewLedger(reward.DefaultTable(), store, zerolog.Nop()),
		Profile:   store,
		Rand:      r,
		Scheduler: s,
		Logger:    zerolog.Nop(),
	}
	if setup != nil {
		setup(&opts)
	}
	return &harness{m: NewMachine(opts), s: s, store: store, rand: r}
}

// pressAt advances the running bar until it reaches pos on its first pass
// and presses the action key there.
func pressAt(t *testing.T, h *harness, pos float64) {
	t.Helper()
	bar := h.m.Bar()
	if bar == nil {
		t.Fatalf("no bar running in %v", h.m.State())
	}
	cfg := bar.Config()
	started := bar.Deadline() - cfg.Timeout
	at := started + time.Duration(pos/cfg.Speed*float64(time.Second))
	h.s.Advance(at - h.s.Now())
	if !h.m.Input() {
		t.Fatalf("input at %.1f was ignored", pos)
	}
}

func perfectCenter(h *harness) float64 {
	z := h.m.Bar().Config().Perfect
	return (z.Start + z.End) / 2
}

func TestStartSessionOnlyBetweenRuns(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), nil)
	if h.m.Attack() {
		t.Fatalf("attack should be refused while idle")
	}
	if !h.m.StartSession() {
		t.Fatalf("expected session to start")
	}
	if h.m.State() != PlayerTurn {
		t.Fatalf("expected player turn, got %v", h.m.State())
	}
	if h.m.StartSession() {
		t.Fatalf("second start should be refused mid-run")
	}
	e, ok := h.m.Enemy()
	if !ok || e.Name != "Slime" || e.Health != 30 {
		t.Fatalf("expected level 1 slime, got %+v", e)
	}
	if h.m.Input() {
		t.Fatalf("input outside a mini-game should be refused")
	}
}

func TestFloorNormalAttackAndEnemyReply(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), nil)
	h.rand.floats = []float64{0.99}
	h.m.StartSession()

	if !h.m.Attack() {
		t.Fatalf("expected attack")
	}
	e, _ := h.m.Enemy()
	if e.Health != 10 {
		t.Fatalf("expected slime at 10 health, got %d", e.Health)
	}
	if h.m.State() != EnemyTurn {
		t.Fatalf("expected enemy turn, got %v", h.m.State())
	}
	if h.m.Attack() {
		t.Fatalf("attack should be refused during the enemy turn")
	}

	h.s.Advance(899 * time.Millisecond)
	if h.m.State() != EnemyTurn {
		t.Fatalf("enemy should wait for its delay")
	}
	h.s.Advance(time.Millisecond)
	if h.m.State() != PlayerTurn {
		t.Fatalf("expected player turn after enemy attack, got %v", h.m.State())
	}
	if got := h.m.Session().Health; got != 97 {
		t.Fatalf("expected 100-(5-2)=97 health, got %d", got)
	}
	if got := h.m.Session().Combo; got != 1 {
		t.Fatalf("expected combo 1, got %d", got)
	}
}

func TestFloorCriticalHitDefeatsEnemy(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), nil)
	h.rand.floats = []float64{0.0, 0.99}
	h.m.StartSession()

	h.m.Attack()
	if h.m.State() != CriticalAttackMiniGame {
		t.Fatalf("expected critical mini-game, got %v", h.m.State())
	}
	h.s.Advance(555 * time.Millisecond)
	if !h.m.Input() {
		t.Fatalf("expected input to resolve the bar")
	}
	if h.m.Bar() != nil {
		t.Fatalf("bar should be destroyed after resolution")
	}
	sess := h.m.Session()
	if sess.Level != 2 || sess.State != PlayerTurn {
		t.Fatalf("expected floor 2 player turn, got %+v", sess)
	}
	if sess.Coins != 11 {
		t.Fatalf("expected 10 reward + 1 combo bonus, got %d", sess.Coins)
	}
	p := h.store.Get()
	if p.ArenaWins != 1 || p.Checkpoint == nil || p.Checkpoint.Level != 2 {
		t.Fatalf("expected checkpoint at floor 2, got %+v", p.Checkpoint)
	}
}

func TestCriticalTimeoutFallsBackToNormalDamage(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.rand.floats = []float64{0.0, 0.99}
	h.m.StartSession()
	h.m.session.Combo = 3

	h.m.Attack()
	h.s.Advance(5 * time.Second)
	e, _ := h.m.Enemy()
	if e.Health != 980 {
		t.Fatalf("expected plain 20 damage on timeout, got %d left", e.Health)
	}
	if h.m.Session().Combo != 0 {
		t.Fatalf("fumbled critical should reset combo")
	}
}

func TestWaveCriticalWithCombo(t *testing.T) {
	h := newHarness(t, profile.ModeWave, dummyTable(), nil)
	h.m.StartSession()
	h.m.session.Combo = 3

	h.m.Attack()
	if h.m.State() != AttackMiniGame {
		t.Fatalf("expected attack mini-game, got %v", h.m.State())
	}
	pressAt(t, h, perfectCenter(h))
	e, _ := h.m.Enemy()
	if got := 1000 - e.Health; got != 36 {
		t.Fatalf("expected floor(floor(20*1.5)*1.2)=36 damage, got %d", got)
	}
	if h.m.Session().Combo != 4 {
		t.Fatalf("expected combo 4, got %d", h.m.Session().Combo)
	}
	if h.m.State() != EnemyTurn {
		t.Fatalf("expected enemy turn, got %v", h.m.State())
	}
}

func TestWaveMissResetsCombo(t *testing.T) {
	h := newHarness(t, profile.ModeWave, dummyTable(), nil)
	h.m.StartSession()
	h.m.session.Combo = 2
	h.m.Attack()
	h.s.Advance(100 * time.Millisecond)
	h.m.Input()
	e, _ := h.m.Enemy()
	if e.Health != 1000 || h.m.Session().Combo != 0 {
		t.Fatalf("expected miss with combo reset, health %d combo %d", e.Health, h.m.Session().Combo)
	}
}

func TestInputIgnoredInsideGuardWindow(t *testing.T) {
	h := newHarness(t, profile.ModeWave, dummyTable(), nil)
	h.m.StartSession()
	h.m.Attack()
	if h.m.Input() {
		t.Fatalf("input on the opening frame should be ignored")
	}
	if h.m.State() != AttackMiniGame {
		t.Fatalf("bar should still be running")
	}
}

func TestWaveDefenseBlockHalvesDamage(t *testing.T) {
	h := newHarness(t, profile.ModeWave, dummyTable(), nil)
	h.m.StartSession()
	h.m.Attack()
	h.s.Advance(100 * time.Millisecond)
	h.m.Input()
	h.s.Advance(900 * time.Millisecond)
	if h.m.State() != DefenseMiniGame {
		t.Fatalf("expected defense mini-game, got %v", h.m.State())
	}
	pressAt(t, h, 80)
	if got := h.m.Session().Health; got != 96 {
		t.Fatalf("expected (10-2)/2=4 damage, health %d", got)
	}
	if h.m.Session().Combo != 1 {
		t.Fatalf("successful block should extend combo")
	}
}

func TestLethalHitResolvesLoss(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.store.Set(func(p *profile.Profile) { p.BestFloor = 10 })
	h.rand.floats = []float64{0.99}
	h.m.StartSession()
	h.m.session.Health = 1
	h.m.session.Coins = 75
	h.m.session.Combo = 4

	h.m.Attack()
	h.s.Advance(time.Second)

	if h.m.State() != Resolved {
		t.Fatalf("expected resolved, got %v", h.m.State())
	}
	res := h.m.Result()
	if res.Outcome != OutcomeLoss || res.Paid != 37 {
		t.Fatalf("expected loss paying 37, got %+v", res)
	}
	if h.m.Session().Combo != 0 || h.m.Session().Outcome != OutcomeLoss {
		t.Fatalf("expected combo reset and loss outcome, got %+v", h.m.Session())
	}
	p := h.store.Get()
	if p.Money != 37 || p.BestFloor != 10 || p.Checkpoint != nil {
		t.Fatalf("unexpected profile after loss %+v", p)
	}
	if !h.m.StartSession() {
		t.Fatalf("should be able to start again after a loss")
	}
}

func TestAbandonCancelsPendingEnemyTurn(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.rand.floats = []float64{0.99}
	h.m.StartSession()
	h.m.Attack()
	h.m.Abandon()
	if h.m.State() != Idle {
		t.Fatalf("expected idle, got %v", h.m.State())
	}
	h.m.StartSession()
	h.s.Advance(2 * time.Second)
	if h.m.State() != PlayerTurn {
		t.Fatalf("stale enemy turn fired into the new session: %v", h.m.State())
	}
	if h.m.Session().Health != 100 {
		t.Fatalf("player should not have been hit, health %d", h.m.Session().Health)
	}
}

func TestBossTelegraphThenSpecial(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), func(o *Options) {
		o.Brain = fixedBrain{special: enemy.SpecialPoison}
	})
	h.store.Set(func(p *profile.Profile) {
		p.Checkpoint = &profile.Checkpoint{Mode: profile.ModeFloor, Level: 5, Health: 100}
	})
	h.rand.floats = []float64{0.99}
	h.rand.ints = []int{1}
	h.m.StartSession()
	boss, _ := h.m.Enemy()
	if !boss.IsBoss {
		t.Fatalf("expected a boss on floor 5, got %+v", boss)
	}

	h.m.Attack()
	h.s.Advance(900 * time.Millisecond)
	if h.m.State() != BossTelegraph {
		t.Fatalf("expected telegraph, got %v", h.m.State())
	}
	h.s.Advance(1200 * time.Millisecond)
	if h.m.State() != PlayerTurn {
		t.Fatalf("expected player turn after telegraph, got %v", h.m.State())
	}
	if snap := h.m.Snapshot(); snap.Enemies[0].Preparing == "" {
		t.Fatalf("snapshot should show the prepared special")
	}

	h.m.Attack()
	h.s.Advance(900 * time.Millisecond)
	if h.m.State() != PlayerTurn {
		t.Fatalf("expected player turn after special, got %v", h.m.State())
	}
	if got := h.m.Effects().Remaining(status.Poisoned); got != 2 {
		t.Fatalf("expected poison for 2 turns, got %d", got)
	}
	boss, _ = h.m.Enemy()
	if boss.PreparingSpecial {
		t.Fatalf("special should be cleared after executing")
	}
	wantDmg := EnemyDamage(boss.Damage, profile.Default().Stats.Armor)
	if got := 100 - h.m.Session().Health; got != wantDmg {
		t.Fatalf("expected %d special damage, got %d", wantDmg, got)
	}
}

func TestPotionRules(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.m.StartSession()
	if h.m.UsePotion() {
		t.Fatalf("potion at full health should be refused")
	}
	h.m.session.Health = 30
	h.m.Effects().Apply(status.Wounded, 2)
	if h.m.UsePotion() {
		t.Fatalf("wounded players cannot heal")
	}
	h.m.Effects().Clear()
	if !h.m.UsePotion() {
		t.Fatalf("expected potion to be used")
	}
	if h.m.Session().Health != 80 || h.m.State() != PlayerTurn {
		t.Fatalf("expected 80 health and still player turn, got %+v", h.m.Session())
	}
	if h.store.Get().HealthPotions != 0 {
		t.Fatalf("expected the only potion to be consumed")
	}
	h.m.session.Health = 10
	if h.m.UsePotion() {
		t.Fatalf("no potions left")
	}
}

func TestCashOut(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), nil)
	h.rand.floats = []float64{0.0, 0.99}
	h.m.StartSession()
	h.m.Attack()
	h.s.Advance(555 * time.Millisecond)
	h.m.Input()

	out, ok := h.m.CashOut()
	if !ok || out.Paid != 11 {
		t.Fatalf("expected 11 coins banked, got %+v ok=%v", out, ok)
	}
	if h.m.State() != Idle {
		t.Fatalf("expected idle after cash out, got %v", h.m.State())
	}
	p := h.store.Get()
	if p.Money != 11 || p.BestFloor != 2 || p.Checkpoint != nil {
		t.Fatalf("unexpected profile after cash out %+v", p)
	}
	if _, ok := h.m.CashOut(); ok {
		t.Fatalf("cash out while idle should be refused")
	}
}

func TestResumeFromCheckpoint(t *testing.T) {
	h := newHarness(t, profile.ModeWave, enemy.DefaultTable(), nil)
	h.store.Set(func(p *profile.Profile) {
		p.Checkpoint = &profile.Checkpoint{Mode: profile.ModeWave, Level: 6, Health: 40, Coins: 55}
	})
	h.m.StartSession()
	sess := h.m.Session()
	if sess.Level != 6 || sess.Health != 40 || sess.Coins != 55 {
		t.Fatalf("expected resumed wave 6, got %+v", sess)
	}
	if n := len(h.m.Snapshot().Enemies); n != 2 {
		t.Fatalf("expected two enemies on wave 6, got %d", n)
	}
}

func TestCheckpointForOtherModeIgnored(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), nil)
	h.store.Set(func(p *profile.Profile) {
		p.Checkpoint = &profile.Checkpoint{Mode: profile.ModeWave, Level: 9}
	})
	h.m.StartSession()
	if h.m.Session().Level != 1 {
		t.Fatalf("wave checkpoint should not resume a floor run")
	}
}

func TestCriticalMadnessOverridesChanceOnce(t *testing.T) {
	bonus := &madness{tokens: 1}
	h := newHarness(t, profile.ModeFloor, dummyTable(), func(o *Options) { o.Bonus = bonus })
	h.rand.floats = []float64{0.5}
	h.m.StartSession()
	h.m.Attack()
	if h.m.State() != CriticalAttackMiniGame {
		t.Fatalf("madness should raise crit chance to 0.8, got %v", h.m.State())
	}
	if bonus.tokens != 0 {
		t.Fatalf("token should be consumed")
	}
}

func TestWaveClearsAfterAllEnemies(t *testing.T) {
	table := enemy.DefaultTable()
	table.Regular = []enemy.Archetype{{Name: "Gnat", Health: 5, Damage: 1}}
	h := newHarness(t, profile.ModeWave, table, nil)
	h.store.Set(func(p *profile.Profile) {
		p.Checkpoint = &profile.Checkpoint{Mode: profile.ModeWave, Level: 6, Health: 100}
	})
	h.m.StartSession()

	for i := 0; i < 2; i++ {
		if !h.m.Attack() {
			t.Fatalf("attack %d refused in %v", i, h.m.State())
		}
		pressAt(t, h, perfectCenter(h))
	}
	sess := h.m.Session()
	if sess.Level != 7 {
		t.Fatalf("expected wave 7 after clearing both enemies, got %d", sess.Level)
	}
	// wave 6 pays 25, combo 2 adds floor(25*2*0.1)=5
	if sess.Coins != 30 {
		t.Fatalf("expected 30 coins, got %d", sess.Coins)
	}
	if h.store.Get().ArenaWins != 2 {
		t.Fatalf("expected a win per defeated enemy, got %d", h.store.Get().ArenaWins)
	}
}

func TestVictoryAtMaxLevel(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, enemy.DefaultTable(), func(o *Options) { o.Tuning.MaxLevel = 1 })
	h.rand.floats = []float64{0.0}
	h.m.StartSession()
	h.m.Attack()
	h.s.Advance(555 * time.Millisecond)
	h.m.Input()
	if h.m.State() != Resolved || h.m.Result().Outcome != OutcomeVictory {
		t.Fatalf("expected victory, got %v %+v", h.m.State(), h.m.Result())
	}
	if h.store.Get().Money != 11 {
		t.Fatalf("victory should bank the pot, money %d", h.store.Get().Money)
	}
}

func TestStateMachineRejectsIllegalEdges(t *testing.T) {
	f := newStateMachine()
	if step(f, EnemyTurn) {
		t.Fatalf("idle cannot jump to enemy turn")
	}
	if !step(f, PlayerTurn) || !step(f, AttackMiniGame) {
		t.Fatalf("expected idle -> player -> attack")
	}
	if step(f, DodgeMiniGame) {
		t.Fatalf("attack mini-game cannot jump to dodge")
	}
	if !step(f, Resolved) || !step(f, Idle) {
		t.Fatalf("resolved and idle are reachable from anywhere")
	}
}

func TestAttackTimeoutGradesFillPosition(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		dealt   int
		combo   int
	}{
		{name: "perfect_at_deadline", timeout: 1750 * time.Millisecond, dealt: 30, combo: 1},
		{name: "good_at_deadline", timeout: 1500 * time.Millisecond, dealt: 24, combo: 1},
		{name: "full_bar_misses", timeout: 2500 * time.Millisecond, dealt: 0, combo: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timings := timing.DefaultTunings()
			attack := timings[timing.AttackTiming]
			attack.Timeout = tt.timeout
			timings[timing.AttackTiming] = attack
			h := newHarness(t, profile.ModeWave, dummyTable(), func(o *Options) { o.Timings = timings })
			h.m.StartSession()
			h.m.session.Combo = 0

			h.m.Attack()
			if mode := h.m.Bar().Config().Mode; mode != timing.ModeFill {
				t.Fatalf("attack bar should fill, got mode %v", mode)
			}
			h.s.Advance(tt.timeout)
			if h.m.State() != EnemyTurn {
				t.Fatalf("expected enemy turn after timeout, got %v", h.m.State())
			}
			e, _ := h.m.Enemy()
			if got := 1000 - e.Health; got != tt.dealt {
				t.Fatalf("expected %d damage, got %d", tt.dealt, got)
			}
			if got := h.m.Session().Combo; got != tt.combo {
				t.Fatalf("expected combo %d, got %d", tt.combo, got)
			}
		})
	}
}

func TestFloorDodge(t *testing.T) {
	tests := []struct {
		name   string
		dodge  bool
		health int
		combo  int
	}{
		{name: "dodged", dodge: true, health: 96, combo: 2},
		{name: "timed_out", dodge: false, health: 92, combo: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
			// no critical opening, then a dodge roll under 120/400
			h.rand.floats = []float64{0.99, 0.0}
			h.m.StartSession()
			h.m.Attack()
			h.s.Advance(900 * time.Millisecond)
			if h.m.State() != DodgeMiniGame {
				t.Fatalf("expected dodge mini-game, got %v", h.m.State())
			}
			if tt.dodge {
				pressAt(t, h, 50)
			} else {
				h.s.Advance(2 * time.Second)
			}
			if h.m.State() != PlayerTurn {
				t.Fatalf("expected player turn, got %v", h.m.State())
			}
			sess := h.m.Session()
			if sess.Health != tt.health || sess.Combo != tt.combo {
				t.Fatalf("expected health %d combo %d, got %d %d", tt.health, tt.combo, sess.Health, sess.Combo)
			}
		})
	}
}

func TestBlockedHitDealsAtLeastOne(t *testing.T) {
	table := enemy.DefaultTable()
	table.Regular = []enemy.Archetype{{Name: "Gnat", Health: 1000, Damage: 2}}
	h := newHarness(t, profile.ModeWave, table, nil)
	h.m.StartSession()
	h.m.Attack()
	h.s.Advance(100 * time.Millisecond)
	h.m.Input()
	h.s.Advance(900 * time.Millisecond)
	if h.m.State() != DefenseMiniGame {
		t.Fatalf("expected defense mini-game, got %v", h.m.State())
	}
	pressAt(t, h, 80)
	if got := h.m.Session().Health; got != 99 {
		t.Fatalf("expected a blocked 1 damage hit to still deal 1, health %d", got)
	}
}

func TestPoisonTicksAtEnemyTurn(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.rand.floats = []float64{0.99}
	h.m.StartSession()
	h.m.Effects().Apply(status.Poisoned, 2)

	h.m.Attack()
	h.s.Advance(900 * time.Millisecond)
	if got := h.m.Session().Health; got != 100-5-8 {
		t.Fatalf("expected poison 5 then hit 8, health %d", got)
	}
	if got := h.m.Effects().Remaining(status.Poisoned); got != 1 {
		t.Fatalf("expected one poison turn left, got %d", got)
	}
}

func TestPoisonLethalResolvesLossOnce(t *testing.T) {
	h := newHarness(t, profile.ModeFloor, dummyTable(), nil)
	h.rand.floats = []float64{0.99}
	h.m.StartSession()
	h.m.session.Health = 3
	h.m.session.Coins = 40
	h.m.Effects().Apply(status.Poisoned, 3)

	h.m.Attack()
	h.s.Advance(900 * time.Millisecond)
	if h.m.State() != Resolved || h.m.Result().Outcome != OutcomeLoss {
		t.Fatalf("expected poison to end the run, got %v %+v", h.m.State(), h.m.Result())
	}
	if got := h.store.Get().Money; got != 20 {
		t.Fatalf("expected half of 40 coins kept, got %d", got)
	}

	h.m.lose()
	h.s.Advance(5 * time.Second)
	if got := h.store.Get().Money; got != 20 {
		t.Fatalf("loss paid twice, money %d", got)
	}
	if h.m.State() != Resolved {
		t.Fatalf("expected to stay resolved, got %v", h.m.State())
	}
}
