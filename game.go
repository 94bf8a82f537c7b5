package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tycoon/achievement"
	"github.com/milk9111/tycoon/combat"
	"github.com/milk9111/tycoon/common"
	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
	"github.com/milk9111/tycoon/ecs/system"
	"github.com/milk9111/tycoon/enemy"
	"github.com/milk9111/tycoon/eventbus"
	"github.com/milk9111/tycoon/prefabs"
	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/sched"
	"github.com/milk9111/tycoon/session"
	"github.com/milk9111/tycoon/twitch"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
	"golang.org/x/sync/errgroup"
)

const (
	saveDebounce  = 2 * time.Second
	toastDuration = 3 * time.Second
	flushTimeout  = 5 * time.Second
)

type Config struct {
	Debug         bool
	Mode          profile.Mode
	SavePath      string
	CloudURL      string
	ProfileID     string
	EventsURL     string
	TwitchChannel string
	Seed          uint64
}

type Game struct {
	cfg Config
	log zerolog.Logger

	sched        *sched.Scheduler
	store        *profile.Store
	ledger       *reward.Ledger
	achievements *achievement.Registry
	machine      *combat.Machine
	controller   *session.Controller
	overworld    *system.Overworld
	ui           *ArenaUI
	events       *eventbus.Client
	watcher      *prefabs.Watcher

	clipboardOK bool

	// speed boost bookkeeping for speed_result reports
	boostID       string
	boostDistance float64
	lastX, lastY  float64

	vote *eventbus.Event

	toast      string
	toastTimer *sched.Timer

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewGame(ctx context.Context, cfg Config, log zerolog.Logger) (*Game, error) {
	spec, err := prefabs.LoadArenaSpec()
	if err != nil {
		return nil, err
	}
	timings, err := spec.TimingTunings()
	if err != nil {
		return nil, err
	}
	table, err := prefabs.LoadEnemyTable()
	if err != nil {
		return nil, err
	}
	defs, err := prefabs.LoadAchievements()
	if err != nil {
		return nil, err
	}

	g := &Game{cfg: cfg, log: log, sched: sched.New()}

	g.store, err = g.openProfile(ctx)
	if err != nil {
		return nil, err
	}

	g.ledger = reward.NewLedger(spec.Rewards, g.store, log)
	g.achievements = achievement.NewRegistry(defs, g.store, log)
	g.achievements.OnUnlock = func(def achievement.Definition) {
		g.showToast("Achievement unlocked: " + def.Name)
	}
	g.ledger.OnCommit(func() { g.achievements.CheckAll() })

	opts := combat.Options{
		Mode:      cfg.Mode,
		Tuning:    spec.Combat,
		Timings:   timings,
		Enemies:   enemy.NewGenerator(table),
		Ledger:    g.ledger,
		Profile:   g.store,
		Brain:     g.loadBrain(spec.BossScript),
		Rand:      combat.NewRand(cfg.Seed),
		Scheduler: g.sched,
		Logger:    log,
	}
	if cfg.EventsURL != "" {
		g.events = eventbus.NewClient(eventbus.ClientOptions{URL: cfg.EventsURL, Scheduler: g.sched, Logger: log})
		g.hookEvents()
		opts.Bonus = g.events
	}
	g.machine = combat.NewMachine(opts)

	g.ui = NewArenaUI(g)
	g.overworld, err = system.NewOverworld(system.OverworldOptions{
		Width:           common.BaseWidth,
		Height:          common.BaseHeight,
		PlayerSpeed:     g.store.Get().Stats.MoveSpeed,
		Input:           readOverworldInput,
		SpeedMultiplier: g.speedMultiplier,
		OnEnter:         g.enterBuilding,
	})
	if err != nil {
		return nil, err
	}
	g.controller = session.NewController(session.Options{
		Machine:   g.machine,
		Surface:   g.ui,
		World:     g.overworld,
		Scheduler: g.sched,
		Logger:    log,
	})

	if err := clipboard.Init(); err != nil {
		log.Warn().Err(err).Msg("clipboard unavailable, save codes disabled")
	} else {
		g.clipboardOK = true
	}

	g.startBackground(ctx, spec)
	g.achievements.CheckAll()
	return g, nil
}

// openProfile picks the save backend and loads the profile. With a cloud
// URL the cloud copy wins and the local file is the offline fallback.
func (g *Game) openProfile(ctx context.Context) (*profile.Store, error) {
	local := profile.FileBackend{Path: g.cfg.SavePath}
	var backend profile.Backend = local
	if g.cfg.CloudURL != "" {
		id := g.cfg.ProfileID
		if id == "" {
			if p, err := local.Load(ctx); err == nil && p.ID != "" {
				id = p.ID
			} else {
				id = uuid.NewString()
			}
		}
		g.log.Info().Str("profile", id).Str("url", g.cfg.CloudURL).Msg("using cloud saves")
		backend = profile.FallbackBackend{
			Primary:   profile.CloudBackend{BaseURL: g.cfg.CloudURL, ID: id},
			Secondary: local,
			Log:       g.log,
		}
	}

	store := profile.NewStore(backend, saveDebounce, g.log)
	loadCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := store.Load(loadCtx); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return store, nil
}

func (g *Game) loadBrain(script string) combat.BossBrain {
	if script == "" {
		return combat.DefaultBrain{}
	}
	brain, err := prefabs.LoadBossBrain(script)
	if err != nil {
		g.log.Error().Err(err).Str("script", script).Msg("boss brain failed, using default")
		return combat.DefaultBrain{}
	}
	return brain
}

func (g *Game) startBackground(parent context.Context, spec *prefabs.ArenaSpec) {
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	g.group, ctx = errgroup.WithContext(ctx)

	if g.events != nil {
		g.group.Go(func() error { return g.events.Run(ctx) })
	}

	if g.cfg.TwitchChannel != "" {
		chat := twitch.NewClient(twitch.Options{
			Channel:   g.cfg.TwitchChannel,
			Rewards:   spec.Twitch,
			Scheduler: g.sched,
			Grant:     g.grantChatCoins,
			Logger:    g.log,
		})
		g.group.Go(func() error { return chat.Run(ctx) })
	}

	if g.cfg.Debug {
		w, err := prefabs.NewWatcher("prefabs", "prefabs/scripts")
		if err != nil {
			g.log.Warn().Err(err).Msg("prefab hot reload disabled")
			return
		}
		g.watcher = w
		g.group.Go(func() error { return g.pumpReloads(ctx) })
	}
}

func (g *Game) pumpReloads(ctx context.Context) error {
	events, errs := g.watcher.Events, g.watcher.Errors
	for {
		select {
		case change, ok := <-events:
			if !ok {
				return nil
			}
			g.sched.Post(func() { g.reloadPrefabs(change) })
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			g.log.Warn().Err(err).Msg("prefab watcher")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reloadPrefabs stages edited tuning for the next run.
func (g *Game) reloadPrefabs(change prefabs.Change) {
	path := change.Path
	spec, err := prefabs.LoadArenaSpec()
	if err != nil {
		g.log.Error().Err(err).Str("path", path).Msg("reload arena spec")
		return
	}
	timings, err := spec.TimingTunings()
	if err != nil {
		g.log.Error().Err(err).Str("path", path).Msg("reload timings")
		return
	}
	table, err := prefabs.LoadEnemyTable()
	if err != nil {
		g.log.Error().Err(err).Str("path", path).Msg("reload enemies")
		return
	}
	tuning := spec.Combat
	g.machine.Reload(&tuning, timings, enemy.NewGenerator(table), g.loadBrain(spec.BossScript))
	g.log.Info().Str("path", path).Stringer("kind", change.Kind).Msg("prefabs reloaded")
	g.showToast("Tuning reloaded")
}

func (g *Game) hookEvents() {
	g.events.OnEvent = func(ev eventbus.Event) {
		switch ev.Type {
		case eventbus.SpeedBoost:
			g.boostID, g.boostDistance = ev.ID, 0
			g.showToast("Speed boost!")
		case eventbus.CoinRain:
			g.showToast("Coin rain! Press R to grab coins")
		case eventbus.CriticalMadness:
			g.showToast("Critical madness: your next attack has a much better shot at an opening")
		case eventbus.ServerVote:
			e := ev
			g.vote = &e
		}
	}
	g.events.OnEventEnded = func(ev eventbus.Event) {
		if ev.ID == g.boostID {
			if err := g.events.ReportSpeed(ev.ID, g.boostDistance); err != nil {
				g.log.Debug().Err(err).Msg("report speed")
			}
			g.boostID = ""
		}
		if g.vote != nil && g.vote.ID == ev.ID {
			g.vote = nil
		}
	}
	g.events.OnVoteResult = func(r eventbus.VoteResult) {
		g.showToast(fmt.Sprintf("Vote result: %s", r.Winner))
	}
	g.events.OnCoins = func(c eventbus.CoinsGranted) {
		g.addMoney(c.Coins)
		g.showToast(fmt.Sprintf("+%d coins from the rain", c.Coins))
	}
}

func (g *Game) grantChatCoins(nick string, coins int) {
	g.addMoney(coins)
	g.log.Debug().Str("nick", nick).Int("coins", coins).Msg("chat reward")
	g.showToast(fmt.Sprintf("%s earned you %d coins", nick, coins))
}

func (g *Game) addMoney(n int) {
	if n <= 0 {
		return
	}
	g.store.Set(func(p *profile.Profile) { p.Money += n })
	g.store.SaveDebounced()
	g.achievements.CheckAll()
}

func (g *Game) speedMultiplier() float64 {
	if g.events == nil {
		return 1
	}
	return g.events.SpeedMultiplier()
}

func (g *Game) enterBuilding(_ ecs.Entity, b component.Building) bool {
	if b.Kind != system.BuildingArena {
		return false
	}
	return g.controller.Open()
}

func (g *Game) showToast(msg string) {
	g.toast = msg
	if g.toastTimer != nil {
		g.toastTimer.Cancel()
	}
	g.toastTimer = g.sched.After(toastDuration, func() { g.toast = "" })
}

func (g *Game) exportSave() {
	if !g.clipboardOK {
		return
	}
	code, err := profile.ExportCode(g.store.Get())
	if err != nil {
		g.log.Error().Err(err).Msg("export save")
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(code))
	g.showToast("Save code copied")
}

func (g *Game) importSave() {
	if !g.clipboardOK || g.controller.IsOpen() {
		return
	}
	p, err := profile.ImportCode(string(clipboard.Read(clipboard.FmtText)))
	if err != nil {
		g.log.Warn().Err(err).Msg("import save")
		g.showToast("Clipboard does not hold a save code")
		return
	}
	p.ID = g.store.Get().ID
	g.store.Replace(p)
	g.store.SaveDebounced()
	g.showToast("Save imported")
}

func (g *Game) trackBoostDistance() {
	tr, ok := ecs.Get(g.overworld.World, g.overworld.Player(), component.TransformComponent.Kind())
	if !ok {
		return
	}
	if g.boostID != "" {
		g.boostDistance += math.Hypot(tr.X-g.lastX, tr.Y-g.lastY)
	}
	g.lastX, g.lastY = tr.X, tr.Y
}

func (g *Game) Update() error {
	dt := time.Second / time.Duration(ebiten.TPS())
	g.sched.Advance(dt)

	g.handleGlobalKeys()
	if g.controller.IsOpen() {
		g.handleArenaKeys()
		g.ui.Update()
	} else {
		g.handleOverworldKeys()
	}
	g.overworld.Update(dt)
	g.trackBoostDistance()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawOverworld(screen)
	g.drawHUD(screen)
	if g.controller.IsOpen() {
		g.drawArena(screen)
		g.ui.Draw(screen)
	}
	g.drawToast(screen)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// Shutdown stops background connections and flushes the profile.
func (g *Game) Shutdown() error {
	if g.controller.IsOpen() {
		g.controller.Close()
	}
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.cancel()
	var errs []error
	if err := g.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := g.store.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush profile: %w", err))
	}
	return errors.Join(errs...)
}
