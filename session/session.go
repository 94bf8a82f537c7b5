package session

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/milk9111/tycoon/combat"
	"github.com/milk9111/tycoon/profile"
	"github.com/milk9111/tycoon/reward"
	"github.com/milk9111/tycoon/sched"
	"github.com/rs/zerolog"
)

// DefaultTriggerCooldown keeps the player from walking straight back into
// the arena after leaving it.
const DefaultTriggerCooldown = 2 * time.Second

// Surface is the arena UI.
type Surface interface {
	Show()
	Hide()
}

// World is the overworld the arena sits in.
type World interface {
	PausePhysics()
	ResumePhysics()
	CooldownTriggers(d time.Duration)
}

// PausePolicy reports whether the world should freeze while the arena is
// open in the given mode.
type PausePolicy func(mode profile.Mode) bool

// PauseInWaveMode freezes the world for wave runs only.
func PauseInWaveMode(mode profile.Mode) bool {
	return mode == profile.ModeWave
}

type Options struct {
	Machine   *combat.Machine
	Surface   Surface
	World     World
	Scheduler *sched.Scheduler
	Pause     PausePolicy
	Cooldown  time.Duration
	Logger    zerolog.Logger
}

// Controller opens and closes the arena and is the single entry point for
// player actions.
type Controller struct {
	machine  *combat.Machine
	surface  Surface
	world    World
	sched    *sched.Scheduler
	pause    PausePolicy
	cooldown time.Duration
	log      zerolog.Logger

	open        bool
	paused      bool
	coolingTill time.Duration
}

func NewController(opts Options) *Controller {
	if opts.Pause == nil {
		opts.Pause = PauseInWaveMode
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultTriggerCooldown
	}
	return &Controller{
		machine:  opts.Machine,
		surface:  opts.Surface,
		world:    opts.World,
		sched:    opts.Scheduler,
		pause:    opts.Pause,
		cooldown: opts.Cooldown,
		log:      opts.Logger,
	}
}

func (c *Controller) Machine() *combat.Machine { return c.machine }

func (c *Controller) IsOpen() bool { return c.open }

// CoolingDown reports whether the arena trigger is still locked.
func (c *Controller) CoolingDown() bool {
	return c.sched != nil && c.sched.Now() < c.coolingTill
}

// Open shows the arena. It is refused while already open or cooling down.
func (c *Controller) Open() bool {
	if c.open || c.machine == nil || c.CoolingDown() {
		return false
	}
	c.open = true
	if c.world != nil && c.pause(c.machine.Mode()) {
		c.world.PausePhysics()
		c.paused = true
	}
	if c.surface != nil {
		c.surface.Show()
	}
	c.log.Info().Str("mode", string(c.machine.Mode())).Bool("paused", c.paused).Msg("arena opened")
	return true
}

// Close abandons any run in progress, hides the arena and locks the
// building triggers for the cooldown.
func (c *Controller) Close() bool {
	if !c.open {
		return false
	}
	c.guard("close", func() bool {
		c.machine.Abandon()
		return true
	})
	c.open = false
	if c.surface != nil {
		c.surface.Hide()
	}
	if c.paused && c.world != nil {
		c.world.ResumePhysics()
	}
	c.paused = false
	if c.world != nil {
		c.world.CooldownTriggers(c.cooldown)
	}
	if c.sched != nil {
		c.coolingTill = c.sched.Now() + c.cooldown
	}
	c.log.Info().Msg("arena closed")
	return true
}

// SetMode switches arena variant while no run is active.
func (c *Controller) SetMode(mode profile.Mode) bool {
	if c.machine == nil {
		return false
	}
	return c.guard("set mode", func() bool { return c.machine.SetMode(mode) })
}

func (c *Controller) StartSession() bool {
	return c.action("start", c.machine.StartSession)
}

func (c *Controller) Attack() bool {
	return c.action("attack", c.machine.Attack)
}

func (c *Controller) Input() bool {
	return c.action("input", c.machine.Input)
}

func (c *Controller) UsePotion() bool {
	return c.action("potion", c.machine.UsePotion)
}

func (c *Controller) CashOut() (reward.Outcome, bool) {
	var out reward.Outcome
	ok := c.action("cash out", func() bool {
		var ok bool
		out, ok = c.machine.CashOut()
		return ok
	})
	return out, ok
}

// action runs a player action while the arena is open.
func (c *Controller) action(name string, fn func() bool) bool {
	if !c.open || c.machine == nil {
		return false
	}
	return c.guard(name, fn)
}

// guard recovers a panicking action and reports it as refused. The machine
// keeps whatever state it reached before the panic.
func (c *Controller) guard(name string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Err(fmt.Errorf("panic: %v", r)).
				Str("action", name).
				Str("stack", string(debug.Stack())).
				Msg("arena action failed")
			ok = false
		}
	}()
	return fn()
}
