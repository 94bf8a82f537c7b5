package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/tycoon/ecs/component"
	"github.com/milk9111/tycoon/profile"
)

const stickDeadzone = 0.2

// readOverworldInput samples keyboard and the first gamepad for the
// overworld's input system.
func readOverworldInput() component.Input {
	var in component.Input
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		in.MoveX -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		in.MoveX += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		in.MoveY -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		in.MoveY += 1
	}
	in.Interact = inpututil.IsKeyJustPressed(ebiten.KeyE) || inpututil.IsKeyJustPressed(ebiten.KeyEnter)

	if gamepads := ebiten.AppendGamepadIDs(nil); len(gamepads) > 0 {
		id := gamepads[0]
		x := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		y := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if math.Hypot(x, y) > stickDeadzone {
			in.MoveX, in.MoveY = x, y
		}
		in.Interact = in.Interact || inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom)
	}
	return in
}

func (g *Game) handleGlobalKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.exportSave()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) {
		g.importSave()
	}
	if g.events == nil {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if ev, ok := g.events.CoinRain(); ok {
			if err := g.events.ClaimCoins(ev.ID); err != nil {
				g.log.Debug().Err(err).Msg("claim coins")
			}
		}
	}
	g.handleVoteKeys()
}

var voteKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}

func (g *Game) handleVoteKeys() {
	if g.vote == nil {
		return
	}
	options := voteOptions(*g.vote)
	for i, key := range voteKeys {
		if i >= len(options) || !inpututil.IsKeyJustPressed(key) {
			continue
		}
		if err := g.events.Vote(g.vote.ID, options[i]); err != nil {
			g.log.Debug().Err(err).Msg("vote")
			return
		}
		g.showToast("Voted for " + options[i])
		g.vote = nil
		return
	}
}

func (g *Game) handleOverworldKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.toggleMode()
	}
}

// handleArenaKeys maps the keyboard onto arena actions. Space is context
// sensitive: it resolves a running timing bar, otherwise it attacks.
func (g *Game) handleArenaKeys() {
	state := g.machine.State()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if state.MiniGame() {
			g.controller.Input()
		} else {
			g.controller.Attack()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.controller.StartSession()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.controller.UsePotion()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.cashOut()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		g.toggleMode()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.controller.Close()
	}
}

func (g *Game) cashOut() {
	if out, ok := g.controller.CashOut(); ok {
		g.showToast(g.machine.Log().Number(out.Paid) + " coins banked")
	}
}

func (g *Game) toggleMode() {
	next := profile.ModeWave
	if g.machine.Mode() == profile.ModeWave {
		next = profile.ModeFloor
	}
	if g.controller.SetMode(next) {
		g.showToast("Mode: " + string(next))
	}
}
