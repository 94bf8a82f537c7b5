package main

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/tycoon/combat"
	"github.com/milk9111/tycoon/common"
	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
	"github.com/milk9111/tycoon/eventbus"
	"github.com/milk9111/tycoon/profile"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const (
	lineHeight  = 14
	logLines    = 12
	arenaMargin = 40
	barHeight   = 24
)

var uiFace text.Face = text.NewGoXFace(basicfont.Face7x13)

func drawText(screen *ebiten.Image, s string, x, y float64, c color.Color) float64 {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, uiFace, op)
	return text.Advance(s, uiFace)
}

// logColor parses the "#rrggbb" colors the combat log uses.
func logColor(c combat.Color) color.Color {
	s := strings.TrimPrefix(string(c), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return colornames.White
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func drawMeter(screen *ebiten.Image, x, y, w, h float32, ratio float32, fill color.Color) {
	vector.FillRect(screen, x, y, w, h, colornames.Dimgray, false)
	vector.FillRect(screen, x, y, w*ratio, h, fill, false)
	vector.StrokeRect(screen, x, y, w, h, 1, colornames.Lightgrey, false)
}

func healthColor(ratio float32) color.Color {
	r := uint8(common.Lerp(220, 60, ratio))
	g := uint8(common.Lerp(50, 200, ratio))
	return color.RGBA{R: r, G: g, B: 60, A: 0xff}
}

func (g *Game) drawOverworld(screen *ebiten.Image) {
	screen.Fill(colornames.Darkolivegreen)
	w := g.overworld.World

	ecs.ForEach2(w, component.BuildingComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, b *component.Building, tr *component.Transform) {
		fill := colornames.Sienna
		if ecs.Has(w, e, component.TriggerCooldownComponent.Kind()) {
			fill = colornames.Rosybrown
		}
		vector.FillRect(screen, float32(tr.X), float32(tr.Y), float32(b.Width), float32(b.Height), fill, false)
		vector.StrokeRect(screen, float32(tr.X), float32(tr.Y), float32(b.Width), float32(b.Height), 2, colornames.Saddlebrown, false)
		drawText(screen, b.Label, tr.X+6, tr.Y+b.Height/2-6, colornames.White)
	})

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.PhysicsBody, tr *component.Transform) {
		c := colornames.Steelblue
		if !body.Static {
			c = colornames.Gold
			if g.speedMultiplier() > 1 {
				c = colornames.Orange
			}
		}
		vector.FillRect(screen, float32(tr.X), float32(tr.Y), float32(body.Width), float32(body.Height), c, false)
	})
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	p := g.store.Get()
	hud := fmt.Sprintf("Coins %s   Potions %d   Best wave %d   Best floor %d   Wins %d   Mode %s",
		g.machine.Log().Number(p.Money), p.HealthPotions, p.BestArenaWave, p.BestFloor, p.ArenaWins, g.machine.Mode())
	ebitenutil.DebugPrintAt(screen, hud, 8, common.BaseHeight-36)
	help := "WASD move  E enter arena  Tab mode  F5 export  F6 import"
	if g.controller.CoolingDown() {
		help += "  (arena doors closed)"
	}
	ebitenutil.DebugPrintAt(screen, help, 8, common.BaseHeight-20)

	if g.events == nil {
		return
	}
	y := 8.0
	active := g.events.Active()
	sort.Slice(active, func(i, j int) bool { return active[i].EndsAt.Before(active[j].EndsAt) })
	for _, ev := range active {
		label := strings.ReplaceAll(ev.Type, "_", " ")
		if ev.Type == eventbus.CoinRain {
			label += " (R to claim)"
		}
		drawText(screen, label, common.BaseWidth-260, y, colornames.Yellow)
		y += lineHeight
	}
	if g.vote != nil {
		data := voteData(*g.vote)
		drawText(screen, data.Question, common.BaseWidth-260, y, colornames.Lightskyblue)
		y += lineHeight
		for i, opt := range data.Options {
			drawText(screen, fmt.Sprintf("%d) %s", i+1, opt), common.BaseWidth-250, y, colornames.Lightskyblue)
			y += lineHeight
		}
	}
}

func voteData(ev eventbus.Event) eventbus.VoteData {
	d, _ := eventbus.DecodeData[eventbus.VoteData](eventbus.Envelope{Type: ev.Type, Data: ev.Data})
	return d
}

func voteOptions(ev eventbus.Event) []string {
	return voteData(ev).Options
}

func (g *Game) drawToast(screen *ebiten.Image) {
	if g.toast == "" {
		return
	}
	w := text.Advance(g.toast, uiFace)
	x := (common.BaseWidth - w) / 2
	vector.FillRect(screen, float32(x-8), 6, float32(w+16), 20, color.NRGBA{A: 200}, false)
	drawText(screen, g.toast, x, 10, colornames.White)
}

func (g *Game) drawArena(screen *ebiten.Image) {
	snap := g.machine.Snapshot()
	vector.FillRect(screen, 0, 0, common.BaseWidth, common.BaseHeight, color.NRGBA{A: 200}, false)

	x, y := float64(arenaMargin), float64(arenaMargin)
	title := fmt.Sprintf("%s mode   %s", strings.ToUpper(string(snap.Mode)), snap.Session.State)
	if snap.Session.Level > 0 {
		unit := "Wave"
		if snap.Mode == profile.ModeFloor {
			unit = "Floor"
		}
		title = fmt.Sprintf("%s %d   %s", unit, snap.Session.Level, title)
	}
	drawText(screen, title, x, y, colornames.White)
	y += 22

	s := snap.Session
	ratio := common.Ratio(s.Health, s.MaxHealth)
	drawMeter(screen, float32(x), float32(y), 300, 14, ratio, healthColor(ratio))
	drawText(screen, fmt.Sprintf("HP %d/%d", s.Health, s.MaxHealth), x+310, y, colornames.White)
	y += 20
	drawText(screen, fmt.Sprintf("Combo x%d   Run coins %s   Potions %d", s.Combo, g.machine.Log().Number(s.Coins), snap.Potions), x, y, colornames.White)
	y += lineHeight
	for kind, turns := range snap.Effects {
		if turns > 0 {
			drawText(screen, fmt.Sprintf("%s (%d)", kind, turns), x, y, logColor(combat.ColorStatus))
			y += lineHeight
		}
	}

	g.drawEnemies(screen, snap)
	if snap.Bar != nil {
		g.drawBar(screen, *snap.Bar)
	}
	g.drawLog(screen, snap.Log)

	if s.State == combat.Resolved {
		r := snap.Result
		msg := fmt.Sprintf("%s at %d: paid %s coins", r.Outcome, r.Level, g.machine.Log().Number(r.Paid))
		if r.NewBest {
			msg += "  NEW BEST!"
		}
		drawText(screen, msg, arenaMargin, 176, colornames.Gold)
	}
}

func (g *Game) drawEnemies(screen *ebiten.Image, snap combat.Snapshot) {
	x, y := float64(common.BaseWidth/2+40), float64(arenaMargin+22)
	for i, e := range snap.Enemies {
		name := e.Name
		if e.IsBoss {
			name = "BOSS " + name
		}
		c := colornames.White
		switch {
		case e.Defeated:
			c = colornames.Gray
		case i == snap.Current:
			name = "> " + name
		}
		drawText(screen, name, x, y, c)
		ratio := common.Ratio(e.Health, e.MaxHealth)
		drawMeter(screen, float32(x+150), float32(y), 180, 12, ratio, healthColor(ratio))
		y += 18
		if e.Preparing != "" {
			drawText(screen, "preparing "+e.Preparing, x+12, y, logColor(combat.ColorCrit))
			y += lineHeight
		}
	}
}

func (g *Game) drawBar(screen *ebiten.Image, bar combat.BarView) {
	const top = 140
	x := float32(arenaMargin)
	w := float32(common.BaseWidth - 2*arenaMargin)
	at := func(pos float64) float32 { return x + w*float32(pos/100) }

	vector.FillRect(screen, x, top, w, barHeight, colornames.Darkslategray, false)
	if bar.Good.Width() > 0 {
		vector.FillRect(screen, at(bar.Good.Start), top, at(bar.Good.End)-at(bar.Good.Start), barHeight, colornames.Seagreen, false)
	}
	if bar.Perfect.Width() > 0 {
		vector.FillRect(screen, at(bar.Perfect.Start), top, at(bar.Perfect.End)-at(bar.Perfect.Start), barHeight, colornames.Gold, false)
	}
	cursor := at(bar.Position)
	vector.StrokeLine(screen, cursor, top-4, cursor, top+barHeight+4, 3, colornames.White, true)
	vector.StrokeRect(screen, x, top, w, barHeight, 1, colornames.Lightgrey, false)

	label := fmt.Sprintf("%s! press SPACE  (%.1fs)", strings.ToUpper(bar.Kind.String()), bar.Remaining.Seconds())
	drawText(screen, label, float64(x), top-18, colornames.White)
}

func (g *Game) drawLog(screen *ebiten.Image, entries []combat.Entry) {
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	y := 200.0
	for _, e := range entries {
		x := float64(arenaMargin)
		for _, seg := range e.Segments {
			x += drawText(screen, seg.Text, x, y, logColor(seg.Color))
		}
		y += lineHeight
	}
}
