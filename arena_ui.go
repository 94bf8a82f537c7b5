package main

import (
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tycoon/combat"
	"github.com/milk9111/tycoon/common"
)

// ArenaUI is the action panel shown while the arena is open. It is the
// session's Surface; the arena itself is drawn by the game.
type ArenaUI struct {
	ui      *ebitenui.UI
	visible bool
	hint    *widget.Text

	start, attack, potion, cashOut, leave *widget.Button

	game *Game
}

func NewArenaUI(g *Game) *ArenaUI {
	a := &ArenaUI{game: g}

	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x10, G: 0x10, B: 0x18, A: 230})
	btnImg := &widget.ButtonImage{
		Idle:     imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}),
		Hover:    imageui.NewNineSliceColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x55, A: 255}),
		Pressed:  imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}),
		Disabled: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 160}),
	}
	face := uiFace
	btnTextColor := &widget.ButtonTextColor{
		Idle:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Disabled: color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff},
	}

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(btnImg),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(140, 32)),
			widget.ButtonOpts.ClickedHandler(func(*widget.ButtonClickedEventArgs) { onClick() }),
		)
	}

	a.start = button("Start (Enter)", func() { g.controller.StartSession() })
	a.attack = button("Attack (Space)", func() { g.controller.Attack() })
	a.potion = button("Potion (H)", func() { g.controller.UsePotion() })
	a.cashOut = button("Cash out (C)", g.cashOut)
	a.leave = button("Leave (Esc)", func() { g.controller.Close() })

	a.hint = widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}),
	)

	buttons := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(10),
		)),
	)
	for _, b := range []*widget.Button{a.start, a.attack, a.potion, a.cashOut, a.leave} {
		buttons.AddChild(b)
	}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(common.BaseWidth-80, 70),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)
	panel.AddChild(buttons)
	panel.AddChild(a.hint)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	a.ui = &ebitenui.UI{Container: root}
	return a
}

func (a *ArenaUI) Show() { a.visible = true }

func (a *ArenaUI) Hide() { a.visible = false }

func (a *ArenaUI) Visible() bool { return a.visible }

func (a *ArenaUI) Update() {
	if !a.visible {
		return
	}
	state := a.game.machine.State()
	betweenRuns := state == combat.Idle || state == combat.Resolved
	a.start.GetWidget().Disabled = !betweenRuns
	a.attack.GetWidget().Disabled = state != combat.PlayerTurn
	a.potion.GetWidget().Disabled = state != combat.PlayerTurn || a.game.store.Get().HealthPotions <= 0
	a.cashOut.GetWidget().Disabled = state != combat.PlayerTurn

	switch {
	case state.MiniGame():
		a.hint.Label = "Press SPACE when the marker is in the zone"
	case betweenRuns:
		a.hint.Label = "Tab switches between wave and floor mode"
	default:
		a.hint.Label = ""
	}
	a.ui.Update()
}

func (a *ArenaUI) Draw(screen *ebiten.Image) {
	if !a.visible {
		return
	}
	a.ui.Draw(screen)
}
