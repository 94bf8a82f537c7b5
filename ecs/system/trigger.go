package system

import (
	"time"

	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

// EnterFunc is called when the player interacts while standing on a
// building. It reports whether the building accepted the player.
type EnterFunc func(e ecs.Entity, b component.Building) bool

// TriggerSystem fires EnterFunc for the first building the player overlaps
// while pressing interact. Buildings on cooldown are skipped.
type TriggerSystem struct {
	OnEnter EnterFunc
}

func NewTriggerSystem(onEnter EnterFunc) *TriggerSystem {
	return &TriggerSystem{OnEnter: onEnter}
}

type rect struct {
	x, y, w, h float64
}

func (r rect) overlaps(o rect) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w && r.y < o.y+o.h && o.y < r.y+r.h
}

func playerRect(w *ecs.World, e ecs.Entity, tr *component.Transform) rect {
	r := rect{x: tr.X, y: tr.Y, w: 24, h: 24}
	if body, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && body.Width > 0 && body.Height > 0 {
		r.w, r.h = body.Width, body.Height
	}
	return r
}

func (s *TriggerSystem) Update(w *ecs.World, _ time.Duration) {
	if s == nil || s.OnEnter == nil || w == nil {
		return
	}
	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return
	}
	in, ok := ecs.Get(w, player, component.InputComponent.Kind())
	if !ok || !in.Interact {
		return
	}
	tr, ok := ecs.Get(w, player, component.TransformComponent.Kind())
	if !ok {
		return
	}
	pr := playerRect(w, player, tr)

	fired := false
	ecs.ForEach2(w, component.BuildingComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, b *component.Building, btr *component.Transform) {
		if fired || ecs.Has(w, e, component.TriggerCooldownComponent.Kind()) {
			return
		}
		if !pr.overlaps(rect{x: btr.X, y: btr.Y, w: b.Width, h: b.Height}) {
			return
		}
		fired = s.OnEnter(e, *b)
	})
}
