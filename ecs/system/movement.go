package system

import (
	"math"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

// MovementSystem turns input into velocity. Speed is in pixels per second
// and scaled by Multiplier, which live events use for speed boosts.
type MovementSystem struct {
	Speed      float64
	Multiplier func() float64
}

func NewMovementSystem(speed float64, multiplier func() float64) *MovementSystem {
	return &MovementSystem{Speed: speed, Multiplier: multiplier}
}

func (m *MovementSystem) velocity(in *component.Input) (float64, float64) {
	x, y := in.MoveX, in.MoveY
	if l := math.Hypot(x, y); l > 1 {
		x, y = x/l, y/l
	}
	speed := m.Speed
	if m.Multiplier != nil {
		speed *= m.Multiplier()
	}
	return x * speed, y * speed
}

func (m *MovementSystem) Update(w *ecs.World, dt time.Duration) {
	if m == nil || w == nil {
		return
	}
	ecs.ForEach2(w, component.InputComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, in *component.Input, tr *component.Transform) {
		vx, vy := m.velocity(in)
		if body, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && body.Body != nil {
			body.Body.SetVelocityVector(cp.Vector{X: vx, Y: vy})
			return
		}
		tr.X += vx * dt.Seconds()
		tr.Y += vy * dt.Seconds()
	})
}
