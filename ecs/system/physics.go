package system

import (
	"math"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

const wallThickness = 4

// PhysicsSystem owns a top-down Chipmunk2D space. Bodies are created for new
// PhysicsBody components and transforms are synced back after each step.
// While paused the space is not stepped.
type PhysicsSystem struct {
	space  *cp.Space
	bodies map[ecs.Entity]*cp.Body
	shapes map[ecs.Entity]*cp.Shape
	paused bool
}

// NewPhysicsSystem builds a space walled in to width x height.
func NewPhysicsSystem(width, height float64) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})

	corners := []cp.Vector{{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height}, {X: 0, Y: height}}
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		wall := cp.NewSegment(space.StaticBody, a, b, wallThickness)
		wall.SetFriction(0)
		space.AddShape(wall)
	}

	return &PhysicsSystem{
		space:  space,
		bodies: make(map[ecs.Entity]*cp.Body),
		shapes: make(map[ecs.Entity]*cp.Shape),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	return ps.space
}

func (ps *PhysicsSystem) SetPaused(paused bool) {
	ps.paused = paused
}

func (ps *PhysicsSystem) Paused() bool {
	return ps.paused
}

func (ps *PhysicsSystem) Update(w *ecs.World, dt time.Duration) {
	if ps == nil || w == nil {
		return
	}
	ps.cleanup(w)
	ps.sync(w)
	if ps.paused || dt <= 0 {
		return
	}
	ps.space.Step(dt.Seconds())

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, body *component.PhysicsBody, tr *component.Transform) {
		if body.Body == nil || body.Static {
			return
		}
		pos := body.Body.Position()
		tr.X = pos.X - body.Width/2
		tr.Y = pos.Y - body.Height/2
	})
}

func (ps *PhysicsSystem) sync(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.PhysicsBody, tr *component.Transform) {
		if _, ok := ps.bodies[e]; ok {
			return
		}
		if body.Width <= 0 || body.Height <= 0 {
			body.Width, body.Height = 24, 24
		}

		if body.Static {
			bb := cp.BB{L: tr.X, B: tr.Y, R: tr.X + body.Width, T: tr.Y + body.Height}
			shape := cp.NewBox2(ps.space.StaticBody, bb, 0)
			ps.space.AddShape(shape)
			body.Body, body.Shape = ps.space.StaticBody, shape
			ps.bodies[e], ps.shapes[e] = ps.space.StaticBody, shape
			return
		}

		mass := body.Mass
		if mass <= 0 {
			mass = 1
		}
		// infinite moment keeps the box upright
		b := cp.NewBody(mass, math.Inf(1))
		b.SetPosition(cp.Vector{X: tr.X + body.Width/2, Y: tr.Y + body.Height/2})
		shape := cp.NewBox(b, body.Width, body.Height, 0)
		shape.SetFriction(0)
		ps.space.AddBody(b)
		ps.space.AddShape(shape)
		body.Body, body.Shape = b, shape
		ps.bodies[e], ps.shapes[e] = b, shape
	})
}

func (ps *PhysicsSystem) cleanup(w *ecs.World) {
	for e, b := range ps.bodies {
		if ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			continue
		}
		if shape := ps.shapes[e]; shape != nil {
			ps.space.RemoveShape(shape)
		}
		if b != ps.space.StaticBody {
			ps.space.RemoveBody(b)
		}
		delete(ps.bodies, e)
		delete(ps.shapes, e)
	}
}
