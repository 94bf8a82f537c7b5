package system

import (
	"math"
	"testing"
	"time"

	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

const frame = 16 * time.Millisecond

func TestCooldownSystemExpires(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.TriggerCooldownComponent.Kind(), &component.TriggerCooldown{Remaining: 40 * time.Millisecond})

	s := NewCooldownSystem()
	tests := []struct {
		name string
		dt   time.Duration
		want bool
	}{
		{"first_tick", frame, true},
		{"second_tick", frame, true},
		{"expired", frame, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.Update(w, tc.dt)
			if got := ecs.Has(w, e, component.TriggerCooldownComponent.Kind()); got != tc.want {
				t.Fatalf("cooldown present=%v want %v", got, tc.want)
			}
		})
	}
}

func TestMovementWithoutBodyMovesTransform(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{})
	_ = ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{MoveX: 1, MoveY: 1})

	NewMovementSystem(100, func() float64 { return 2 }).Update(w, time.Second)

	tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
	want := 200 / math.Sqrt2
	if math.Abs(tr.X-want) > 1e-9 || math.Abs(tr.Y-want) > 1e-9 {
		t.Fatalf("expected diagonal move normalised to %.3f, got %+v", want, tr)
	}
}

func TestInputSystemCopiesSample(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{})

	NewInputSystem(func() component.Input { return component.Input{MoveX: -1, Interact: true} }).Update(w, frame)

	in, _ := ecs.Get(w, e, component.InputComponent.Kind())
	if in.MoveX != -1 || !in.Interact {
		t.Fatalf("input not copied: %+v", in)
	}
}

type interactor struct {
	in component.Input
}

func (i *interactor) read() component.Input {
	return i.in
}

func newTestOverworld(t *testing.T, in *interactor, entered *[]string) *Overworld {
	t.Helper()
	o, err := NewOverworld(OverworldOptions{
		Width:       320,
		Height:      240,
		PlayerSpeed: 120,
		Input:       in.read,
		OnEnter: func(_ ecs.Entity, b component.Building) bool {
			*entered = append(*entered, b.Kind)
			return true
		},
	})
	if err != nil {
		t.Fatalf("overworld: %v", err)
	}
	return o
}

func placePlayerOnArena(t *testing.T, o *Overworld) {
	t.Helper()
	tr, ok := ecs.Get(o.World, o.Player(), component.TransformComponent.Kind())
	if !ok {
		t.Fatalf("player has no transform")
	}
	tr.X, tr.Y = 320/2-12, 40
}

func TestOverworldTriggerAndCooldown(t *testing.T) {
	in := &interactor{}
	var entered []string
	o := newTestOverworld(t, in, &entered)

	o.PausePhysics()
	placePlayerOnArena(t, o)

	o.Update(frame)
	if len(entered) != 0 {
		t.Fatalf("trigger fired without interact")
	}

	in.in.Interact = true
	o.Update(frame)
	if len(entered) != 1 || entered[0] != BuildingArena {
		t.Fatalf("expected arena trigger, got %v", entered)
	}

	o.CooldownTriggers(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		o.Update(frame)
	}
	if len(entered) != 1 {
		t.Fatalf("trigger fired during cooldown: %v", entered)
	}

	for i := 0; i < 5; i++ {
		o.Update(frame)
	}
	if len(entered) < 2 {
		t.Fatalf("trigger did not fire after cooldown: %v", entered)
	}
}

func TestOverworldPauseFreezesPlayer(t *testing.T) {
	in := &interactor{in: component.Input{MoveX: 1}}
	var entered []string
	o := newTestOverworld(t, in, &entered)

	o.Update(frame) // creates bodies
	start, _ := ecs.Get(o.World, o.Player(), component.TransformComponent.Kind())
	x0 := start.X

	o.PausePhysics()
	if !o.PhysicsPaused() {
		t.Fatalf("expected paused")
	}
	for i := 0; i < 10; i++ {
		o.Update(frame)
	}
	if tr, _ := ecs.Get(o.World, o.Player(), component.TransformComponent.Kind()); tr.X != x0 {
		t.Fatalf("player moved while paused: %v -> %v", x0, tr.X)
	}

	o.ResumePhysics()
	for i := 0; i < 10; i++ {
		o.Update(frame)
	}
	if tr, _ := ecs.Get(o.World, o.Player(), component.TransformComponent.Kind()); tr.X <= x0 {
		t.Fatalf("player did not move after resume: %v -> %v", x0, tr.X)
	}
}

func TestOverworldRejectsBadSize(t *testing.T) {
	if _, err := NewOverworld(OverworldOptions{}); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
