package system

import (
	"fmt"
	"time"

	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

// BuildingArena is the Building.Kind of the arena entrance.
const BuildingArena = "arena"

type OverworldOptions struct {
	Width, Height   float64
	PlayerSpeed     float64
	Input           InputReader
	SpeedMultiplier func() float64
	OnEnter         EnterFunc
}

// Overworld is the walkable town the arena sits in. It owns the ECS world
// and the system order and implements the arena's world hooks.
type Overworld struct {
	World   *ecs.World
	physics *PhysicsSystem
	player  ecs.Entity
	width   float64
	height  float64
}

func NewOverworld(opts OverworldOptions) (*Overworld, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("overworld: invalid size %vx%v", opts.Width, opts.Height)
	}
	w := ecs.NewWorld()
	physics := NewPhysicsSystem(opts.Width, opts.Height)

	w.AddSystem(NewInputSystem(opts.Input))
	w.AddSystem(NewMovementSystem(opts.PlayerSpeed, opts.SpeedMultiplier))
	w.AddSystem(physics)
	w.AddSystem(NewCooldownSystem())
	w.AddSystem(NewTriggerSystem(opts.OnEnter))

	o := &Overworld{World: w, physics: physics, width: opts.Width, height: opts.Height}
	if err := o.populate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Overworld) populate() error {
	arena := ecs.CreateEntity(o.World)
	if err := ecs.Add(o.World, arena, component.TransformComponent.Kind(), &component.Transform{X: o.width/2 - 48, Y: 32}); err != nil {
		return fmt.Errorf("overworld: arena transform: %w", err)
	}
	if err := ecs.Add(o.World, arena, component.BuildingComponent.Kind(), &component.Building{Kind: BuildingArena, Label: "Arena", Width: 96, Height: 64}); err != nil {
		return fmt.Errorf("overworld: arena building: %w", err)
	}

	fountain := ecs.CreateEntity(o.World)
	if err := ecs.Add(o.World, fountain, component.TransformComponent.Kind(), &component.Transform{X: o.width/2 - 16, Y: o.height/2 - 16}); err != nil {
		return fmt.Errorf("overworld: fountain transform: %w", err)
	}
	if err := ecs.Add(o.World, fountain, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Width: 32, Height: 32, Static: true}); err != nil {
		return fmt.Errorf("overworld: fountain body: %w", err)
	}

	o.player = ecs.CreateEntity(o.World)
	if err := ecs.Add(o.World, o.player, component.PlayerTagComponent.Kind(), &component.PlayerTag{}); err != nil {
		return fmt.Errorf("overworld: player tag: %w", err)
	}
	if err := ecs.Add(o.World, o.player, component.TransformComponent.Kind(), &component.Transform{X: o.width/2 - 12, Y: o.height - 64}); err != nil {
		return fmt.Errorf("overworld: player transform: %w", err)
	}
	if err := ecs.Add(o.World, o.player, component.InputComponent.Kind(), &component.Input{}); err != nil {
		return fmt.Errorf("overworld: player input: %w", err)
	}
	if err := ecs.Add(o.World, o.player, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Width: 24, Height: 24, Mass: 1}); err != nil {
		return fmt.Errorf("overworld: player body: %w", err)
	}
	return nil
}

func (o *Overworld) Update(dt time.Duration) {
	o.World.Update(dt)
}

func (o *Overworld) Player() ecs.Entity {
	return o.player
}

func (o *Overworld) Size() (float64, float64) {
	return o.width, o.height
}

func (o *Overworld) PausePhysics() {
	o.physics.SetPaused(true)
}

func (o *Overworld) ResumePhysics() {
	o.physics.SetPaused(false)
}

func (o *Overworld) PhysicsPaused() bool {
	return o.physics.Paused()
}

// CooldownTriggers blocks every building for d.
func (o *Overworld) CooldownTriggers(d time.Duration) {
	ecs.ForEach(o.World, component.BuildingComponent.Kind(), func(e ecs.Entity, _ *component.Building) {
		_ = ecs.Add(o.World, e, component.TriggerCooldownComponent.Kind(), &component.TriggerCooldown{Remaining: d})
	})
}
