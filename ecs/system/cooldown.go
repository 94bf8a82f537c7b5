package system

import (
	"time"

	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

// CooldownSystem counts trigger cooldowns down and drops them once expired.
type CooldownSystem struct{}

func NewCooldownSystem() *CooldownSystem {
	return &CooldownSystem{}
}

func (s *CooldownSystem) Update(w *ecs.World, dt time.Duration) {
	if w == nil {
		return
	}
	ecs.ForEach(w, component.TriggerCooldownComponent.Kind(), func(e ecs.Entity, cd *component.TriggerCooldown) {
		cd.Remaining -= dt
		if cd.Remaining <= 0 {
			ecs.Remove(w, e, component.TriggerCooldownComponent.Kind())
		}
	})
}
