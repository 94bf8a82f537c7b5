package system

import (
	"time"

	"github.com/milk9111/tycoon/ecs"
	"github.com/milk9111/tycoon/ecs/component"
)

// InputReader samples the devices once per frame.
type InputReader func() component.Input

// InputSystem copies the sampled input onto every entity with an Input
// component.
type InputSystem struct {
	read InputReader
}

func NewInputSystem(read InputReader) *InputSystem {
	return &InputSystem{read: read}
}

func (i *InputSystem) Update(w *ecs.World, _ time.Duration) {
	if i == nil || i.read == nil || w == nil {
		return
	}
	sample := i.read()
	ecs.ForEach(w, component.InputComponent.Kind(), func(_ ecs.Entity, input *component.Input) {
		*input = sample
	})
}
