package component

import "time"

// TriggerCooldown blocks a building from firing until Remaining runs out.
type TriggerCooldown struct {
	Remaining time.Duration
}

var TriggerCooldownComponent = NewComponent[TriggerCooldown]()
