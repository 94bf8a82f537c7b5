package component

// Building is an enterable structure. Kind picks the handler the trigger
// system calls, e.g. "arena".
type Building struct {
	Kind   string
	Label  string
	Width  float64
	Height float64
}

var BuildingComponent = NewComponent[Building]()
