package status

// Kind is a player status effect.
type Kind string

const (
	Poisoned Kind = "poisoned"
	Wounded  Kind = "wounded"
)

// Kinds lists every effect in tick order.
var Kinds = []Kind{Poisoned, Wounded}

// TickResult reports what one turn boundary did.
type TickResult struct {
	Damage  int
	Expired []Kind
}

// Tracker holds remaining turns per effect. Counters never go negative.
type Tracker struct {
	turns        map[Kind]int
	poisonDamage int

	// OnExpired fires once each time an effect runs out.
	OnExpired func(Kind)
}

func NewTracker(poisonDamage int) *Tracker {
	return &Tracker{turns: make(map[Kind]int), poisonDamage: poisonDamage}
}

func (t *Tracker) SetPoisonDamage(n int) {
	if t == nil {
		return
	}
	t.poisonDamage = max(n, 0)
}

// Apply sets an effect's duration, replacing any remaining turns. A
// non-positive duration clears the effect without an expiry notification.
func (t *Tracker) Apply(kind Kind, turns int) {
	if t == nil {
		return
	}
	if turns <= 0 {
		delete(t.turns, kind)
		return
	}
	t.turns[kind] = turns
}

func (t *Tracker) Remaining(kind Kind) int {
	if t == nil {
		return 0
	}
	return t.turns[kind]
}

func (t *Tracker) Active(kind Kind) bool {
	return t.Remaining(kind) > 0
}

func (t *Tracker) IsPoisoned() bool { return t.Active(Poisoned) }

func (t *Tracker) IsWounded() bool { return t.Active(Wounded) }

// Tick applies poison damage and decrements every active effect.
func (t *Tracker) Tick() TickResult {
	var res TickResult
	if t == nil {
		return res
	}
	for _, kind := range Kinds {
		n, ok := t.turns[kind]
		if !ok {
			continue
		}
		if kind == Poisoned {
			res.Damage += t.poisonDamage
		}
		n--
		if n > 0 {
			t.turns[kind] = n
			continue
		}
		delete(t.turns, kind)
		res.Expired = append(res.Expired, kind)
		if t.OnExpired != nil {
			t.OnExpired(kind)
		}
	}
	return res
}

// Clear drops every effect silently.
func (t *Tracker) Clear() {
	if t == nil {
		return
	}
	clear(t.turns)
}

// Snapshot copies the active effects.
func (t *Tracker) Snapshot() map[Kind]int {
	out := make(map[Kind]int)
	if t == nil {
		return out
	}
	for k, v := range t.turns {
		out[k] = v
	}
	return out
}
