package combat

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/tycoon/enemy"
)

// BossView is what a boss brain sees when choosing its move.
type BossView struct {
	Name            string
	Health          int
	MaxHealth       int
	Level           int
	Preparing       bool
	Available       []enemy.Special
	TelegraphChance float64
}

// BossDecision is a brain's choice for one enemy turn. A zero value means a
// plain attack.
type BossDecision struct {
	Telegraph bool
	Special   enemy.Special
}

// BossBrain picks whether a boss telegraphs a special this turn.
type BossBrain interface {
	Decide(view BossView, r Rand) (BossDecision, error)
}

// DefaultBrain telegraphs a random available special with the configured
// chance.
type DefaultBrain struct{}

func (DefaultBrain) Decide(view BossView, r Rand) (BossDecision, error) {
	if view.Preparing || len(view.Available) == 0 {
		return BossDecision{}, nil
	}
	if r.Float64() >= view.TelegraphChance {
		return BossDecision{}, nil
	}
	return BossDecision{Telegraph: true, Special: view.Available[r.IntN(len(view.Available))]}, nil
}

const bossDispatchScript = `
decision := decide(__boss, __engine)
`

// ScriptBrain runs a tengo script that defines decide(boss, engine) and
// returns a map with an "action" of "attack" or "telegraph" plus a
// "special" when telegraphing.
type ScriptBrain struct {
	compiled *tengo.Compiled
}

func NewScriptBrain(src []byte) (*ScriptBrain, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + bossDispatchScript))
	_ = script.Add("__boss", map[string]any{})
	_ = script.Add("__engine", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("combat: compile boss script: %w", err)
	}
	return &ScriptBrain{compiled: compiled}, nil
}

func (b *ScriptBrain) Decide(view BossView, r Rand) (BossDecision, error) {
	if b == nil || b.compiled == nil {
		return BossDecision{}, fmt.Errorf("combat: nil boss script")
	}
	if err := b.compiled.Set("__boss", bossObject(view)); err != nil {
		return BossDecision{}, err
	}
	if err := b.compiled.Set("__engine", bossEngine(r)); err != nil {
		return BossDecision{}, err
	}
	if err := b.compiled.Run(); err != nil {
		return BossDecision{}, fmt.Errorf("combat: run boss script: %w", err)
	}
	if !b.compiled.IsDefined("decision") {
		return BossDecision{}, nil
	}
	out := b.compiled.Get("decision").Map()
	switch strings.TrimSpace(asString(out["action"])) {
	case "telegraph":
		sp := enemy.Special(strings.TrimSpace(asString(out["special"])))
		for _, avail := range view.Available {
			if avail == sp {
				return BossDecision{Telegraph: true, Special: sp}, nil
			}
		}
		return BossDecision{}, fmt.Errorf("combat: boss script chose unavailable special %q", sp)
	default:
		return BossDecision{}, nil
	}
}

func bossObject(view BossView) *tengo.ImmutableMap {
	available := make([]tengo.Object, 0, len(view.Available))
	for _, sp := range view.Available {
		available = append(available, &tengo.String{Value: string(sp)})
	}
	preparing := tengo.FalseValue
	if view.Preparing {
		preparing = tengo.TrueValue
	}
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"name":             &tengo.String{Value: view.Name},
		"health":           &tengo.Int{Value: int64(view.Health)},
		"max_health":       &tengo.Int{Value: int64(view.MaxHealth)},
		"level":            &tengo.Int{Value: int64(view.Level)},
		"preparing":        preparing,
		"available":        &tengo.ImmutableArray{Value: available},
		"telegraph_chance": &tengo.Float{Value: view.TelegraphChance},
	}}
}

func bossEngine(r Rand) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["rand"] = &tengo.UserFunction{Name: "rand", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: r.Float64()}, nil
	}}

	values["rand_int"] = &tengo.UserFunction{Name: "rand_int", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return &tengo.Int{Value: 0}, nil
		}
		n, ok := tengo.ToInt(args[0])
		if !ok || n <= 0 {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(r.IntN(n))}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
