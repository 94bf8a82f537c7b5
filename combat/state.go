package combat

import (
	"context"

	"github.com/looplab/fsm"
)

// State is the arena state machine state.
type State int

const (
	Idle State = iota
	PlayerTurn
	EnemyTurn
	AttackMiniGame
	CriticalAttackMiniGame
	DefenseMiniGame
	DodgeMiniGame
	BossTelegraph
	Resolved
)

var stateNames = map[State]string{
	Idle:                   "idle",
	PlayerTurn:             "player_turn",
	EnemyTurn:              "enemy_turn",
	AttackMiniGame:         "attack_minigame",
	CriticalAttackMiniGame: "critical_minigame",
	DefenseMiniGame:        "defense_minigame",
	DodgeMiniGame:          "dodge_minigame",
	BossTelegraph:          "boss_telegraph",
	Resolved:               "resolved",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MiniGame reports whether the state runs a timing bar.
func (s State) MiniGame() bool {
	switch s {
	case AttackMiniGame, CriticalAttackMiniGame, DefenseMiniGame, DodgeMiniGame:
		return true
	}
	return false
}

// Outcome is how a resolved session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeLoss
	OutcomeVictory
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoss:
		return "loss"
	case OutcomeVictory:
		return "victory"
	default:
		return "none"
	}
}

// transitions lists every legal edge by source state. Idle and Resolved are
// reachable from anywhere since closing the arena or losing can interrupt any
// state.
var transitions = map[State][]State{
	Idle:                   {PlayerTurn},
	PlayerTurn:             {EnemyTurn, AttackMiniGame, CriticalAttackMiniGame},
	AttackMiniGame:         {EnemyTurn, PlayerTurn},
	CriticalAttackMiniGame: {EnemyTurn, PlayerTurn},
	EnemyTurn:              {PlayerTurn, DefenseMiniGame, DodgeMiniGame, BossTelegraph},
	DefenseMiniGame:        {PlayerTurn},
	DodgeMiniGame:          {PlayerTurn},
	BossTelegraph:          {PlayerTurn},
	Resolved:               {PlayerTurn},
}

func eventName(dst State) string {
	return "to_" + dst.String()
}

func newStateMachine() *fsm.FSM {
	srcs := make(map[State][]string)
	for src, dsts := range transitions {
		for _, dst := range dsts {
			srcs[dst] = append(srcs[dst], src.String())
		}
	}
	all := make([]string, 0, len(stateNames))
	for s := range stateNames {
		all = append(all, s.String())
	}
	srcs[Idle] = all
	srcs[Resolved] = all

	events := make(fsm.Events, 0, len(srcs))
	for dst, from := range srcs {
		events = append(events, fsm.EventDesc{Name: eventName(dst), Src: from, Dst: dst.String()})
	}
	return fsm.NewFSM(Idle.String(), events, fsm.Callbacks{})
}

// step moves the fsm to dst. It reports false for edges the table forbids.
func step(f *fsm.FSM, dst State) bool {
	if f.Current() == dst.String() {
		return true
	}
	ev := eventName(dst)
	if !f.Can(ev) {
		return false
	}
	return f.Event(context.Background(), ev) == nil
}
