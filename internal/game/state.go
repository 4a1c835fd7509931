// Package game provides the turn engine and the interactive terminal session.
package game

import "fmt"

// Phase is the coarse state of the turn machine.
type Phase int

const (
	// PhaseSetup is the state before Start.
	PhaseSetup Phase = iota
	// PhasePlayerTurn waits for the player to move, use an ability or end the turn.
	PhasePlayerTurn
	// PhaseNpcTurn runs one NPC decision on the next Update.
	PhaseNpcTurn
	// PhaseGameOver is terminal.
	PhaseGameOver
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseNpcTurn:
		return "npc_turn"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Outcome is how a finished session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeVictory: the player lives and no hostile entity does.
	OutcomeVictory
	// OutcomeDefeat: the player was defeated.
	OutcomeDefeat
	// OutcomeNoSurvivors: nobody is left alive.
	OutcomeNoSurvivors
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeNoSurvivors:
		return "no_survivors"
	default:
		return "unknown"
	}
}

// State is the engine's externally visible turn state. Index is the acting
// entity's position in the turn order during player and NPC turns.
type State struct {
	Phase   Phase
	Index   int
	Outcome Outcome
}

// String renders the state as player_turn, npc_turn(i) or game_over(outcome).
func (s State) String() string {
	switch s.Phase {
	case PhaseNpcTurn:
		return fmt.Sprintf("npc_turn(%d)", s.Index)
	case PhaseGameOver:
		return fmt.Sprintf("game_over(%s)", s.Outcome)
	default:
		return s.Phase.String()
	}
}
