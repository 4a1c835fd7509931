package game

import (
	"time"

	"github.com/samdwyer/asciitactics/internal/entity"
)

// DefaultLogSize is the number of player-facing messages kept.
const DefaultLogSize = 20

// Config holds engine and session options.
type Config struct {
	// Movement cost and climb limit applied to every entity.
	Rules entity.MoveRules
	// LogSize bounds the message log. Zero selects DefaultLogSize.
	LogSize int
	// NPCDelay is how long the terminal session pauses between NPC turns so
	// the player can follow them. The engine itself never sleeps.
	NPCDelay time.Duration
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Rules:    entity.DefaultMoveRules,
		LogSize:  DefaultLogSize,
		NPCDelay: 150 * time.Millisecond,
	}
}
