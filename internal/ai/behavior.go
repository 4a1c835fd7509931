// Package ai implements NPC decision making.
//
// A Behavior is a closed set of strategies selected by Kind. Each strategy
// looks at the NPC and the player and picks at most one action per turn:
// an attack with one of the NPC's abilities, or a single greedy step.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/telemetry"
	"github.com/samdwyer/asciitactics/internal/world"
)

// ErrUnknownBehavior is returned by New for a tag that names no behavior.
var ErrUnknownBehavior = errors.New("unknown behavior tag")

// Defaults used when Options leaves a field at zero.
const (
	DefaultPreferredDistance = 3
	DefaultGuardRadius       = 2
)

// Kind identifies a behavior strategy.
type Kind uint8

const (
	// KindAggressiveMelee attacks whenever it can, otherwise closes in.
	KindAggressiveMelee Kind = iota
	// KindCautious keeps its distance and shoots from a medium band.
	KindCautious
	// KindDefensive holds a guard post and attacks intruders.
	KindDefensive
)

// String returns the canonical tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindAggressiveMelee:
		return "aggressive_melee"
	case KindCautious:
		return "cautious"
	case KindDefensive:
		return "defensive"
	default:
		return "unknown"
	}
}

// tags maps data tags, including aliases, to kinds.
var tags = map[string]Kind{
	"aggressive_melee": KindAggressiveMelee,
	"aggressive":       KindAggressiveMelee,
	"cautious":         KindCautious,
	"defensive":        KindDefensive,
	"guard":            KindDefensive,
}

// IsPlayerTag reports whether tag marks an entity as player controlled.
func IsPlayerTag(tag string) bool {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "player_controlled":
		return true
	default:
		return false
	}
}

// Options tune a behavior. Zero values select the defaults.
type Options struct {
	PreferredDistance int          // Cautious: distance it tries to keep
	GuardRadius       int          // Defensive: distance at which it engages
	Post              *world.Point // Defensive: guard post; nil leaves it to Anchor
}

// Behavior is one NPC's strategy and its per-entity parameters.
type Behavior struct {
	Kind              Kind
	PreferredDistance int
	GuardRadius       int

	post    world.Point
	hasPost bool
}

// New resolves a behavior tag. Player tags yield a nil behavior and no
// error. Unknown tags are reported as ErrUnknownBehavior.
func New(tag string, opts Options) (*Behavior, error) {
	if IsPlayerTag(tag) {
		return nil, nil
	}
	kind, ok := tags[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", tag, ErrUnknownBehavior)
	}

	b := &Behavior{
		Kind:              kind,
		PreferredDistance: opts.PreferredDistance,
		GuardRadius:       opts.GuardRadius,
	}
	if b.PreferredDistance <= 0 {
		b.PreferredDistance = DefaultPreferredDistance
	}
	if b.GuardRadius <= 0 {
		b.GuardRadius = DefaultGuardRadius
	}
	if opts.Post != nil {
		b.post, b.hasPost = *opts.Post, true
	}
	return b, nil
}

// Anchor fixes the guard post at p unless one is already set. Engines call it
// once at setup with the entity's spawn cell.
func (b *Behavior) Anchor(p world.Point) {
	if !b.hasPost {
		b.post, b.hasPost = p, true
	}
}

// Post returns the guard post and whether one has been fixed yet.
func (b *Behavior) Post() (world.Point, bool) {
	return b.post, b.hasPost
}

// World is the read-only view of the session a behavior decides from.
type World interface {
	// Player returns the player-controlled entity.
	Player() *entity.Entity
	// CanStep reports whether e may legally move by (dx, dy) right now.
	CanStep(e *entity.Entity, dx, dy int) bool
}

// ActionKind distinguishes the actions a behavior can choose.
type ActionKind uint8

const (
	ActionMove ActionKind = iota
	ActionAttack
)

// String returns a human-readable action name.
func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionAttack:
		return "attack"
	default:
		return "unknown"
	}
}

// Action is a single NPC decision. For moves Target is the adjacent cell to
// step into; for attacks it is the cell the ability is aimed at.
type Action struct {
	Kind    ActionKind
	Ability *gamedata.AbilityDef
	Target  world.Point
}

// ChooseAction picks self's action for this turn. It returns false when the
// NPC should do nothing, including when the player is absent or defeated.
func (b *Behavior) ChooseAction(ctx context.Context, self *entity.Entity, w World) (Action, bool) {
	_, span := telemetry.Tracer("ai").Start(ctx, "ai.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("actor", self.Name),
		attribute.String("behavior", b.Kind.String()),
		attribute.Int("ap", self.AP),
	)

	player := w.Player()
	if player == nil || !player.IsAlive() || !self.IsAlive() {
		span.SetAttributes(attribute.Bool("idle", true))
		return Action{}, false
	}

	var (
		action Action
		ok     bool
	)
	switch b.Kind {
	case KindAggressiveMelee:
		action, ok = b.aggressive(self, player, w)
	case KindCautious:
		action, ok = b.cautious(self, player, w)
	case KindDefensive:
		action, ok = b.defensive(self, player, w)
	}

	if ok {
		span.SetAttributes(
			attribute.String("action", action.Kind.String()),
			attribute.Int("target.x", action.Target.X),
			attribute.Int("target.y", action.Target.Y),
		)
	} else {
		span.SetAttributes(attribute.Bool("idle", true))
	}
	return action, ok
}

func (b *Behavior) aggressive(self, player *entity.Entity, w World) (Action, bool) {
	if action, ok := attack(self, player); ok {
		return action, true
	}
	return stepToward(self, player.Pos, w)
}

func (b *Behavior) cautious(self, player *entity.Entity, w World) (Action, bool) {
	dist := world.Manhattan(self.Pos, player.Pos)
	switch {
	case dist < b.PreferredDistance:
		if action, ok := stepAway(self, player.Pos, w); ok {
			return action, true
		}
		// Cornered: fight back rather than idle.
		return attack(self, player)
	case dist <= b.PreferredDistance+1:
		return attack(self, player)
	default:
		return Action{}, false
	}
}

func (b *Behavior) defensive(self, player *entity.Entity, w World) (Action, bool) {
	post := self.Pos
	if b.hasPost {
		post = b.post
	}
	if world.Manhattan(self.Pos, player.Pos) <= b.GuardRadius {
		if action, ok := attack(self, player); ok {
			return action, true
		}
	}
	if self.Pos != post {
		return stepToward(self, post, w)
	}
	return Action{}, false
}

// attack returns the first of self's abilities that can legally hit the
// player with the AP self has left.
func attack(self, player *entity.Entity) (Action, bool) {
	for _, ability := range self.Abilities {
		if !ability.IsOffensive() {
			continue
		}
		if self.CheckAttack(player, ability) == nil {
			return Action{Kind: ActionAttack, Ability: ability, Target: player.Pos}, true
		}
	}
	return Action{}, false
}

// stepToward takes one greedy step that reduces the Manhattan distance to
// goal, trying the axis with the larger gap first.
func stepToward(self *entity.Entity, goal world.Point, w World) (Action, bool) {
	dx, dy := goal.X-self.Pos.X, goal.Y-self.Pos.Y
	if dx == 0 && dy == 0 {
		return Action{}, false
	}

	horizontal := world.Point{X: sign(dx)}
	vertical := world.Point{Y: sign(dy)}
	order := []world.Point{horizontal, vertical}
	if abs(dy) > abs(dx) {
		order = []world.Point{vertical, horizontal}
	}

	for _, step := range order {
		if step == (world.Point{}) {
			continue
		}
		if w.CanStep(self, step.X, step.Y) {
			return Action{Kind: ActionMove, Target: self.Pos.Add(step.X, step.Y)}, true
		}
	}
	return Action{}, false
}

// stepAway takes the legal step that increases the distance from threat the
// most. It returns false when no step increases it.
func stepAway(self *entity.Entity, threat world.Point, w World) (Action, bool) {
	best := world.Manhattan(self.Pos, threat)
	var (
		chosen world.Point
		found  bool
	)
	for _, step := range world.Cardinal {
		to := self.Pos.Add(step.X, step.Y)
		if d := world.Manhattan(to, threat); d > best && w.CanStep(self, step.X, step.Y) {
			best, chosen, found = d, to, true
		}
	}
	if !found {
		return Action{}, false
	}
	return Action{Kind: ActionMove, Target: chosen}, true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
