package game

// EntityView is the serializable view of one entity.
type EntityView struct {
	ID       string `json:"id"`
	Template string `json:"template,omitempty"`
	Name     string `json:"name"`
	Glyph    string `json:"glyph"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	HP       int    `json:"hp"`
	MaxHP    int    `json:"maxHp"`
	AP       int    `json:"ap"`
	MaxAP    int    `json:"maxAp"`
	Faction  string `json:"faction"`
	Behavior string `json:"behavior,omitempty"`
	Alive    bool   `json:"alive"`
	Player   bool   `json:"player,omitempty"`
}

// Snapshot is a serializable copy of the session for external renderers.
type Snapshot struct {
	Turn     int          `json:"turn"`
	State    string       `json:"state"`
	Outcome  string       `json:"outcome,omitempty"`
	Current  string       `json:"current,omitempty"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Tiles    []string     `json:"tiles"`
	Heights  [][]int      `json:"heights"`
	Entities []EntityView `json:"entities"`
	Messages []string     `json:"messages"`
}

// Snapshot captures the current session state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Turn:     e.turn,
		State:    e.State().String(),
		Width:    e.m.Width(),
		Height:   e.m.Height(),
		Tiles:    e.m.Rows(),
		Heights:  e.m.Elevations(),
		Entities: make([]EntityView, 0, len(e.entities)),
		Messages: e.log.Messages(),
	}
	if e.phase == PhaseGameOver {
		s.Outcome = e.outcome.String()
	}
	if cur := e.Current(); cur != nil {
		s.Current = cur.ID
	}

	for _, ent := range e.entities {
		view := EntityView{
			ID:       ent.ID,
			Template: ent.TemplateID,
			Name:     ent.Name,
			Glyph:    string(ent.Glyph),
			X:        ent.Pos.X,
			Y:        ent.Pos.Y,
			HP:       ent.HP,
			MaxHP:    ent.MaxHP,
			AP:       ent.AP,
			MaxAP:    ent.MaxAP,
			Faction:  ent.Faction,
			Alive:    ent.IsAlive(),
			Player:   ent == e.player,
		}
		if b := e.behaviors[ent]; b != nil {
			view.Behavior = b.Kind.String()
		}
		s.Entities = append(s.Entities, view)
	}
	return s
}
