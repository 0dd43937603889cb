package battle

// RequestType distinguishes the kind of prompt a player is being asked to
// answer (glossary: "Request"). LearnMove is named but never constructed —
// spec §9 Open Questions leaves its semantics unspecified.
type RequestType int

const (
	RequestTeamPreview RequestType = iota
	RequestTurn
	RequestSwitch
	RequestLearnMove
)

// ActiveMonView is what a Request exposes about one of the player's active
// mons: its legal moves (with PP/disabled state) and whether it must switch.
type ActiveMonView struct {
	MonHandle   MonHandle
	Moves       []MoveSlot
	CanZMove    bool
	ZMoves      []string // empty entry per move slot that cannot be upgraded
	Trapped     bool
	MustSwitch  bool
}

// Request is the structured prompt sent to a player (spec §3, §6.4).
type Request struct {
	Type    RequestType
	Active  []ActiveMonView
	Team    []MonHandle // present for TeamPreview
	Forced  bool        // true for mid-turn forced switches (Request::Switch)
}

// makeRequest builds and stores a Request for every player that still
// needs one, per the type passed, and marks the battle mid-turn until every
// player's choice is fulfilled (spec §3 invariant: "Request exists ⇔ at
// least one player's choice is not fulfilled").
func (e *Engine) makeRequest(kind RequestType) {
	e.pending = &kind
	for i := range e.players {
		p := &e.players[i]
		if p.Forfeited {
			continue
		}
		p.Choice = ChoiceState{}
		p.Request = e.buildRequestFor(p, kind)
	}
}

func (e *Engine) buildRequestFor(p *Player, kind RequestType) *Request {
	req := &Request{Type: kind}
	switch kind {
	case RequestTeamPreview:
		req.Team = append([]MonHandle{}, p.Team...)
	case RequestTurn, RequestSwitch:
		req.Forced = kind == RequestSwitch
		for _, h := range p.Active {
			if h == NoMon {
				continue
			}
			m := &e.mons[h]
			view := ActiveMonView{MonHandle: h, Moves: append([]MoveSlot{}, m.Moves...)}
			view.CanZMove = e.canZMove(p, m)
			if view.CanZMove {
				view.ZMoves = make([]string, len(m.Moves))
				for i, ms := range m.Moves {
					if mv, ok := e.store.Move(ms.ID); ok && mv.IsZPowered {
						view.ZMoves[i] = ms.ID + "-z"
					}
				}
			} else {
				view.ZMoves = make([]string, len(m.Moves))
			}
			view.Trapped = m.Trapped
			view.MustSwitch = m.NeedsSwitch
			req.Active = append(req.Active, view)
		}
	}
	return req
}

// FillRandomChoices picks a legal choice for every player whose request is
// still outstanding, for the Battle Service's per-battle action timer (spec
// §5 "injects random legal choices for any player whose choice is not yet
// fulfilled"). It reuses the engine's own PRNG, so a battle that times out
// the same way twice with the same seed still replays identically.
func (e *Engine) FillRandomChoices() {
	for i := range e.players {
		p := &e.players[i]
		if p.Forfeited || p.Request == nil || p.Choice.Fulfilled {
			continue
		}
		p.Choice = ChoiceState{Fulfilled: true, Actions: e.randomActionsFor(p), RawInput: "<timeout>"}
	}
}

func (e *Engine) randomActionsFor(p *Player) []Action {
	switch p.Request.Type {
	case RequestTeamPreview:
		actions := make([]Action, len(p.Team))
		for i := range p.Team {
			actions[i] = Action{Kind: ActionTeamKind, Player: p.Handle, TeamIndex: i, TeamPriority: i}
		}
		return actions
	default:
		actions := make([]Action, 0, len(p.Request.Active))
		for slot, view := range p.Request.Active {
			actions = append(actions, e.randomActiveAction(p, slot, view))
		}
		return actions
	}
}

func (e *Engine) randomActiveAction(p *Player, slot int, view ActiveMonView) Action {
	if view.MustSwitch {
		if mh := e.firstAvailableSwitchIn(p); mh != NoMon {
			return Action{Kind: ActionSwitchKind, Player: p.Handle, InMon: mh, Position: slot}
		}
		return Action{Kind: ActionPassKind, Player: p.Handle, Position: slot}
	}
	var usable []int
	for i, ms := range view.Moves {
		if ms.Disabled || ms.CurrentPP <= 0 {
			continue
		}
		usable = append(usable, i)
	}
	if len(usable) > 0 {
		i := usable[e.prng.Range(0, len(usable))]
		return Action{Kind: ActionMoveKind, Player: p.Handle, MoveSlot: i, TargetLocation: 0, Position: slot}
	}
	return Action{Kind: ActionPassKind, Player: p.Handle, Position: slot}
}

func (e *Engine) firstAvailableSwitchIn(p *Player) MonHandle {
	for _, mh := range p.Team {
		m := &e.mons[mh]
		if m.Fainted || m.Active {
			continue
		}
		return mh
	}
	return NoMon
}

// allChoicesFulfilled reports whether every non-forfeited player's request
// has been answered.
func (e *Engine) allChoicesFulfilled() bool {
	for i := range e.players {
		p := &e.players[i]
		if p.Forfeited {
			continue
		}
		if p.Request != nil && !p.Choice.Fulfilled {
			return false
		}
	}
	return true
}
