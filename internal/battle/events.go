package battle

import "sort"

// EventID names one of the engine's decision points (spec §4.1 "The event
// pipeline"). Names are design-level identifiers, not wire format.
type EventID string

const (
	EventBeforeMove        EventID = "BeforeMove"
	EventModifyPriority    EventID = "ModifyPriority"
	EventModifyAccuracy    EventID = "ModifyAccuracy"
	EventModifyDamage      EventID = "ModifyDamage"
	EventOnDamage          EventID = "OnDamage"
	EventOnHit             EventID = "OnHit"
	EventOnSwitchIn        EventID = "OnSwitchIn"
	EventOnResidual        EventID = "OnResidual"
	EventOnFaint           EventID = "OnFaint"
	EventModifyMatchUpScore EventID = "ModifyMatchUpScore"
	EventModifyMoveScore   EventID = "ModifyMoveScore"
)

// HandlerFunc is a native event handler. It mutates *EventContext.Relay in
// place and returns false to veto/short-circuit the remaining handlers
// (spec §4.1 "return a value that short-circuits the remaining handlers").
type HandlerFunc func(ec *EventContext) bool

// Handler pairs a native function with its dispatch priority; handlers are
// invoked in (priority desc, insertion order asc) (spec §4.1 item list
// "Handlers are sorted by (priority, insertion_order)").
type Handler struct {
	Priority int
	order    int
	Fn       HandlerFunc
}

// Effect is anything that can own a table of event handlers: an ability,
// item, status, volatile, side condition, or field weather/terrain (spec
// §9 "Effect-handler polymorphism" — a record of named handlers instead of
// inheritance).
type Effect struct {
	ID       string
	Handlers map[EventID][]Handler
}

func newEffect(id string) *Effect {
	return &Effect{ID: id, Handlers: make(map[EventID][]Handler)}
}

func (e *Effect) on(event EventID, priority int, fn HandlerFunc) {
	e.Handlers[event] = append(e.Handlers[event], Handler{Priority: priority, order: len(e.Handlers[event]), Fn: fn})
}

// EventContext is the relayed state one dispatch pass threads through every
// handler it invokes.
type EventContext struct {
	Engine *Engine
	Event  EventID
	Target MonHandle
	Source MonHandle
	Relay  any
}

// gatherEffects collects every Effect relevant to one mon for event
// dispatch: its active move, its ability/item/status/volatiles, its side's
// conditions, and the field's weather/terrain (spec §4.1 "For each event
// the engine gathers all handlers attached to: ...").
func (e *Engine) gatherEffects(mon MonHandle) []*Effect {
	var effects []*Effect
	if mon == NoMon {
		return effects
	}
	m := &e.mons[mon]

	if m.ActiveMoveID != "" {
		if eff, ok := e.moveEffect(m.ActiveMoveID); ok {
			effects = append(effects, eff)
		}
	}
	if eff, ok := e.abilityEffects[m.AbilityID]; ok {
		effects = append(effects, eff)
	}
	if eff, ok := e.itemEffects[m.ItemID]; ok {
		effects = append(effects, eff)
	}
	if m.Status != StatusNone {
		if eff, ok := e.statusEffects[string(m.Status)]; ok {
			effects = append(effects, eff)
		}
	}
	for id := range m.Volatiles {
		if eff, ok := e.volatileEffects[id]; ok {
			effects = append(effects, eff)
		}
	}

	side := e.sides[e.players[m.PlayerHandle].SideIndex]
	for id := range side.Conditions {
		if eff, ok := e.sideConditionEffects[id]; ok {
			effects = append(effects, eff)
		}
	}

	if e.field.Weather != "" {
		if eff, ok := e.weatherEffects[e.field.Weather]; ok {
			effects = append(effects, eff)
		}
	}
	if e.field.Terrain != "" {
		if eff, ok := e.terrainEffects[e.field.Terrain]; ok {
			effects = append(effects, eff)
		}
	}

	return effects
}

// moveEffect looks up the Effect for an active move id.
func (e *Engine) moveEffect(id string) (*Effect, bool) {
	eff, ok := e.moveEffects[id]
	return eff, ok
}

// dispatch runs every handler attached to target's and source's effects
// for one event, in (priority, insertion order), stopping early when a
// handler returns false (spec §4.1 "Event dispatch").
func (e *Engine) dispatch(event EventID, target, source MonHandle, relay any) any {
	ec := &EventContext{Engine: e, Event: event, Target: target, Source: source, Relay: relay}

	var handlers []Handler
	for _, eff := range e.gatherEffects(target) {
		handlers = append(handlers, eff.Handlers[event]...)
	}
	if source != NoMon && source != target {
		for _, eff := range e.gatherEffects(source) {
			handlers = append(handlers, eff.Handlers[event]...)
		}
	}

	sort.SliceStable(handlers, func(i, j int) bool {
		if handlers[i].Priority != handlers[j].Priority {
			return handlers[i].Priority > handlers[j].Priority
		}
		return handlers[i].order < handlers[j].order
	})

	for _, h := range handlers {
		if !h.Fn(ec) {
			break
		}
	}
	return ec.Relay
}
