package battle

import (
	"github.com/openmohaa/battler/internal/fxlang"
)

// fxHost adapts Engine to fxlang.Host, translating fxlang's int-keyed mon
// references into MonHandle. Built-in effects (effects.go) call Engine
// directly and never go through this path; fxHost exists for data-driven
// effect programs that want the same primitives (spec §1: effect-program
// content itself is out of scope, but the function surface it would call
// is not).
type fxHost struct{ e *Engine }

func (h fxHost) Damage(target int, amount int) error {
	m := &h.e.mons[target]
	h.e.applyDamage(m, amount)
	if m.CurrentHP <= 0 && !m.Fainted {
		h.e.faint(m)
	}
	return nil
}

func (h fxHost) Heal(target int, amount int) error {
	h.e.heal(&h.e.mons[target], amount)
	return nil
}

func (h fxHost) SetStatus(target int, status string) (bool, error) {
	m := &h.e.mons[target]
	if m.Status != StatusNone {
		return false, nil
	}
	m.Status = Status(status)
	h.e.log("status", map[string]string{"mon": monLogID(m), "status": status})
	return true, nil
}

func (h fxHost) CureStatus(target int) error {
	h.e.mons[target].Status = StatusNone
	return nil
}

func (h fxHost) AddVolatile(target int, id string) (bool, error) {
	m := &h.e.mons[target]
	if m.hasVolatile(id) {
		return false, nil
	}
	m.Volatiles[id] = &VolatileState{EffectID: id, Data: map[string]int{}}
	return true, nil
}

func (h fxHost) RemoveVolatile(target int, id string) (bool, error) {
	m := &h.e.mons[target]
	if !m.hasVolatile(id) {
		return false, nil
	}
	delete(m.Volatiles, id)
	return true, nil
}

func (h fxHost) HasVolatile(target int, id string) bool {
	return h.e.mons[target].hasVolatile(id)
}

func (h fxHost) SetBoost(target int, stat string, stages int) (int, error) {
	m := &h.e.mons[target]
	cur := m.boostValue(stat)
	applied := clampBoost(cur+stages) - cur
	setBoostValue(m, stat, clampBoost(cur+stages))
	return applied, nil
}

func (h fxHost) GetBoost(target int, stat string) int {
	return h.e.mons[target].boostValue(stat)
}

func (h fxHost) RunEvent(event string, target int, relay int) int {
	result := h.e.dispatch(EventID(event), MonHandle(target), NoMon, relay)
	if n, ok := result.(int); ok {
		return n
	}
	return relay
}

func (h fxHost) RunEventOnMove(event string, user int) error {
	h.e.dispatch(EventID(event), MonHandle(user), NoMon, nil)
	return nil
}

func (h fxHost) Random(lo, hi int) int { return h.e.prng.Range(lo, hi) }

func (h fxHost) Chance(numerator, denominator int) bool {
	return h.e.prng.Chance(numerator, denominator)
}

func (h fxHost) Log(title string, fields map[string]string) { h.e.log(title, fields) }

func (h fxHost) CalculateDamage(user, target int, basePower int) (int, error) {
	um, tm := &h.e.mons[user], &h.e.mons[target]
	return baseDamage(um.Level, basePower, um.Stats.Attack, tm.Stats.Defense), nil
}

func (h fxHost) CalculateConfusionDamage(user int) (int, error) {
	m := &h.e.mons[user]
	return baseDamage(m.Level, 40, m.Stats.Attack, m.Stats.Defense), nil
}

func (h fxHost) MonInPosition(side, position int) (int, bool) {
	for _, ph := range h.e.sides[side].PlayerHandles {
		p := &h.e.players[ph]
		if position < len(p.Active) && p.Active[position] != NoMon {
			return int(p.Active[position]), true
		}
	}
	return 0, false
}

func (h fxHost) HasAbility(mon int, abilityID string) bool {
	return h.e.mons[mon].AbilityID == abilityID
}

func (h fxHost) HasType(mon int, typeName string) bool {
	return hasType(h.e.mons[mon].Types, typeName)
}

func (h fxHost) IsAlly(a, b int) bool {
	return h.e.mons[a].PlayerHandle.sideIndex(h.e) == h.e.mons[b].PlayerHandle.sideIndex(h.e)
}

func (h fxHost) MoveHasFlag(moveID string, flag string) bool {
	mv, ok := h.e.store.Move(moveID)
	if !ok {
		return false
	}
	return mv.Flags[flag]
}

func setBoostValue(m *Mon, stat string, v int) {
	switch stat {
	case "atk":
		m.Boosts.Attack = v
	case "def":
		m.Boosts.Defense = v
	case "spa":
		m.Boosts.SpAttack = v
	case "spd":
		m.Boosts.SpDefense = v
	case "spe":
		m.Boosts.Speed = v
	case "accuracy":
		m.Boosts.Accuracy = v
	case "evasion":
		m.Boosts.Evasion = v
	}
}

var _ fxlang.Host = fxHost{}

func newFxContext(e *Engine, target, source MonHandle) *fxlang.Context {
	return &fxlang.Context{Host: fxHost{e: e}, Target: int(target), Source: int(source)}
}

// runFxFunction exposes fxlang.RunFunction to engine code that calls a
// named primitive the way a data-driven effect program would; runMove
// uses it to run each of a move's OnHitEvents through run_event.
func (e *Engine) runFxFunction(target, source MonHandle, name string, args []fxlang.Value) (fxlang.Value, error) {
	return fxlang.RunFunction(newFxContext(e, target, source), name, args)
}
