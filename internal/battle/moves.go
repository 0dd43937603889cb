package battle

import (
	"github.com/openmohaa/battler/internal/data"
	"github.com/openmohaa/battler/internal/fxlang"
)

// runAction executes one action popped off the queue, dispatching on Kind
// (spec §4.1 "run_action"). Only Move actions can produce an *Error mid-
// resolution; the rest are bookkeeping and cannot fail once parseChoice
// has already accepted them.
func (e *Engine) runAction(a Action) *Error {
	switch a.Kind {
	case ActionStartKind:
		return e.runStart()
	case ActionTeamKind:
		e.runTeamPick(a)
		return nil
	case ActionSwitchKind:
		e.runSwitch(a)
		return nil
	case ActionMoveKind:
		return e.runMove(a)
	case ActionPassKind, ActionBeforeTurnKind, ActionResidualKind:
		return nil
	}
	return nil
}

// runStart performs the initial switch-in for every player: the first
// ActivePerPlayer non-fainted mons in team order go active, then a Turn
// request is issued (spec §4.1 "run_action(Start)").
func (e *Engine) runStart() *Error {
	for i := range e.players {
		p := &e.players[i]
		slot := 0
		for _, mh := range p.Team {
			if slot >= len(p.Active) {
				break
			}
			m := &e.mons[mh]
			if m.Fainted {
				continue
			}
			e.placeMonActive(p, mh, slot)
			slot++
		}
	}
	e.makeRequest(RequestTurn)
	return nil
}

func (e *Engine) placeMonActive(p *Player, mh MonHandle, slot int) {
	m := &e.mons[mh]
	m.Active = true
	m.Position = slot
	p.Active[slot] = mh
	e.dispatch(EventOnSwitchIn, mh, NoMon, nil)
	e.log("switch", map[string]string{
		"player": p.ID, "position": itoa(slot), "mon": monLogID(m), "species": m.SpeciesID,
	})
}

// runTeamPick accumulates one Team(index, priority) choice; once every
// active slot has a pick the remaining, unpicked team members fill the
// rest of the order in their original position (spec §9 Open Questions:
// "team-preview under-selection fills remaining slots with earliest
// unused positions").
func (e *Engine) runTeamPick(a Action) {
	p := &e.players[a.Player]
	for len(p.teamPick) <= a.TeamPriority {
		p.teamPick = append(p.teamPick, NoMon)
	}
	if a.TeamIndex >= 0 && a.TeamIndex < len(p.Team) {
		p.teamPick[a.TeamPriority] = p.Team[a.TeamIndex]
	}

	filled := 0
	for _, h := range p.teamPick {
		if h != NoMon {
			filled++
		}
	}
	if filled < len(p.teamPick) {
		return
	}

	used := map[MonHandle]bool{}
	order := make([]MonHandle, 0, len(p.Team))
	for _, h := range p.teamPick {
		if h != NoMon && !used[h] {
			order = append(order, h)
			used[h] = true
		}
	}
	for _, h := range p.Team {
		if !used[h] {
			order = append(order, h)
			used[h] = true
		}
	}
	p.Team = order
	p.teamPick = nil
}

// runSwitch moves InMon into Position for the acting player, clearing the
// outgoing mon's active state (spec §4.1 "run_action(Switch)").
func (e *Engine) runSwitch(a Action) {
	p := &e.players[a.Player]
	pos := a.Position
	if pos < 0 || pos >= len(p.Active) {
		return
	}

	if out := p.Active[pos]; out != NoMon {
		om := &e.mons[out]
		om.Active = false
		om.Position = -1
		om.NeedsSwitch = false
	}

	e.placeMonActive(p, a.InMon, pos)
}

// runMove is the seven-step move resolution pipeline (spec §4.1 item 4):
// before-move checks, target resolution, accuracy check, damage
// calculation, damage application, post-move effects, faint check.
func (e *Engine) runMove(a Action) *Error {
	user := e.playerMonAt(a.Player, a.Position)
	if user == NoMon {
		return nil
	}
	um := &e.mons[user]
	if um.Fainted {
		return nil
	}

	slotIdx := a.MoveSlot
	if slotIdx < 0 || slotIdx >= len(um.Moves) {
		return newError(KindChoice, "move slot out of range")
	}
	slot := &um.Moves[slotIdx]
	if slot.Disabled || slot.CurrentPP <= 0 {
		return newError(KindChoice, "move is unusable: "+slot.ID)
	}

	moveID := slot.ID
	isZ := a.ZMove && e.canZMove(&e.players[a.Player], um)
	mv, ok := e.store.Move(moveID)
	if !ok {
		return newError(KindInternal, "unknown move in mon's moveset: "+moveID)
	}

	um.ActiveMoveID = moveID
	defer func() { um.ActiveMoveID = "" }()

	// step 1: before-move checks (paralysis, flinch, sleep, etc. veto via
	// EventBeforeMove; handlers set *veto=true and return false).
	veto := false
	e.dispatch(EventBeforeMove, user, NoMon, &veto)
	if veto {
		return nil
	}

	if !isZ {
		slot.CurrentPP--
	}
	if isZ {
		e.players[a.Player].ZMoveUsed = true
	}
	um.LastMoveID = moveID

	// step 2: target resolution.
	target := e.resolveTarget(a.Player, user, a.TargetLocation, mv.Target)
	if target == NoMon && mv.Target != data.TargetSelf {
		e.log("miss", map[string]string{"mon": monLogID(um), "reason": "no_target"})
		return nil
	}
	tm := &e.mons[target]

	// step 3: accuracy check. Accuracy 0 means "never misses".
	if mv.Accuracy > 0 {
		accNum, accDen := 1, 1
		if num, den := boostMultiplier(um.boostValue("accuracy"), true); true {
			accNum, accDen = num, den
		}
		if num, den := boostMultiplier(-tm.boostValue("evasion"), true); true {
			accNum *= num
			accDen *= den
		}
		chance := mv.Accuracy * accNum / accDen
		relay := chance
		if r, ok := e.dispatch(EventModifyAccuracy, target, user, relay).(int); ok {
			chance = r
		}
		if !e.prng.Chance(chance, 100) {
			e.log("miss", map[string]string{"mon": monLogID(um), "target": monLogID(tm)})
			return nil
		}
	}

	if mv.Category == data.CategoryStatus {
		e.log("move", map[string]string{"mon": monLogID(um), "move": moveID, "target": monLogID(tm)})
		e.dispatch(EventOnHit, target, user, nil)
		return nil
	}

	// step 4: damage calculation.
	power := mv.BasePower
	if isZ {
		power = zMovePower(mv)
	}
	attackStat, defenseStat := statsForCategory(um, tm, mv.Category)
	base := baseDamage(um.Level, power, attackStat, defenseStat)

	dmg := newDamageCalc(base, mv.Type)
	if hasType(um.Types, mv.Type) {
		dmg.multiplyBy(3, 2) // STAB
	}
	effNum, effDen := effectivenessOf(mv.Type, tm.Types)
	dmg.multiplyBy(effNum, effDen)
	if effNum == 0 {
		dmg.immune = true
	}
	dmg.crit = e.rollCritical(mv)
	if dmg.crit {
		dmg.multiplyBy(3, 2)
	}
	randNum := 85 + e.prng.Range(0, 16) // 85-100 inclusive
	dmg.multiplyBy(randNum, 100)

	e.dispatch(EventModifyDamage, target, user, dmg)

	amount := dmg.result()

	// step 5: damage application.
	if dmg.immune {
		e.log("immune", map[string]string{"target": monLogID(tm)})
	} else {
		e.applyDamage(tm, amount)
		e.logSplit(tm.PlayerHandle.sideIndex(e), "damage",
			map[string]string{"target": monLogID(tm), "health": hpField(tm)},
			map[string]string{"target": monLogID(tm), "health": percentField(tm)},
		)
	}

	// step 6: post-move effects (secondary chances, drain, recoil).
	e.dispatch(EventOnHit, target, user, nil)
	for _, onHit := range mv.OnHitEvents {
		if _, err := e.runFxFunction(target, user, "run_event", []fxlang.Value{
			fxlang.StringValue(onHit), fxlang.MonValue(int(target)),
		}); err != nil {
			e.log("fxlang_error", map[string]string{"function": onHit, "error": err.Error()})
		}
	}
	for _, sec := range mv.SecondaryEvents {
		if e.prng.Chance(sec.Chance, 100) && sec.Status != "" && tm.Status == StatusNone {
			tm.Status = Status(sec.Status)
			e.log("status", map[string]string{"mon": monLogID(tm), "status": sec.Status})
		}
	}
	if mv.RecoilRatio[1] > 0 {
		recoil := amount * mv.RecoilRatio[0] / mv.RecoilRatio[1]
		if recoil > 0 {
			e.applyDamage(um, recoil)
			e.log("recoil", map[string]string{"mon": monLogID(um), "amount": itoa(recoil)})
		}
	}
	if mv.DrainRatio[1] > 0 {
		drain := amount * mv.DrainRatio[0] / mv.DrainRatio[1]
		if drain > 0 {
			e.heal(um, drain)
			e.log("drain", map[string]string{"mon": monLogID(um), "amount": itoa(drain)})
		}
	}

	// step 7: faint check.
	if tm.CurrentHP <= 0 && !tm.Fainted {
		e.faint(tm)
	}

	e.checkWinCondition()
	return nil
}

func (e *Engine) playerMonAt(ph PlayerHandle, pos int) MonHandle {
	p := &e.players[ph]
	if pos < 0 || pos >= len(p.Active) {
		return NoMon
	}
	return p.Active[pos]
}

// resolveTarget picks the defending mon for a move: the user itself for
// self-targeting moves, otherwise the first active, non-fainted opposing
// mon (spec §4.1 item 4 "target resolution"). The requested target
// location is not consulted. Multi-
// target spreads (AllAdjacent/AllAdjacentFoes) are out of scope for the
// fixture move set this module ships (spec §1).
func (e *Engine) resolveTarget(ph PlayerHandle, user MonHandle, location int, target data.MoveTarget) MonHandle {
	switch target {
	case data.TargetSelf, data.TargetUser:
		return user
	default:
		return e.defaultOpposingTarget(ph, user)
	}
}

func (e *Engine) defaultOpposingTarget(ph PlayerHandle, user MonHandle) MonHandle {
	ownSide := ph.sideIndex(e)
	otherSide := 1 - ownSide
	for _, oph := range e.sides[otherSide].PlayerHandles {
		op := &e.players[oph]
		for _, mh := range op.Active {
			if mh != NoMon && !e.mons[mh].Fainted {
				return mh
			}
		}
	}
	return NoMon
}

func (ph PlayerHandle) sideIndex(e *Engine) int {
	return e.players[ph].SideIndex
}

func statsForCategory(attacker, defender *Mon, cat data.MoveCategory) (attack, defense int) {
	if cat == data.CategorySpecial {
		return attacker.Stats.SpAttack, defender.Stats.SpDefense
	}
	return attacker.Stats.Attack, defender.Stats.Defense
}

// rollCritical uses the classic 1/16 base crit rate; mv.CritRatio 1 raises
// it to 1/8, 2 to 1/2, and 3 or more makes every hit critical (spec §4.1
// item 4).
func (e *Engine) rollCritical(mv data.Move) bool {
	den := 16
	switch mv.CritRatio {
	case 1:
		den = 8
	case 2:
		den = 2
	default:
		if mv.CritRatio >= 3 {
			den = 1
		}
	}
	return e.prng.Chance(1, den)
}

func (e *Engine) applyDamage(m *Mon, amount int) {
	m.CurrentHP -= amount
	if m.CurrentHP < 0 {
		m.CurrentHP = 0
	}
}

func (e *Engine) heal(m *Mon, amount int) {
	m.CurrentHP += amount
	if m.CurrentHP > m.MaxHP {
		m.CurrentHP = m.MaxHP
	}
}

func (e *Engine) faint(m *Mon) {
	m.Fainted = true
	m.Active = false
	m.CurrentHP = 0
	p := &e.players[m.PlayerHandle]
	p.NonFaintedCount--
	m.NeedsSwitch = true
	e.log("faint", map[string]string{"mon": monLogID(m)})
	e.dispatch(EventOnFaint, m.Handle, NoMon, nil)
}

func hpField(m *Mon) string {
	priv, _ := healthFields(m)
	return priv
}

func percentField(m *Mon) string {
	_, pub := healthFields(m)
	return pub
}

// canZMove reports whether mon can use a Z-move this action: it must
// hold an item flagged as a Z-crystal and the player must not have used
// one yet this battle; the move itself is not checked (spec §4.2 "Z-Move",
// grounded on original_source/battler/tests/mechanics/zmove/z_move_test.rs).
func (e *Engine) canZMove(p *Player, m *Mon) bool {
	if p.ZMoveUsed {
		return false
	}
	item, ok := e.store.Item(m.ItemID)
	if !ok {
		return false
	}
	return item.Flags["zcrystal"]
}

// actionPriority resolves an action's dispatch priority: moves start from
// their move's base priority, modified by ModifyPriority handlers; every
// other action kind sorts at priority 0 within its category (spec §4.1
// item 1).
func (e *Engine) actionPriority(a Action) int {
	if a.Kind != ActionMoveKind {
		return 0
	}
	user := e.playerMonAt(a.Player, a.Position)
	if user == NoMon {
		return 0
	}
	m := &e.mons[user]
	if a.MoveSlot < 0 || a.MoveSlot >= len(m.Moves) {
		return 0
	}
	mv, ok := e.store.Move(m.Moves[a.MoveSlot].ID)
	if !ok {
		return 0
	}
	priority := mv.BasePriority
	if r, ok := e.dispatch(EventModifyPriority, user, NoMon, priority).(int); ok {
		priority = r
	}
	return priority
}

// actionSpeed resolves the acting mon's effective speed for turn-order
// sorting (spec §4.1 item 1 "Speed").
func (e *Engine) actionSpeed(a Action) int {
	var mon MonHandle
	switch a.Kind {
	case ActionMoveKind:
		mon = e.playerMonAt(a.Player, a.Position)
	case ActionSwitchKind:
		mon = a.InMon
	default:
		return 0
	}
	if mon == NoMon {
		return 0
	}
	m := &e.mons[mon]
	num, den := boostMultiplier(m.boostValue("spe"), false)
	return m.Stats.Speed * num / den
}

// runResidual dispatches end-of-turn effects (weather damage, status
// damage, field decay) to every active mon, in speed order (spec §4.1
// item 5 "Residual").
func (e *Engine) runResidual() {
	order := e.activeMonsBySpeed()
	for _, mh := range order {
		m := &e.mons[mh]
		if m.Fainted {
			continue
		}
		e.dispatch(EventOnResidual, mh, NoMon, nil)
		if m.Status == StatusPoison {
			dmg := m.MaxHP / 8
			if dmg < 1 {
				dmg = 1
			}
			e.applyDamage(m, dmg)
			e.log("damage", map[string]string{"mon": monLogID(m), "reason": "psn", "amount": itoa(dmg)})
			if m.CurrentHP <= 0 {
				e.faint(m)
			}
		}
	}
	if e.field.Weather != "" {
		e.log("weather", map[string]string{"weather": weatherDisplayName[e.field.Weather], "residual": ""})
		if e.field.WeatherTurns > 0 {
			e.field.WeatherTurns--
			if e.field.WeatherTurns == 0 {
				e.field.Weather = ""
				e.log("clearweather", nil)
			}
		}
	}
	e.checkWinCondition()
}

func (e *Engine) activeMonsBySpeed() []MonHandle {
	var handles []MonHandle
	for i := range e.mons {
		if e.mons[i].Active {
			handles = append(handles, MonHandle(i))
		}
	}
	for i := 1; i < len(handles); i++ {
		for j := i; j > 0; j-- {
			a := &e.mons[handles[j-1]]
			b := &e.mons[handles[j]]
			na, da := boostMultiplier(a.boostValue("spe"), false)
			nb, db := boostMultiplier(b.boostValue("spe"), false)
			if a.Stats.Speed*na/da < b.Stats.Speed*nb/db {
				handles[j-1], handles[j] = handles[j], handles[j-1]
			}
		}
	}
	return handles
}

// checkWinCondition ends the battle once one side has no non-fainted mon
// left, or every remaining player on a side has forfeited (spec §3
// invariant "Finished ⇒ exactly one side (or neither, on a draw) ...").
func (e *Engine) checkWinCondition() {
	if e.state == StateFinished {
		return
	}
	sideAlive := [2]bool{}
	for i := range e.sides {
		for _, ph := range e.sides[i].PlayerHandles {
			p := &e.players[ph]
			if p.Forfeited {
				continue
			}
			if p.NonFaintedCount > 0 {
				sideAlive[i] = true
			}
		}
	}
	if sideAlive[0] && sideAlive[1] {
		return
	}
	e.state = StateFinished
	switch {
	case sideAlive[0] && !sideAlive[1]:
		e.log("win", map[string]string{"side": "0"})
	case sideAlive[1] && !sideAlive[0]:
		e.log("win", map[string]string{"side": "1"})
	default:
		e.log("tie", nil)
	}
}

func (e *Engine) tieBattle() {
	e.state = StateFinished
	e.log("tie", map[string]string{"reason": "turn_limit"})
}
