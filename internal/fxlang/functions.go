package fxlang

import (
	"errors"
	"fmt"
)

var errRecursionLimit = errors.New("fxlang: recursion depth limit reached")

// RunFunction is the single entry point effect programs call through,
// mirroring original_source/battler/src/effect/fxlang/functions.rs's
// run_function match statement. Only the subset of functions this
// module's effects actually call (spec §1 scope) are implemented; an
// unrecognized name is a program error, not an engine bug.
func RunFunction(ctx *Context, name string, args []Value) (Value, error) {
	if ctx.Depth > maxDepth {
		return Nil(), errRecursionLimit
	}

	switch name {
	case "damage":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		amount, err := args[1].AsInt()
		if err != nil {
			return Nil(), err
		}
		return Nil(), ctx.Host.Damage(target, amount)

	case "heal":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		amount, err := args[1].AsInt()
		if err != nil {
			return Nil(), err
		}
		return Nil(), ctx.Host.Heal(target, amount)

	case "set_status":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		status, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		ok, err := ctx.Host.SetStatus(target, status)
		return BoolValue(ok), err

	case "cure_status":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		return Nil(), ctx.Host.CureStatus(target)

	case "add_volatile":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		id, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		ok, err := ctx.Host.AddVolatile(target, id)
		return BoolValue(ok), err

	case "remove_volatile":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		id, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		ok, err := ctx.Host.RemoveVolatile(target, id)
		return BoolValue(ok), err

	case "has_volatile":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		id, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.HasVolatile(target, id)), nil

	case "set_boost":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		stat, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		stages, err := args[2].AsInt()
		if err != nil {
			return Nil(), err
		}
		applied, err := ctx.Host.SetBoost(target, stat, stages)
		return IntValue(applied), err

	case "get_boost":
		target, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		stat, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		return IntValue(ctx.Host.GetBoost(target, stat)), nil

	case "run_event":
		event, err := args[0].AsString()
		if err != nil {
			return Nil(), err
		}
		target, err := args[1].AsMon()
		if err != nil {
			return Nil(), err
		}
		relay := 0
		if len(args) > 2 {
			relay, _ = args[2].AsInt()
		}
		child := ctx.child()
		if child.Depth > maxDepth {
			return Nil(), errRecursionLimit
		}
		return IntValue(ctx.Host.RunEvent(event, target, relay)), nil

	case "run_event_on_move":
		event, err := args[0].AsString()
		if err != nil {
			return Nil(), err
		}
		user, err := args[1].AsMon()
		if err != nil {
			return Nil(), err
		}
		child := ctx.child()
		if child.Depth > maxDepth {
			return Nil(), errRecursionLimit
		}
		return Nil(), ctx.Host.RunEventOnMove(event, user)

	case "random":
		lo, hi := 0, 0
		if len(args) == 1 {
			hi, _ = args[0].AsInt()
		} else if len(args) >= 2 {
			lo, _ = args[0].AsInt()
			hi, _ = args[1].AsInt()
		}
		return IntValue(ctx.Host.Random(lo, hi)), nil

	case "chance":
		num, err := args[0].AsInt()
		if err != nil {
			return Nil(), err
		}
		den, err := args[1].AsInt()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.Chance(num, den)), nil

	case "log":
		title, err := args[0].AsString()
		if err != nil {
			return Nil(), err
		}
		fields := map[string]string{}
		for i := 1; i+1 < len(args); i += 2 {
			k, _ := args[i].AsString()
			v, _ := args[i+1].AsString()
			fields[k] = v
		}
		ctx.Host.Log(title, fields)
		return Nil(), nil

	case "calculate_damage":
		user, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		target, err := args[1].AsMon()
		if err != nil {
			return Nil(), err
		}
		power, err := args[2].AsInt()
		if err != nil {
			return Nil(), err
		}
		dmg, err := ctx.Host.CalculateDamage(user, target, power)
		return IntValue(dmg), err

	case "calculate_confusion_damage":
		user, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		dmg, err := ctx.Host.CalculateConfusionDamage(user)
		return IntValue(dmg), err

	case "mon_in_position":
		side, err := args[0].AsInt()
		if err != nil {
			return Nil(), err
		}
		pos, err := args[1].AsInt()
		if err != nil {
			return Nil(), err
		}
		h, ok := ctx.Host.MonInPosition(side, pos)
		if !ok {
			return Nil(), nil
		}
		return MonValue(h), nil

	case "has_ability":
		mon, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		id, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.HasAbility(mon, id)), nil

	case "has_type":
		mon, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		t, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.HasType(mon, t)), nil

	case "is_ally":
		a, err := args[0].AsMon()
		if err != nil {
			return Nil(), err
		}
		b, err := args[1].AsMon()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.IsAlly(a, b)), nil

	case "move_has_flag":
		moveID, err := args[0].AsString()
		if err != nil {
			return Nil(), err
		}
		flag, err := args[1].AsString()
		if err != nil {
			return Nil(), err
		}
		return BoolValue(ctx.Host.MoveHasFlag(moveID, flag)), nil

	default:
		return Nil(), fmt.Errorf("fxlang: undefined function: %s", name)
	}
}
