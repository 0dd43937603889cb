package battle

// registerBuiltinEffects installs the native (non-fxlang) handler tables
// for weather, abilities, and statuses this module ships. Content beyond
// what the end-to-end scenarios in spec §8 require is out of scope (spec
// §1): there is no attempt here to model the full move/ability roster, only
// the representative handlers that exercise the event-dispatch pipeline
// (spec §4.1) faithfully.
func (e *Engine) registerBuiltinEffects() {
	e.weatherEffects = map[string]*Effect{}
	e.terrainEffects = map[string]*Effect{}
	e.abilityEffects = map[string]*Effect{}
	e.itemEffects = map[string]*Effect{}
	e.statusEffects = map[string]*Effect{}
	e.volatileEffects = map[string]*Effect{}
	e.sideConditionEffects = map[string]*Effect{}
	e.moveEffects = map[string]*Effect{}

	rain := newEffect("raindance")
	rain.on(EventModifyDamage, 0, func(ec *EventContext) bool {
		dmg, ok := ec.Relay.(*damageCalc)
		if !ok {
			return true
		}
		if ec.Engine.hasWeatherSuppressor(ec.Target) || ec.Engine.hasWeatherSuppressor(ec.Source) {
			return true
		}
		switch dmg.moveType {
		case "water":
			dmg.multiplyBy(3, 2)
		case "fire":
			dmg.multiplyBy(1, 2)
		}
		return true
	})
	rain.on(EventOnResidual, 0, func(ec *EventContext) bool { return true })
	e.weatherEffects["raindance"] = rain

	rainMove := newEffect("raindance")
	rainMove.on(EventOnHit, 0, func(ec *EventContext) bool {
		ec.Engine.setWeather("raindance", 5)
		return true
	})
	e.moveEffects["raindance"] = rainMove

	paralysis := newEffect("par")
	paralysis.on(EventBeforeMove, 0, func(ec *EventContext) bool {
		m := &ec.Engine.mons[ec.Target]
		if ec.Engine.prng.Chance(1, 4) {
			ec.Engine.log("cant", map[string]string{"mon": monLogID(m), "reason": "par"})
			if veto, ok := ec.Relay.(*bool); ok {
				*veto = true
			}
			return false
		}
		return true
	})
	e.statusEffects["par"] = paralysis

	// Abilities are registered as named effects with empty handler tables
	// by default; specific fixture abilities (Torrent/Blaze/Overgrow/
	// Static) have no mechanical effect in this module's fixture set, only
	// presence, matching the "named only by interface" stance on content.
	for _, id := range []string{"torrent", "blaze", "overgrow", "static"} {
		e.abilityEffects[id] = newEffect(id)
	}
}

// hasWeatherSuppressor reports whether mon carries an ability/item that
// suppresses weather (spec §4.1 item 4: "disabled by Air Lock/Utility
// Umbrella"). None of the fixture abilities do; this hook exists so a
// future ability definition has somewhere to plug in without touching the
// damage pipeline.
func (e *Engine) hasWeatherSuppressor(mon MonHandle) bool {
	if mon == NoMon {
		return false
	}
	m := &e.mons[mon]
	return m.AbilityID == "airlock" || m.ItemID == "utilityumbrella"
}

// weatherDisplayName maps a weather effect id to its log display name
// (spec §8 scenario 1: "weather|weather:Rain").
var weatherDisplayName = map[string]string{
	"raindance": "Rain",
}

// setWeather installs field-wide weather for duration turns and logs its
// start (spec §4.1 item 4 "weather multiplier"; spec §8 scenario 1).
func (e *Engine) setWeather(id string, duration int) {
	e.field.Weather = id
	e.field.WeatherTurns = duration
	e.log("weather", map[string]string{"weather": weatherDisplayName[id]})
}
