package battle

// damageCalc accumulates the damage multiplier chain for one hit. runMove
// applies STAB, type effectiveness, critical and the random factor, then
// effect-supplied multipliers (such as weather) through ModifyDamage; no
// spread multiplier is applied. Multipliers are tracked as rational numbers
// and only collapsed to an integer once, at the end, so their order does
// not change the result and no rounding error compounds across steps
// (supplemented from
// original_source/battler/tests/moves/gen1/singles_damage_calculation_test.rs,
// which asserts the final integer result rather than intermediate
// roundings).
type damageCalc struct {
	base     int
	numer    int
	denom    int
	moveType string
	crit     bool
	immune   bool
}

func newDamageCalc(base int, moveType string) *damageCalc {
	return &damageCalc{base: base, numer: 1, denom: 1, moveType: moveType}
}

func (d *damageCalc) multiplyBy(num, den int) {
	if den == 0 {
		return
	}
	d.numer *= num
	d.denom *= den
}

func (d *damageCalc) result() int {
	if d.immune {
		return 0
	}
	v := d.base * d.numer / d.denom
	if v < 1 {
		v = 1
	}
	return v
}

// baseDamage implements the formula in spec §4.1 item 4:
//
//	damage = floor(floor(floor(2*level/5 + 2) * power * attack / defense) / 50) + 2
func baseDamage(level, power, attack, defense int) int {
	step1 := (2*level)/5 + 2
	step2 := step1 * power * attack / defense
	return step2/50 + 2
}

// typeChart is a minimal same-type-effectiveness table sufficient for this
// module's fixture species/moves (spec §1: the full type chart's content
// is out of scope). 2 = super effective, 1 = neutral, 0 = no effect,
// represented as a (num,den) multiplier below via effectivenessOf.
var typeChart = map[string]map[string]int{
	"water": {"fire": 2, "water": 1, "grass": 0, "flying": 1},
	"fire":  {"water": 0, "fire": 1, "grass": 2, "flying": 1},
	"grass": {"water": 2, "fire": 0, "flying": 0, "grass": 1, "poison": 1},
	"electric": {"water": 2, "flying": 2, "electric": 1, "grass": 1},
	"normal": {"water": 1, "fire": 1, "grass": 1, "flying": 1, "electric": 1},
}

// effectivenessOf multiplies the per-defending-type effectiveness; a 0 on
// any defending type makes the move fail outright (spec §4.1 item 4: "a
// single 0x makes the move fail with immune").
func effectivenessOf(moveType string, defenderTypes []string) (num, den int) {
	num, den = 1, 1
	row := typeChart[moveType]
	for _, dt := range defenderTypes {
		mult, ok := row[dt]
		if !ok {
			continue
		}
		switch mult {
		case 0:
			return 0, 1
		case 2:
			num *= 2
		case 1:
			// neutral, no-op
		default:
			den *= 2 // not-very-effective entries use -1; unused by fixtures
		}
	}
	return num, den
}

func hasType(types []string, t string) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
