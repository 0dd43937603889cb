package battle

import "github.com/openmohaa/battler/internal/data"

// zMovePower derives a Z-move's base power from its source move, per the
// classic base-power breakpoints (spec §4.2 "Z-Move", grounded on
// original_source/battler/tests/mechanics/zmove/z_move_test.rs, which
// exercises exactly this power table end to end). Status moves have no
// damage-power Z-boost; they keep their own effect instead (out of scope
// beyond the damaging case, spec §1).
func zMovePower(mv data.Move) int {
	if mv.Category == data.CategoryStatus {
		return mv.BasePower
	}
	switch {
	case mv.BasePower == 0:
		return 100
	case mv.BasePower < 56:
		return 100
	case mv.BasePower < 66:
		return 120
	case mv.BasePower < 76:
		return 140
	case mv.BasePower < 86:
		return 160
	case mv.BasePower < 96:
		return 175
	case mv.BasePower < 101:
		return 180
	case mv.BasePower < 111:
		return 185
	case mv.BasePower < 121:
		return 190
	case mv.BasePower < 131:
		return 195
	default:
		return 200
	}
}
