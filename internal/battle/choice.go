package battle

import (
	"strconv"
	"strings"
)

// parseChoice parses a ";"-separated choice string into Actions, per the
// command language in spec §6.2. Parsing errors are returned synchronously
// without mutating any state, matching "the engine's state is unchanged."
func parseChoice(player *Player, input string) ([]Action, *Error) {
	parts := strings.Split(input, ";")
	actions := make([]Action, 0, len(parts))

	for slotIdx, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return nil, newError(KindChoice, "empty action in choice string")
		}

		fields := splitTopLevel(part)
		verb := strings.ToLower(fields[0])

		switch verb {
		case "team":
			indices := strings.Fields(strings.Join(fields[1:], " "))
			if len(indices) == 0 {
				return nil, newError(KindChoice, "team requires at least one index")
			}
			for i, raw := range indices {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return nil, newError(KindChoice, "invalid team index: "+raw)
				}
				actions = append(actions, Action{
					Kind: ActionTeamKind, Player: player.Handle,
					TeamIndex: n, TeamPriority: i,
				})
			}

		case "switch":
			if len(fields) < 2 {
				return nil, newError(KindChoice, "switch requires a team index")
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, newError(KindChoice, "invalid switch index: "+fields[1])
			}
			if n < 0 || n >= len(player.Team) {
				return nil, newError(KindChoice, "switch index out of range")
			}
			actions = append(actions, Action{
				Kind: ActionSwitchKind, Player: player.Handle,
				InMon: player.Team[n], Position: slotIdx,
			})

		case "move":
			if len(fields) < 2 {
				return nil, newError(KindChoice, "move requires a slot index")
			}
			slot, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, newError(KindChoice, "invalid move slot: "+fields[1])
			}
			a := Action{
				Kind: ActionMoveKind, Player: player.Handle,
				MoveSlot: slot, TargetLocation: 0, Position: slotIdx,
			}
			for _, opt := range fields[2:] {
				opt = strings.TrimSpace(opt)
				switch {
				case opt == "mega":
					a.Mega = true
				case opt == "zmove":
					a.ZMove = true
				default:
					t, err := strconv.Atoi(opt)
					if err != nil {
						return nil, newError(KindChoice, "invalid move target: "+opt)
					}
					a.TargetLocation = t
				}
			}
			actions = append(actions, a)

		case "forfeit":
			actions = append(actions, Action{Kind: ActionPassKind, Player: player.Handle, Position: slotIdx})
			return actions, nil

		case "pass":
			actions = append(actions, Action{Kind: ActionPassKind, Player: player.Handle, Position: slotIdx})

		default:
			return nil, newError(KindChoice, "unrecognized choice verb: "+verb)
		}
	}

	return actions, nil
}

// splitTopLevel splits "move 1, 2, mega" into ["move", "1", "2", "mega"].
func splitTopLevel(s string) []string {
	head, rest, found := strings.Cut(s, " ")
	if !found {
		return []string{head}
	}
	fields := []string{head}
	for _, piece := range strings.Split(rest, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			fields = append(fields, piece)
		}
	}
	return fields
}

// isForfeit reports whether raw names the forfeit verb, used by the engine
// to short-circuit a forfeiting player out of the request cycle.
func isForfeit(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "forfeit")
}
