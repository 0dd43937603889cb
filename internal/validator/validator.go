package validator

import (
	"fmt"

	"github.com/openmohaa/battler/internal/data"
)

// TeamMon is the minimal shape Validate needs for one team member;
// battle.MonData satisfies the same fields by convention, kept separate
// so this package does not import battle (battle imports this package,
// not the reverse).
type TeamMon struct {
	SpeciesID string
	Level     int
	Moves     []string
	AbilityID string
	ItemID    string
}

// Team is the input to Validate.
type Team struct {
	Mons []TeamMon
}

// Validate checks a team against a rule set, reporting every problem
// found rather than stopping at the first (spec §6.1 "new" collects
// "a list of human strings" across the whole team, not just the first
// invalid mon, grounded on
// original_source/battler/src/teams/validator.rs's accumulate-then-report
// structure).
func Validate(team Team, rules RuleSet, store data.Store) (bool, []string) {
	var problems []string

	if rules.MinTeamSize > 0 && len(team.Mons) < rules.MinTeamSize {
		problems = append(problems, fmt.Sprintf("team has %d mons, minimum is %d", len(team.Mons), rules.MinTeamSize))
	}
	if rules.MaxTeamSize > 0 && len(team.Mons) > rules.MaxTeamSize {
		problems = append(problems, fmt.Sprintf("team has %d mons, maximum is %d", len(team.Mons), rules.MaxTeamSize))
	}

	flat := rules.Flatten()
	seenSpecies := map[string]bool{}
	seenItems := map[string]bool{}

	for i, m := range team.Mons {
		species, ok := store.Species(m.SpeciesID)
		if !ok {
			problems = append(problems, fmt.Sprintf("mon %d: unknown species %q", i, m.SpeciesID))
			continue
		}

		if rules.MaxLevel > 0 && m.Level > rules.MaxLevel {
			problems = append(problems, fmt.Sprintf("mon %d: level %d exceeds max level %d", i, m.Level, rules.MaxLevel))
		}
		if m.Level < 1 {
			problems = append(problems, fmt.Sprintf("mon %d: level must be at least 1", i))
		}

		if banned(rules.Banlist, m.SpeciesID) {
			problems = append(problems, fmt.Sprintf("mon %d: species %q is banned", i, m.SpeciesID))
		}
		if m.AbilityID != "" && banned(rules.Banlist, m.AbilityID) {
			problems = append(problems, fmt.Sprintf("mon %d: ability %q is banned", i, m.AbilityID))
		}
		if m.ItemID != "" && banned(rules.Banlist, m.ItemID) {
			problems = append(problems, fmt.Sprintf("mon %d: item %q is banned", i, m.ItemID))
		}

		if flat["species_clause"] {
			if seenSpecies[m.SpeciesID] {
				problems = append(problems, fmt.Sprintf("mon %d: species %q violates the species clause", i, m.SpeciesID))
			}
			seenSpecies[m.SpeciesID] = true
		}
		if flat["item_clause"] && m.ItemID != "" {
			if seenItems[m.ItemID] {
				problems = append(problems, fmt.Sprintf("mon %d: item %q violates the item clause", i, m.ItemID))
			}
			seenItems[m.ItemID] = true
		}

		if m.AbilityID != "" {
			validAbility := false
			for _, a := range species.Abilities {
				if a == m.AbilityID {
					validAbility = true
					break
				}
			}
			if !validAbility {
				problems = append(problems, fmt.Sprintf("mon %d: %q cannot have ability %q", i, m.SpeciesID, m.AbilityID))
			}
		}

		if len(m.Moves) == 0 {
			problems = append(problems, fmt.Sprintf("mon %d: must know at least one move", i))
		}
		if len(m.Moves) > 4 {
			problems = append(problems, fmt.Sprintf("mon %d: cannot know more than 4 moves", i))
		}
		for _, moveID := range m.Moves {
			if _, ok := store.Move(moveID); !ok {
				problems = append(problems, fmt.Sprintf("mon %d: unknown move %q", i, moveID))
				continue
			}
			if species.LearnableMoves != nil && !species.LearnableMoves[moveID] {
				problems = append(problems, fmt.Sprintf("mon %d: %q cannot learn %q", i, m.SpeciesID, moveID))
			}
		}
	}

	return len(problems) == 0, problems
}

func banned(list []string, id string) bool {
	for _, b := range list {
		if b == id {
			return true
		}
	}
	return false
}
