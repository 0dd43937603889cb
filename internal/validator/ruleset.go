// Package validator flattens a format's rule set and checks whether a
// team is legal under it, grounded on
// original_source/battler/src/config/ruleset.rs and
// original_source/battler/src/teams/validator.rs.
package validator

// RuleSet names the clauses and numeric limits in force for a format
// (spec §3 "Format", glossary "RuleSet"). Clauses may themselves name
// other clauses; Flatten resolves that into one de-duplicated set.
type RuleSet struct {
	Clauses     []string
	MaxLevel    int // 0 means unlimited
	MaxTeamSize int // 0 means unlimited
	MinTeamSize int
	Banlist     []string // species/move/ability/item ids banned outright

	// PickedTeamSize is the number of mons a player selects out of their
	// full team during the team-preview phase. 0 disables team preview
	// entirely, matching every format spec.md's end-to-end scenarios use
	// except the team-preview one.
	PickedTeamSize int
}

// clauseExpansion is the fixed table of clause implications this module
// ships, standing in for the external rule database named in spec §1 Out
// of scope.
var clauseExpansion = map[string][]string{
	"standard":      {"species_clause", "item_clause", "sleep_clause", "ohko_clause"},
	"item_clause":   nil,
	"species_clause": nil,
	"sleep_clause":  nil,
	"ohko_clause":   nil,
}

// Flatten expands every clause in r.Clauses (recursively, de-duplicated)
// and returns the resulting flat set.
func (r RuleSet) Flatten() map[string]bool {
	out := map[string]bool{}
	var expand func(id string)
	expand = func(id string) {
		if out[id] {
			return
		}
		out[id] = true
		for _, child := range clauseExpansion[id] {
			expand(child)
		}
	}
	for _, c := range r.Clauses {
		expand(c)
	}
	return out
}

func (r RuleSet) has(clause string) bool {
	return r.Flatten()[clause]
}
