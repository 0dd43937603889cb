package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openmohaa/battler/internal/data"
)

func team(mons ...TeamMon) Team { return Team{Mons: mons} }

func TestValidateAcceptsALegalTeam(t *testing.T) {
	store := data.NewFixtureStore()
	ok, problems := Validate(team(TeamMon{
		SpeciesID: "charizard", Level: 50, Moves: []string{"tackle", "flamethrower"}, AbilityID: "blaze",
	}), RuleSet{Clauses: []string{"standard"}}, store)
	require.True(t, ok, "expected a legal team to validate, got problems: %v", problems)
}

func TestValidateRejectsUnknownSpecies(t *testing.T) {
	store := data.NewFixtureStore()
	ok, problems := Validate(team(TeamMon{SpeciesID: "missingno", Level: 50, Moves: []string{"tackle"}}), RuleSet{}, store)
	require.False(t, ok)
	require.Len(t, problems, 1)
}

func TestValidateRejectsMoveTheSpeciesCannotLearn(t *testing.T) {
	store := data.NewFixtureStore()
	ok, problems := Validate(team(TeamMon{SpeciesID: "pikachu", Level: 50, Moves: []string{"hydropump"}}), RuleSet{}, store)
	require.False(t, ok, "expected a move the species cannot learn to be rejected, got: %v", problems)
}

func TestValidateRejectsMismatchedAbility(t *testing.T) {
	store := data.NewFixtureStore()
	ok, _ := Validate(team(TeamMon{
		SpeciesID: "pikachu", Level: 50, Moves: []string{"tackle"}, AbilityID: "torrent",
	}), RuleSet{}, store)
	require.False(t, ok, "expected an ability the species cannot have to be rejected")
}

func TestValidateAccumulatesMultipleProblems(t *testing.T) {
	store := data.NewFixtureStore()
	ok, problems := Validate(team(
		TeamMon{SpeciesID: "pikachu", Level: 999, Moves: nil},
		TeamMon{SpeciesID: "unknown", Level: 50, Moves: []string{"tackle"}},
	), RuleSet{MaxLevel: 100}, store)
	require.False(t, ok)
	require.GreaterOrEqual(t, len(problems), 3, "expected problems for level, no-moves, and unknown species, got: %v", problems)
}

func TestValidateEnforcesTeamSizeBounds(t *testing.T) {
	store := data.NewFixtureStore()
	rules := RuleSet{MinTeamSize: 2, MaxTeamSize: 3}

	ok, problems := Validate(team(TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}}), rules, store)
	require.False(t, ok, "expected a below-minimum team to fail, got: %v", problems)

	full := team(
		TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}},
		TeamMon{SpeciesID: "blastoise", Level: 50, Moves: []string{"tackle"}},
		TeamMon{SpeciesID: "venusaur", Level: 50, Moves: []string{"tackle"}},
		TeamMon{SpeciesID: "pikachu", Level: 50, Moves: []string{"tackle"}},
	)
	ok, problems = Validate(full, rules, store)
	require.False(t, ok, "expected an over-maximum team to fail, got: %v", problems)
}

func TestValidateSpeciesClauseRejectsDuplicates(t *testing.T) {
	store := data.NewFixtureStore()
	rules := RuleSet{Clauses: []string{"species_clause"}}
	ok, problems := Validate(team(
		TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}},
		TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}},
	), rules, store)
	require.False(t, ok, "expected the species clause to reject a duplicate species, got: %v", problems)
}

func TestValidateItemClauseRejectsDuplicateHeldItems(t *testing.T) {
	store := data.NewFixtureStore()
	rules := RuleSet{Clauses: []string{"item_clause"}}
	ok, problems := Validate(team(
		TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}, ItemID: "normaliumz"},
		TeamMon{SpeciesID: "blastoise", Level: 50, Moves: []string{"tackle"}, ItemID: "normaliumz"},
	), rules, store)
	require.False(t, ok, "expected the item clause to reject a duplicate held item, got: %v", problems)
}

func TestValidateRejectsBannedSpecies(t *testing.T) {
	store := data.NewFixtureStore()
	rules := RuleSet{Banlist: []string{"charizard"}}
	ok, _ := Validate(team(TeamMon{SpeciesID: "charizard", Level: 50, Moves: []string{"tackle"}}), rules, store)
	require.False(t, ok)
}

func TestValidateRejectsTooManyMoves(t *testing.T) {
	store := data.NewFixtureStore()
	ok, _ := Validate(team(TeamMon{
		SpeciesID: "charizard", Level: 50,
		Moves: []string{"tackle", "flamethrower", "tackle", "flamethrower", "tackle"},
	}), RuleSet{}, store)
	require.False(t, ok)
}

func TestFlattenExpandsStandardClauseRecursively(t *testing.T) {
	rules := RuleSet{Clauses: []string{"standard"}}
	flat := rules.Flatten()
	for _, want := range []string{"standard", "species_clause", "item_clause", "sleep_clause", "ohko_clause"} {
		require.True(t, flat[want], "expected %q to be present after flattening standard, got %v", want, flat)
	}
}

func TestFlattenDeduplicatesAcrossOverlappingClauses(t *testing.T) {
	rules := RuleSet{Clauses: []string{"standard", "species_clause"}}
	require.Len(t, rules.Flatten(), 5)
}
