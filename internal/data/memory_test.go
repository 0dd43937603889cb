package data

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTripsEveryKind(t *testing.T) {
	s := NewMemoryStore()
	s.AddSpecies(Species{ID: "eevee", Name: "Eevee"})
	s.AddMove(Move{ID: "tackle", Name: "Tackle"})
	s.AddAbility(Ability{ID: "adaptability", Name: "Adaptability"})
	s.AddItem(Item{ID: "oran_berry", Name: "Oran Berry"})
	s.AddClause(Clause{ID: "standard", Name: "Standard"})

	sp, ok := s.Species("eevee")
	require.True(t, ok)
	require.Equal(t, "Eevee", sp.Name)

	mv, ok := s.Move("tackle")
	require.True(t, ok)
	require.Equal(t, "Tackle", mv.Name)

	a, ok := s.Ability("adaptability")
	require.True(t, ok)
	require.Equal(t, "Adaptability", a.Name)

	it, ok := s.Item("oran_berry")
	require.True(t, ok)
	require.Equal(t, "Oran Berry", it.Name)

	c, ok := s.Clause("standard")
	require.True(t, ok)
	require.Equal(t, "Standard", c.Name)
}

func TestMemoryStoreMissingLookupsReportNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Species("missingno")
	require.False(t, ok)
	_, ok = s.Move("missingno")
	require.False(t, ok)
}

func TestFixtureStoreHasTheDocumentedContent(t *testing.T) {
	s := NewFixtureStore()

	for _, id := range []string{"blastoise", "charizard", "venusaur", "pikachu"} {
		_, ok := s.Species(id)
		require.True(t, ok, "expected fixture species %q to be present", id)
	}
	for _, id := range []string{"tackle", "raindance", "thunderbolt", "flamethrower", "hydropump"} {
		_, ok := s.Move(id)
		require.True(t, ok, "expected fixture move %q to be present", id)
	}

	item, ok := s.Item("normaliumz")
	require.True(t, ok)
	require.True(t, item.Flags["zcrystal"])

	std, ok := s.Clause("standard")
	require.True(t, ok)
	require.Len(t, std.Includes, 2, "expected standard to include exactly item_clause and species_clause")
}
