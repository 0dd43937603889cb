package data

// NewFixtureStore returns a MemoryStore populated with just enough content
// to run this module's end-to-end scenarios (spec §8): Blastoise vs
// Charizard for the Rain Dance and damage-range scenarios, a level-100
// Venusaur/Charizard pair for the Tackle damage-range scenario, and a
// Z-crystal-holding Pikachu for the once-per-battle Z-move scenario. The
// full species/move/ability/item content database is out of scope (spec
// §1); this is a fixture, not a Pokédex.
func NewFixtureStore() *MemoryStore {
	s := NewMemoryStore()

	s.AddSpecies(Species{
		ID: "blastoise", Name: "Blastoise", Types: []string{"water"},
		BaseStats: StatTable{HP: 79, Attack: 83, Defense: 100, SpAttack: 85, SpDefense: 105, Speed: 78},
		Abilities: []string{"torrent"},
		LearnableMoves: map[string]bool{"tackle": true, "raindance": true, "hydropump": true},
	})
	s.AddSpecies(Species{
		ID: "charizard", Name: "Charizard", Types: []string{"fire", "flying"},
		BaseStats: StatTable{HP: 78, Attack: 84, Defense: 78, SpAttack: 109, SpDefense: 85, Speed: 100},
		Abilities: []string{"blaze"},
		LearnableMoves: map[string]bool{"tackle": true, "flamethrower": true},
	})
	s.AddSpecies(Species{
		ID: "venusaur", Name: "Venusaur", Types: []string{"grass", "poison"},
		BaseStats: StatTable{HP: 80, Attack: 82, Defense: 83, SpAttack: 100, SpDefense: 100, Speed: 80},
		Abilities: []string{"overgrow"},
		LearnableMoves: map[string]bool{"tackle": true},
	})
	s.AddSpecies(Species{
		ID: "pikachu", Name: "Pikachu", Types: []string{"electric"},
		BaseStats: StatTable{HP: 35, Attack: 55, Defense: 40, SpAttack: 50, SpDefense: 50, Speed: 90},
		Abilities: []string{"static"},
		LearnableMoves: map[string]bool{"thunderbolt": true, "tackle": true},
	})

	s.AddMove(Move{
		ID: "tackle", Name: "Tackle", Type: "normal", Category: CategoryPhysical,
		BasePower: 40, Accuracy: 100, PP: 35, Target: TargetNormal,
		Flags: map[string]bool{"contact": true},
	})
	s.AddMove(Move{
		ID: "raindance", Name: "Rain Dance", Type: "water", Category: CategoryStatus,
		Accuracy: 0, PP: 5, Target: TargetSelf,
	})
	s.AddMove(Move{
		ID: "thunderbolt", Name: "Thunderbolt", Type: "electric", Category: CategorySpecial,
		BasePower: 90, Accuracy: 100, PP: 15, Target: TargetNormal,
		IsZPowered: true,
		SecondaryEvents: []Secondary{{Chance: 10, Status: "par"}},
	})
	s.AddMove(Move{
		ID: "flamethrower", Name: "Flamethrower", Type: "fire", Category: CategorySpecial,
		BasePower: 90, Accuracy: 100, PP: 15, Target: TargetNormal,
	})
	s.AddMove(Move{
		ID: "hydropump", Name: "Hydro Pump", Type: "water", Category: CategorySpecial,
		BasePower: 110, Accuracy: 80, PP: 5, Target: TargetNormal,
	})

	s.AddAbility(Ability{ID: "torrent", Name: "Torrent"})
	s.AddAbility(Ability{ID: "blaze", Name: "Blaze"})
	s.AddAbility(Ability{ID: "overgrow", Name: "Overgrow"})
	s.AddAbility(Ability{ID: "static", Name: "Static"})

	s.AddItem(Item{ID: "normaliumz", Name: "Normalium Z", Flags: map[string]bool{"zcrystal": true}})

	s.AddClause(Clause{ID: "standard", Name: "Standard", Includes: []string{"item_clause", "species_clause"}})
	s.AddClause(Clause{ID: "item_clause", Name: "Item Clause"})
	s.AddClause(Clause{ID: "species_clause", Name: "Species Clause"})

	return s
}
