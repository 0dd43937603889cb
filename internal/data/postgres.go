package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgPool narrows *pgxpool.Pool to the one operation the store needs,
// exactly the way the teacher's internal/logic.PgPool interface narrows
// its database dependency for testability without a live database:
// *pgxpool.Pool.QueryRow already has this exact signature, so it satisfies
// PgPool with no adapter; tests substitute a hand-rolled fake the same way
// the teacher's handlers_test.go fakes its database dependency.
type PgPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore backs Store with a Postgres table of definitions, for a
// deployment that wants species/move/ability/item data hot-reloadable
// without a binary rebuild. Only reads: this module's Non-goals exclude
// persisting battle history, so nothing here ever writes.
type PostgresStore struct {
	pool   PgPool
	table  string // base table name prefix, e.g. "battler"
}

// NewPostgresStore wraps an existing connection pool. table is the schema
// prefix under which the species/moves/abilities/items/clauses tables live.
func NewPostgresStore(pool PgPool, table string) *PostgresStore {
	if table == "" {
		table = "battler"
	}
	return &PostgresStore{pool: pool, table: table}
}

func (p *PostgresStore) Species(id string) (Species, bool) {
	var s Species
	row := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT id, name, types, hp, attack, defense, sp_attack, sp_defense, speed FROM %s_species WHERE id = $1", p.table),
		id)
	var types string
	if err := row.Scan(&s.ID, &s.Name, &types, &s.BaseStats.HP, &s.BaseStats.Attack,
		&s.BaseStats.Defense, &s.BaseStats.SpAttack, &s.BaseStats.SpDefense, &s.BaseStats.Speed); err != nil {
		return Species{}, false
	}
	s.Types = splitCSV(types)
	return s, true
}

func (p *PostgresStore) Move(id string) (Move, bool) {
	var mv Move
	row := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT id, name, type, category, base_power, accuracy, base_priority, pp, target FROM %s_moves WHERE id = $1", p.table),
		id)
	if err := row.Scan(&mv.ID, &mv.Name, &mv.Type, &mv.Category, &mv.BasePower, &mv.Accuracy, &mv.BasePriority, &mv.PP, &mv.Target); err != nil {
		return Move{}, false
	}
	return mv, true
}

func (p *PostgresStore) Ability(id string) (Ability, bool) {
	var a Ability
	row := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT id, name FROM %s_abilities WHERE id = $1", p.table), id)
	if err := row.Scan(&a.ID, &a.Name); err != nil {
		return Ability{}, false
	}
	return a, true
}

func (p *PostgresStore) Item(id string) (Item, bool) {
	var it Item
	row := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT id, name FROM %s_items WHERE id = $1", p.table), id)
	if err := row.Scan(&it.ID, &it.Name); err != nil {
		return Item{}, false
	}
	return it, true
}

func (p *PostgresStore) Clause(id string) (Clause, bool) {
	var c Clause
	var includes string
	row := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT id, name, includes FROM %s_clauses WHERE id = $1", p.table), id)
	if err := row.Scan(&c.ID, &c.Name, &includes); err != nil {
		return Clause{}, false
	}
	c.Includes = splitCSV(includes)
	return c, true
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
