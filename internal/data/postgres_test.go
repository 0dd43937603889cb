package data

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// mockRow and mockPgPool mirror the teacher's handlers_test.go fake-database
// pattern: a function field per call site, standing in for a live pgxpool.Pool.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFunc != nil {
		return r.scanFunc(dest...)
	}
	return nil
}

type mockPgPool struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *mockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.queryRowFunc(ctx, sql, args...)
}

func TestPostgresStoreSpeciesScansEveryColumn(t *testing.T) {
	pool := &mockPgPool{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*dest[0].(*string) = "charizard"
				*dest[1].(*string) = "Charizard"
				*dest[2].(*string) = "fire,flying"
				*dest[3].(*int) = 78
				*dest[4].(*int) = 84
				*dest[5].(*int) = 78
				*dest[6].(*int) = 109
				*dest[7].(*int) = 85
				*dest[8].(*int) = 100
				return nil
			}}
		},
	}
	store := NewPostgresStore(pool, "battler")

	sp, ok := store.Species("charizard")
	require.True(t, ok)
	require.Equal(t, "Charizard", sp.Name)
	require.Equal(t, []string{"fire", "flying"}, sp.Types)
	require.Equal(t, 109, sp.BaseStats.SpAttack)
}

func TestPostgresStoreMissingRowReportsNotFound(t *testing.T) {
	pool := &mockPgPool{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error { return errors.New("no rows") }}
		},
	}
	store := NewPostgresStore(pool, "battler")

	_, ok := store.Species("missingno")
	require.False(t, ok)
}

func TestPostgresStoreDefaultsTableName(t *testing.T) {
	var gotSQL string
	pool := &mockPgPool{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			gotSQL = sql
			return &mockRow{scanFunc: func(dest ...any) error { return errors.New("no rows") }}
		},
	}
	store := NewPostgresStore(pool, "")
	store.Move("tackle")
	require.NotEmpty(t, gotSQL)
	require.Contains(t, gotSQL, "battler_moves")
}

func TestSplitCSVHandlesEmptyAndTrailingCommas(t *testing.T) {
	require.Nil(t, splitCSV(""))
	require.Equal(t, []string{"a", "b", "c"}, splitCSV("a,b,c"))
	require.Equal(t, []string{"a", "b"}, splitCSV("a,b,"))
}
