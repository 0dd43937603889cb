package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmohaa/battler/internal/battle"
	"github.com/openmohaa/battler/internal/data"
	"github.com/openmohaa/battler/internal/metrics"
)

func tackleOnlyTeam(speciesID string) []battle.MonData {
	return []battle.MonData{{SpeciesID: speciesID, Level: 50, Moves: []string{"tackle"}}}
}

func newTestService(t *testing.T, timeouts Timeouts) *Service {
	t.Helper()
	store := data.NewFixtureStore()
	m := metrics.New(prometheus.NewRegistry())
	return NewWithAuthorizer(zap.NewNop(), store, m, timeouts, SameIdentityAuthorizer)
}

func createOpts() battle.Options {
	return battle.Options{
		Format: battle.Format{Type: battle.Singles},
		Side1:  battle.SideData{Name: "Side1", Players: []battle.PlayerData{{ID: "p1", Type: battle.Trainer, Team: tackleOnlyTeam("charizard")}}},
		Side2:  battle.SideData{Name: "Side2", Players: []battle.PlayerData{{ID: "p2", Type: battle.Trainer, Team: tackleOnlyTeam("blastoise")}}},
	}
}

func TestCreateBattleRequiresCallerToOwnAPlayerSlot(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	_, err := svc.CreateBattle("someone-else", createOpts(), battle.EngineOptions{})
	require.NotNil(t, err, "expected an unauthorized caller to be rejected")
	require.Equal(t, battle.KindUnauthorized, err.Kind)
}

func TestCreateBattleAndFetchView(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)
	require.Equal(t, 1, svc.ActiveBattleCount())

	view, err := svc.Battle(id)
	require.Nil(t, err)
	require.Equal(t, battle.StateActive, view.State)
}

func TestSetPlayerChoiceRejectsWrongCaller(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	setErr := svc.SetPlayerChoice(context.Background(), id, "p2", "p1", "move 0")
	require.NotNil(t, setErr, "expected an impersonation attempt to be rejected")
	require.Equal(t, battle.KindUnauthorized, setErr.Kind)
}

func TestSetPlayerChoiceForfeitFinishesBattle(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	require.Nil(t, svc.SetPlayerChoice(context.Background(), id, "p1", "p1", "forfeit"))
	require.Equal(t, 0, svc.ActiveBattleCount(), "expected the finished battle to be removed from the active set")

	_, getErr := svc.Battle(id)
	require.NotNil(t, getErr)
	require.Equal(t, battle.KindNotFound, getErr.Kind)
}

func TestUpdateTeamAndValidatePlayer(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", battle.Options{
		Format: battle.Format{Type: battle.Singles},
		Side1:  battle.SideData{Players: []battle.PlayerData{{ID: "p1", Type: battle.Trainer, Team: tackleOnlyTeam("charizard")}}},
		Side2:  battle.SideData{Players: []battle.PlayerData{{ID: "p2", Type: battle.Trainer, Team: tackleOnlyTeam("blastoise")}}},
	}, battle.EngineOptions{})
	require.Nil(t, err)

	// The battle has already started, so UpdateTeam must be rejected.
	require.NotNil(t, svc.UpdateTeam(id, "p1", "p1", tackleOnlyTeam("venusaur")))

	problems, valErr := svc.ValidatePlayer(id, "p1")
	require.Nil(t, valErr)
	require.Empty(t, problems)
}

func TestBattlesForPlayerFiltersByParticipant(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	mine := svc.BattlesForPlayer("p1", 10, 0)
	require.Len(t, mine, 1)
	require.Equal(t, id, mine[0].ID)

	require.Empty(t, svc.BattlesForPlayer("someone-not-in-this-battle", 10, 0))
}

func TestDeleteRequiresFinishedAndParticipant(t *testing.T) {
	svc := newTestService(t, Timeouts{})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	unauthorized := svc.Delete(id, "someone-else")
	require.NotNil(t, unauthorized)
	require.Equal(t, battle.KindUnauthorized, unauthorized.Kind)

	notFinished := svc.Delete(id, "p1")
	require.NotNil(t, notFinished)
	require.Equal(t, battle.KindLifecycleViolation, notFinished.Kind)

	require.Nil(t, svc.SetPlayerChoice(context.Background(), id, "p1", "p1", "forfeit"))
	require.Nil(t, svc.Delete(id, "p1"))
}

func TestActionTimerFillsRandomChoicesOnExpiry(t *testing.T) {
	svc := newTestService(t, Timeouts{Action: 20 * time.Millisecond})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		log, err := svc.FullLog(id, nil)
		return err == nil && len(log) > 0
	}, 2*time.Second, 10*time.Millisecond, "expected the action timer to resolve a turn")
}

func TestPlayerTimerForcesForfeit(t *testing.T) {
	svc := newTestService(t, Timeouts{Player: 20 * time.Millisecond})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		return svc.ActiveBattleCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "expected the player timer to force a forfeit")

	_, getErr := svc.Battle(id)
	require.NotNil(t, getErr)
	require.Equal(t, battle.KindNotFound, getErr.Kind)
}

func TestBattleTimerTiesTheBattle(t *testing.T) {
	svc := newTestService(t, Timeouts{Battle: 20 * time.Millisecond})
	id, err := svc.CreateBattle("p1", createOpts(), battle.EngineOptions{})
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		return svc.ActiveBattleCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "expected the battle timer to tie the battle")

	_, getErr := svc.Battle(id)
	require.NotNil(t, getErr)
	require.Equal(t, battle.KindNotFound, getErr.Kind)
}
