// Package service implements the Battle Service: a concurrent registry
// of battles, each guarded by its own mutex, exposed over WAMP RPCs and
// a Pub/Sub log stream (spec §5 "Battle Service"). It is the concurrency
// boundary between the single-threaded battle engine and the many
// goroutines (one reader per connected session) that drive it.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmohaa/battler/internal/battle"
	"github.com/openmohaa/battler/internal/data"
	"github.com/openmohaa/battler/internal/metrics"
)

// guardedBattle pairs one Engine with the mutex that serializes every
// operation against it (spec §5: "one mutex per battle"), plus the three
// independent timers spec §5 names (action, player, battle).
type guardedBattle struct {
	mu     sync.Mutex
	engine *battle.Engine

	actionTimer  *time.Timer
	playerTimers map[string]*time.Timer
	battleTimer  *time.Timer
	lastTurn     int
}

// Timeouts bundles the three independent timer durations spec §5 names.
// A zero duration disables the corresponding timer.
type Timeouts struct {
	// Action fires when no player has answered an outstanding request in
	// time; it injects random legal choices and continues (spec §5).
	Action time.Duration
	// Player fires per-player and forces that one player to forfeit.
	Player time.Duration
	// Battle is an overall cap; on expiry the battle ties.
	Battle time.Duration
}

// Service owns every in-flight battle, keyed by UUID (spec §5).
type Service struct {
	log        *zap.Logger
	store      data.Store
	metrics    *metrics.Metrics
	authorizer Authorizer

	timeouts Timeouts

	mu      sync.RWMutex
	battles map[uuid.UUID]*guardedBattle
}

// New builds an empty Service using the default same-identity authorizer.
// Use NewWithAuthorizer to install a different one.
func New(log *zap.Logger, store data.Store, m *metrics.Metrics, turnTimeout time.Duration) *Service {
	return NewWithAuthorizer(log, store, m, Timeouts{Action: turnTimeout}, SameIdentityAuthorizer)
}

// NewWithAuthorizer builds an empty Service with a caller-supplied
// Authorizer and the full set of per-battle timers (spec §5, §6.4).
func NewWithAuthorizer(log *zap.Logger, store data.Store, m *metrics.Metrics, timeouts Timeouts, authz Authorizer) *Service {
	if authz == nil {
		authz = SameIdentityAuthorizer
	}
	return &Service{
		log:        log,
		store:      store,
		metrics:    m,
		authorizer: authz,
		timeouts:   timeouts,
		battles:    map[uuid.UUID]*guardedBattle{},
	}
}

// CreateBattle constructs and starts a new battle, continuing it to its
// first request when Start alone does not, and returns its id.
// callerID is checked against every player id in opts: spec §6.4 names
// create as "authorized by a pluggable Authorizer" and every player-scoped
// operation trusts only the session's own identity for itself, so a caller
// may create a battle on behalf of players it is authorized to act as (in
// the default policy, only itself — a lobby/matchmaking Authorizer would
// relax this for a service account).
func (s *Service) CreateBattle(callerID string, opts battle.Options, engineOpts battle.EngineOptions) (uuid.UUID, *battle.Error) {
	for _, side := range []battle.SideData{opts.Side1, opts.Side2} {
		for _, pd := range side.Players {
			if pd.Type == battle.Trainer {
				if err := s.authorizer.Authorize(callerID, pd.ID); err != nil {
					return uuid.UUID{}, err
				}
			}
		}
	}

	engine, err := battle.New(opts, s.store, engineOpts)
	if err != nil {
		return uuid.UUID{}, err
	}
	if err := engine.Start(); err != nil {
		return uuid.UUID{}, err
	}
	if !engine.Ended() && engine.ReadyToContinue() {
		if err := engine.ContinueBattle(); err != nil {
			return uuid.UUID{}, err
		}
	}

	gb := &guardedBattle{engine: engine, playerTimers: map[string]*time.Timer{}}
	s.mu.Lock()
	s.battles[engine.ID] = gb
	s.mu.Unlock()

	s.metrics.BattlesActive.Inc()
	s.metrics.BattlesStarted.Inc()
	s.log.Info("battle created", zap.String("battle_id", engine.ID.String()))

	s.armActionTimer(engine.ID, gb)
	s.armBattleTimer(engine.ID, gb)
	s.armOutstandingPlayerTimers(engine.ID, gb)
	return engine.ID, nil
}

// armOutstandingPlayerTimers (re)arms the per-player timer for every
// trainer-controlled player whose request is still unfulfilled, called
// whenever a new request round begins: battle creation, a successful
// choice that advances the turn, and action-timer expiry.
func (s *Service) armOutstandingPlayerTimers(id uuid.UUID, gb *guardedBattle) {
	for _, playerID := range gb.engine.OutstandingPlayerIDs() {
		s.armPlayerTimer(id, gb, playerID)
	}
}

func (s *Service) lookup(id uuid.UUID) (*guardedBattle, *battle.Error) {
	s.mu.RLock()
	gb, ok := s.battles[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &battle.Error{Kind: battle.KindNotFound, Messages: []string{"battle does not exist"}}
	}
	return gb, nil
}

// SetPlayerChoice authorizes and forwards a choice to the named battle,
// re-arming the per-action and per-player timers on success (spec §5).
func (s *Service) SetPlayerChoice(ctx context.Context, battleID uuid.UUID, callerID, playerID, input string) *battle.Error {
	if err := s.authorizer.Authorize(callerID, playerID); err != nil {
		return err
	}

	gb, err := s.lookup(battleID)
	if err != nil {
		return err
	}

	gb.mu.Lock()
	defer gb.mu.Unlock()

	if gb.engine.PlayerData(playerID) == nil {
		return &battle.Error{Kind: battle.KindNotFound, Messages: []string{playerID + " is not on given side"}}
	}

	if err := gb.engine.SetPlayerChoice(playerID, input); err != nil {
		return err
	}

	if turn := gb.engine.Turn(); turn > gb.lastTurn {
		s.metrics.TurnsResolved.Add(float64(turn - gb.lastTurn))
		gb.lastTurn = turn
	}

	if gb.engine.Ended() {
		s.finish(battleID, gb)
	} else {
		s.armActionTimer(battleID, gb)
		s.stopPlayerTimer(gb, playerID)
		s.armOutstandingPlayerTimers(battleID, gb)
	}
	return nil
}

// RequestForPlayer returns the outstanding request for one player.
func (s *Service) RequestForPlayer(battleID uuid.UUID, playerID string) (*battle.Request, *battle.Error) {
	gb, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.engine.RequestForPlayer(playerID), nil
}

// PlayerData returns a snapshot of one player's state, authorized the same
// way as every other player-scoped operation (spec §6.4 "player_data").
func (s *Service) PlayerData(battleID uuid.UUID, callerID, playerID string) (*battle.Player, *battle.Error) {
	if err := s.authorizer.Authorize(callerID, playerID); err != nil {
		return nil, err
	}
	gb, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	p := gb.engine.PlayerData(playerID)
	if p == nil {
		return nil, &battle.Error{Kind: battle.KindNotFound, Messages: []string{playerID + " is not on given side"}}
	}
	return p, nil
}

// UpdateTeam replaces playerID's team before the battle has started (spec
// §6.4 "update_team"). callerID must match playerID.
func (s *Service) UpdateTeam(battleID uuid.UUID, callerID, playerID string, team []battle.MonData) *battle.Error {
	if err := s.authorizer.Authorize(callerID, playerID); err != nil {
		return err
	}
	gb, err := s.lookup(battleID)
	if err != nil {
		return err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.engine.UpdateTeam(playerID, team)
}

// ValidatePlayer reports every rule violation in playerID's current team,
// without mutating anything (spec §6.4 "validate_player").
func (s *Service) ValidatePlayer(battleID uuid.UUID, playerID string) ([]string, *battle.Error) {
	gb, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.engine.ValidatePlayerTeam(playerID), nil
}

// BattleView is the wire shape of spec §6.4 "battle(uuid)".
type BattleView struct {
	ID    uuid.UUID
	State battle.BattleState
	Error string
}

// Battle returns a summary view of one battle (spec §6.4 "battle(uuid)").
func (s *Service) Battle(battleID uuid.UUID) (BattleView, *battle.Error) {
	gb, err := s.lookup(battleID)
	if err != nil {
		return BattleView{}, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	v := BattleView{ID: battleID}
	if gb.engine.Ended() {
		v.State = battle.StateFinished
	} else if gb.engine.Started() {
		v.State = battle.StateActive
	}
	if lastErr := gb.engine.LastError(); lastErr != nil {
		v.Error = lastErr.Error()
	}
	return v, nil
}

// Battles returns a page of battle summaries, ordered by UUID for a stable
// pagination cursor across calls (spec §6.4 "battles(count, offset)").
func (s *Service) Battles(count, offset int) []BattleView {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.battles))
	for id := range s.battles {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sortUUIDs(ids)

	return s.pageViews(ids, count, offset)
}

// BattlesForPlayer returns a page of battle summaries that playerID
// participates in (spec §6.4 "battles_for_player").
func (s *Service) BattlesForPlayer(playerID string, count, offset int) []BattleView {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0)
	for id, gb := range s.battles {
		gb.mu.Lock()
		has := gb.engine.PlayerData(playerID) != nil
		gb.mu.Unlock()
		if has {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()
	sortUUIDs(ids)

	return s.pageViews(ids, count, offset)
}

func (s *Service) pageViews(ids []uuid.UUID, count, offset int) []BattleView {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if count > 0 && offset+count < end {
		end = offset + count
	}
	views := make([]BattleView, 0, end-offset)
	for _, id := range ids[offset:end] {
		if v, err := s.Battle(id); err == nil {
			views = append(views, v)
		}
	}
	return views
}

func sortUUIDs(ids []uuid.UUID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1].String() > ids[j].String(); j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Delete removes a Finished battle (spec §6.4 "delete(uuid) (owner only;
// only when Finished)"). Ownership is any participant of the battle, since
// spec.md names no single owner field on Battle/Side/Player (§3 data
// model); see DESIGN.md for this decision.
func (s *Service) Delete(battleID uuid.UUID, callerID string) *battle.Error {
	gb, err := s.lookup(battleID)
	if err != nil {
		return err
	}

	gb.mu.Lock()
	isParticipant := gb.engine.PlayerData(callerID) != nil
	ended := gb.engine.Ended()
	gb.mu.Unlock()

	if !isParticipant {
		return &battle.Error{Kind: battle.KindUnauthorized, Messages: []string{callerID + " cannot act as owner of this battle"}}
	}
	if !ended {
		return &battle.Error{Kind: battle.KindLifecycleViolation, Messages: []string{"battle is not finished"}}
	}

	s.finish(battleID, gb)
	return nil
}

// FullLog returns the complete log for one audience.
func (s *Service) FullLog(battleID uuid.UUID, side *int) ([]string, *battle.Error) {
	gb, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.engine.FullLog(side), nil
}

// ActiveBattleCount reports how many battles are currently in flight, for
// readiness/metrics reporting.
func (s *Service) ActiveBattleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.battles)
}

// Subscribe returns history-so-far and a live channel for one audience.
func (s *Service) Subscribe(battleID uuid.UUID, side *int) ([]string, <-chan string, func(), *battle.Error) {
	gb, err := s.lookup(battleID)
	if err != nil {
		return nil, nil, nil, err
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	history, ch, cancel := gb.engine.Subscribe(side)
	return history, ch, cancel, nil
}

func (s *Service) finish(id uuid.UUID, gb *guardedBattle) {
	if gb.actionTimer != nil {
		gb.actionTimer.Stop()
	}
	if gb.battleTimer != nil {
		gb.battleTimer.Stop()
	}
	for _, t := range gb.playerTimers {
		t.Stop()
	}
	s.mu.Lock()
	delete(s.battles, id)
	s.mu.Unlock()
	s.metrics.BattlesActive.Dec()
	s.metrics.BattlesFinished.Inc()
	s.log.Info("battle finished", zap.String("battle_id", id.String()))
}

// armActionTimer schedules a forced-random-choice continuation if no
// player answers the outstanding request in time (spec §5 "A Battle
// Service action timer, when fired, injects random legal choices for any
// player whose choice is not yet fulfilled and calls continue_battle").
func (s *Service) armActionTimer(id uuid.UUID, gb *guardedBattle) {
	if gb.actionTimer != nil {
		gb.actionTimer.Stop()
	}
	if s.timeouts.Action <= 0 {
		return
	}
	gb.actionTimer = time.AfterFunc(s.timeouts.Action, func() {
		s.onActionTimeout(id)
	})
}

func (s *Service) onActionTimeout(id uuid.UUID) {
	gb, err := s.lookup(id)
	if err != nil {
		return
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	if gb.engine.ReadyToContinue() || gb.engine.Ended() {
		return
	}
	s.log.Warn("battle action timer expired", zap.String("battle_id", id.String()))
	s.metrics.ActionTimeouts.Inc()
	gb.engine.FillRandomChoices()
	gb.engine.ContinueBattle()
	if gb.engine.Ended() {
		s.finish(id, gb)
	} else {
		s.armActionTimer(id, gb)
		s.armOutstandingPlayerTimers(id, gb)
	}
}

// armPlayerTimer schedules a forced forfeit for one player (spec §5 "A
// Battle Service player timer, when fired, forces that player to
// forfeit"). armOutstandingPlayerTimers arms it for every player with an
// unanswered request each time a request round opens; it fires after
// Timeouts.Player unless the player's timer is stopped first.
func (s *Service) armPlayerTimer(id uuid.UUID, gb *guardedBattle, playerID string) {
	if s.timeouts.Player <= 0 {
		return
	}
	s.stopPlayerTimer(gb, playerID)
	gb.playerTimers[playerID] = time.AfterFunc(s.timeouts.Player, func() {
		s.onPlayerTimeout(id, playerID)
	})
}

func (s *Service) stopPlayerTimer(gb *guardedBattle, playerID string) {
	if t, ok := gb.playerTimers[playerID]; ok {
		t.Stop()
		delete(gb.playerTimers, playerID)
	}
}

func (s *Service) onPlayerTimeout(id uuid.UUID, playerID string) {
	gb, err := s.lookup(id)
	if err != nil {
		return
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	if gb.engine.Ended() {
		return
	}
	s.log.Warn("player timer expired, forcing forfeit",
		zap.String("battle_id", id.String()), zap.String("player_id", playerID))
	gb.engine.ForceForfeit(playerID)
	if gb.engine.Ended() {
		s.finish(id, gb)
	}
}

// armBattleTimer schedules an overall cap on the battle's lifetime (spec
// §5 "A Battle Service battle timer, when fired, ties the battle and sets
// state to Finished").
func (s *Service) armBattleTimer(id uuid.UUID, gb *guardedBattle) {
	if s.timeouts.Battle <= 0 {
		return
	}
	gb.battleTimer = time.AfterFunc(s.timeouts.Battle, func() {
		s.onBattleTimeout(id)
	})
}

func (s *Service) onBattleTimeout(id uuid.UUID) {
	gb, err := s.lookup(id)
	if err != nil {
		return
	}
	gb.mu.Lock()
	defer gb.mu.Unlock()
	if gb.engine.Ended() {
		return
	}
	s.log.Warn("battle timer expired, forcing a tie", zap.String("battle_id", id.String()))
	gb.engine.ForceTie()
	s.finish(id, gb)
}
