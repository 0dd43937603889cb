// Package battle implements the deterministic battle engine (spec §4.1):
// a single-threaded cooperative state machine that, given a seed, two team
// configurations, and a stream of per-player choices, produces the
// authoritative sequence of battle events.
//
// No two engine operations on the same Engine run concurrently; callers
// (the Battle Service) must serialize access, by convention with one
// mutex per battle (spec §5).
package battle

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/openmohaa/battler/internal/data"
	"github.com/openmohaa/battler/internal/logsplit"
	"github.com/openmohaa/battler/internal/prng"
	"github.com/openmohaa/battler/internal/validator"
)

// MonData is the input shape for one mon in a team (spec §6.1).
type MonData struct {
	SpeciesID string
	Nickname  string
	Level     int
	EVs       data.StatTable
	IVs       data.StatTable
	Moves     []string
	AbilityID string
	ItemID    string
}

// PlayerData is the input shape for one player (spec §6.1).
type PlayerData struct {
	ID      string
	Name    string
	Type    PlayerType
	Options map[string]any
	Team    []MonData
}

// SideData is the input shape for one side (spec §6.1).
type SideData struct {
	Name    string
	Players []PlayerData
}

// Format bundles the battle type and its rule set (spec §6.1).
type Format struct {
	Type  BattleType
	Rules validator.RuleSet
}

// Options is the full input record for Engine construction (spec §6.1).
type Options struct {
	Seed  *uint64
	Format Format
	Field  FieldData
	Side1  SideData
	Side2  SideData
}

// FieldData is the (currently minimal) field input.
type FieldData struct {
	Terrain string
}

// EngineOptions controls engine-level policy not carried in team/format
// data (spec §4.1 "new(options, data_store, engine_options)").
type EngineOptions struct {
	AutoContinue bool
	TieBreak     TieBreakPolicy
}

// Engine owns every mon, player, side, and the queue/log for one battle
// (spec §3 "Battle"). It is the arena in the handle pattern described in
// spec §9: mons and players are stored by value in slices and referenced
// everywhere else by handle.
type Engine struct {
	ID uuid.UUID

	mons    []Mon
	players []Player
	sides   [2]Side
	field   Field

	store data.Store
	rules validator.RuleSet
	btype BattleType

	prng     prng.PRNG
	tieBreak TieBreakPolicy

	turn         int
	state        BattleState
	midTurn      bool
	pending      *RequestType
	autoContinue bool

	queue       Queue
	logSplitter *logsplit.Splitter

	lastErr *Error

	weatherEffects, terrainEffects, abilityEffects, itemEffects map[string]*Effect
	statusEffects, volatileEffects, sideConditionEffects        map[string]*Effect
	moveEffects                                                 map[string]*Effect
}

// New builds sides, players, and mons from opts, validating each player's
// team against the format's rule set (spec §4.1 "new").
func New(opts Options, store data.Store, engineOpts EngineOptions) (*Engine, *Error) {
	var problems []string
	for _, side := range []SideData{opts.Side1, opts.Side2} {
		for _, pd := range side.Players {
			if ok, errs := validator.Validate(toValidatorTeam(pd.Team), opts.Format.Rules, store); !ok {
				problems = append(problems, errs...)
			}
		}
	}
	if len(problems) > 0 {
		return nil, newValidationError(problems)
	}

	seed := uint64(rand.Int64())
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	e := &Engine{
		ID:           uuid.New(),
		store:        store,
		rules:        opts.Format.Rules,
		btype:        opts.Format.Type,
		prng:         prng.NewSeeded(seed),
		tieBreak:     engineOpts.TieBreak,
		autoContinue: engineOpts.AutoContinue,
		state:        StatePreparing,
		field:        Field{Terrain: opts.Field.Terrain, PseudoWeather: map[string]*VolatileState{}},
		logSplitter:  logsplit.New(2),
	}
	e.registerBuiltinEffects()

	activePerPlayer := opts.Format.Type.ActivePerPlayer()
	e.buildSide(0, opts.Side1, activePerPlayer)
	e.buildSide(1, opts.Side2, activePerPlayer)

	return e, nil
}

func (e *Engine) buildSide(sideIdx int, sd SideData, activePerPlayer int) {
	side := &e.sides[sideIdx]
	side.Name = sd.Name
	side.Conditions = map[string]*VolatileState{}
	side.ActiveSlots = len(sd.Players) * activePerPlayer

	for pi, pd := range sd.Players {
		ph := PlayerHandle(len(e.players))
		p := Player{
			Handle:    ph,
			ID:        pd.ID,
			Name:      pd.Name,
			SideIndex: sideIdx,
			Position:  pi,
			Type:      pd.Type,
			Active:    make([]MonHandle, activePerPlayer),
		}
		for i := range p.Active {
			p.Active[i] = NoMon
		}

		for _, md := range pd.Team {
			mh := e.addMon(md, ph)
			p.Team = append(p.Team, mh)
		}
		p.NonFaintedCount = len(p.Team)

		e.players = append(e.players, p)
		side.PlayerHandles = append(side.PlayerHandles, ph)
	}
}

func (e *Engine) addMon(md MonData, owner PlayerHandle) MonHandle {
	stats := computeStats(e.store, md)
	species, _ := e.store.Species(md.SpeciesID)

	moves := make([]MoveSlot, 0, len(md.Moves))
	for _, id := range md.Moves {
		mv, ok := e.store.Move(id)
		pp := 20
		if ok {
			pp = mv.PP
		}
		moves = append(moves, MoveSlot{ID: id, CurrentPP: pp, MaxPP: pp})
	}

	m := Mon{
		Handle:       MonHandle(len(e.mons)),
		SpeciesID:    md.SpeciesID,
		Nickname:     md.Nickname,
		Level:        md.Level,
		Stats:        stats,
		CurrentHP:    stats.HP,
		MaxHP:        stats.HP,
		Moves:        moves,
		AbilityID:    md.AbilityID,
		ItemID:       md.ItemID,
		Types:        species.Types,
		PlayerHandle: owner,
		Position:     -1,
		Volatiles:    map[string]*VolatileState{},
	}
	e.mons = append(e.mons, m)
	return m.Handle
}

// computeStats derives in-battle stats from base stats, level, EVs, and
// IVs using the standard stat formula, grounded on
// original_source/battler (the exact EV/IV/nature math lives there; this
// module omits nature since spec.md's data model does not name one).
func computeStats(store data.Store, md MonData) data.StatTable {
	species, _ := store.Species(md.SpeciesID)
	lvl := md.Level
	calc := func(base, iv, ev int) int {
		return ((2*base+iv+ev/4)*lvl)/100 + 5
	}
	hp := ((2*species.BaseStats.HP+md.IVs.HP+md.EVs.HP/4)*lvl)/100 + lvl + 10
	return data.StatTable{
		HP:        hp,
		Attack:    calc(species.BaseStats.Attack, md.IVs.Attack, md.EVs.Attack),
		Defense:   calc(species.BaseStats.Defense, md.IVs.Defense, md.EVs.Defense),
		SpAttack:  calc(species.BaseStats.SpAttack, md.IVs.SpAttack, md.EVs.SpAttack),
		SpDefense: calc(species.BaseStats.SpDefense, md.IVs.SpDefense, md.EVs.SpDefense),
		Speed:     calc(species.BaseStats.Speed, md.IVs.Speed, md.EVs.Speed),
	}
}

func toValidatorTeam(team []MonData) validator.Team {
	vt := validator.Team{}
	for _, m := range team {
		vt.Mons = append(vt.Mons, validator.TeamMon{
			SpeciesID: m.SpeciesID, Level: m.Level, Moves: m.Moves,
			AbilityID: m.AbilityID, ItemID: m.ItemID,
		})
	}
	return vt
}

// Started reports whether Start has been called.
func (e *Engine) Started() bool { return e.state != StatePreparing }

// Ended reports whether the battle has finished.
func (e *Engine) Ended() bool { return e.state == StateFinished }

// Turn returns the current turn counter, for metrics/observability.
func (e *Engine) Turn() int { return e.turn }

// ReadyToContinue reports whether every outstanding request has been
// answered (spec §4.1 "ready_to_continue").
func (e *Engine) ReadyToContinue() bool { return e.allChoicesFulfilled() }

// LastError returns the stored error, if the battle entered a degraded
// state (spec §7 "Internal ... battle enters a degraded state with error
// populated but is not destroyed").
func (e *Engine) LastError() *Error { return e.lastErr }

// Start validates every team again, logs battle metadata, enqueues the
// Start action, and — if configured — immediately continues (spec §4.1
// "start").
func (e *Engine) Start() *Error {
	if e.state != StatePreparing {
		return newError(KindLifecycleViolation, "battle already started")
	}

	var problems []string
	for i := range e.players {
		p := &e.players[i]
		problems = append(problems, e.ValidatePlayerTeam(p.ID)...)
	}
	if len(problems) > 0 {
		return newValidationError(problems)
	}

	e.state = StateActive
	e.log("battletype", map[string]string{"type": fmt.Sprintf("%d", e.btype)})
	for i := range e.sides {
		size := 0
		for _, ph := range e.sides[i].PlayerHandles {
			size += len(e.players[ph].Team)
		}
		e.log("teamsize", map[string]string{"side": itoa(i), "size": itoa(size)})
	}

	if e.rules.PickedTeamSize > 0 {
		e.makeRequest(RequestTeamPreview)
		return nil
	}

	e.queue.push(Action{Kind: ActionStartKind})
	e.sortQueue()

	if e.autoContinue {
		return e.ContinueBattle()
	}
	return nil
}

// SetPlayerChoice parses input, updates the player's ChoiceState, and —
// once every player's choice is fulfilled — commits and continues (spec
// §4.1 "set_player_choice").
func (e *Engine) SetPlayerChoice(playerID string, input string) *Error {
	p := e.playerByID(playerID)
	if p == nil {
		return newError(KindNotFound, "unknown player: "+playerID)
	}
	if p.Request == nil {
		return newError(KindLifecycleViolation, "no outstanding request for player "+playerID)
	}

	if isForfeit(input) {
		p.Forfeited = true
		p.Choice = ChoiceState{Fulfilled: true, RawInput: input}
		e.log("forfeit", map[string]string{"player": p.ID})
		e.checkWinCondition()
		if e.state == StateFinished {
			return nil
		}
		if e.allChoicesFulfilled() {
			return e.commitAndContinue()
		}
		return nil
	}

	actions, err := parseChoice(p, input)
	if err != nil {
		return err
	}

	p.Choice = ChoiceState{Fulfilled: true, Actions: actions, RawInput: input}

	if e.allChoicesFulfilled() {
		return e.commitAndContinue()
	}
	return nil
}

// ContinueBattle requires all choices fulfilled, commits any fulfilled
// choices still pending (such as those FillRandomChoices injects), and
// executes the queue to the next request point (spec §4.1
// "continue_battle").
func (e *Engine) ContinueBattle() *Error {
	if !e.allChoicesFulfilled() {
		return newError(KindLifecycleViolation, "not all players have submitted a choice")
	}
	if e.pending != nil {
		return e.commitAndContinue()
	}
	return e.runQueue()
}

func (e *Engine) commitAndContinue() *Error {
	e.commitChoices()
	return e.runQueue()
}

// commitChoices takes each player's accumulated actions, pushes them onto
// the queue, clears requests, and re-sorts (spec §4.1 "commit_choices").
// A team-preview commit additionally queues the initial switch-in once
// every player's picks are in, since run_action(Start) (placing the first
// actives) only happens after team preview resolves in formats that use it.
// The Start action is appended after the sort so it runs behind every pick.
func (e *Engine) commitChoices() {
	wasTeamPreview := e.pending != nil && *e.pending == RequestTeamPreview
	for i := range e.players {
		p := &e.players[i]
		for _, a := range p.Choice.Actions {
			e.queue.push(a)
		}
		p.Request = nil
		p.Choice = ChoiceState{}
	}
	e.pending = nil
	e.sortQueue()
	if wasTeamPreview {
		e.queue.push(Action{Kind: ActionStartKind})
	}
}

// runQueue is the turn loop (spec §4.1):
//
//	while queue non-empty:
//	    action = queue.pop_front()
//	    run_action(action)
//	    if a request was generated, or battle ended: return
func (e *Engine) runQueue() *Error {
	for {
		if e.state == StateFinished {
			return nil
		}
		a, ok := e.queue.popFront()
		if !ok {
			e.nextTurn()
			return nil
		}
		if err := e.runAction(a); err != nil {
			e.lastErr = err
			return err
		}
		if e.pending != nil || e.state == StateFinished {
			return nil
		}
	}
}

// nextTurn advances the turn counter, logs it, ties the battle at the
// 1000-turn cap, and issues a Turn request (spec §4.1 "next_turn").
func (e *Engine) nextTurn() {
	e.turn++
	e.log("turn", map[string]string{"turn": itoa(e.turn)})

	if e.turn >= 1000 {
		e.tieBattle()
		return
	}

	e.runResidual()
	if e.state == StateFinished {
		return
	}
	e.makeRequest(RequestTurn)
}

func (e *Engine) playerByID(id string) *Player {
	for i := range e.players {
		if e.players[i].ID == id {
			return &e.players[i]
		}
	}
	return nil
}

// RequestForPlayer returns the outstanding request for a player, if any
// (spec §4.1 "request_for_player").
func (e *Engine) RequestForPlayer(playerID string) *Request {
	p := e.playerByID(playerID)
	if p == nil {
		return nil
	}
	return p.Request
}

// OutstandingPlayerIDs returns the IDs of every trainer-controlled player
// with an unfulfilled request, for the Battle Service to arm per-player
// timers against (spec §5 "player timer").
func (e *Engine) OutstandingPlayerIDs() []string {
	var ids []string
	for i := range e.players {
		p := &e.players[i]
		if p.Type == Trainer && !p.Forfeited && p.Request != nil && !p.Choice.Fulfilled {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// PlayerData returns a snapshot of one player's state (spec §4.1
// "player_data").
func (e *Engine) PlayerData(playerID string) *Player {
	p := e.playerByID(playerID)
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// UpdateTeam replaces playerID's team data, only while the battle is still
// Preparing (spec §6.4 "update_team"). The replacement is validated against
// the format's rule set the same way New does; on failure the player's
// existing team is left untouched.
func (e *Engine) UpdateTeam(playerID string, team []MonData) *Error {
	if e.state != StatePreparing {
		return newError(KindLifecycleViolation, "cannot update team once battle has started")
	}
	p := e.playerByID(playerID)
	if p == nil {
		return newError(KindNotFound, "unknown player: "+playerID)
	}
	if ok, errs := validator.Validate(toValidatorTeam(team), e.rules, e.store); !ok {
		return newValidationError(errs)
	}

	newHandles := make([]MonHandle, len(team))
	for i, md := range team {
		newHandles[i] = e.addMon(md, p.Handle)
	}
	p.Team = newHandles
	p.NonFaintedCount = len(newHandles)
	return nil
}

// ValidatePlayerTeam re-validates playerID's current team against the
// format's rule set without mutating anything (spec §6.4 "validate_player").
func (e *Engine) ValidatePlayerTeam(playerID string) []string {
	p := e.playerByID(playerID)
	if p == nil {
		return []string{"unknown player: " + playerID}
	}
	team := make([]MonData, len(p.Team))
	for i, mh := range p.Team {
		m := &e.mons[mh]
		team[i] = MonData{SpeciesID: m.SpeciesID, Level: m.Level, AbilityID: m.AbilityID, ItemID: m.ItemID}
		for _, ms := range m.Moves {
			team[i].Moves = append(team[i].Moves, ms.ID)
		}
	}
	_, problems := validator.Validate(toValidatorTeam(team), e.rules, e.store)
	return problems
}

// ForceForfeit concedes the battle on behalf of playerID, for the Battle
// Service's per-player timer (spec §5 "A Battle Service player timer, when
// fired, forces that player to forfeit"). It is a thin wrapper around the
// same forfeit path SetPlayerChoice("forfeit") takes, so the log and win
// check stay identical regardless of who triggered it.
func (e *Engine) ForceForfeit(playerID string) *Error {
	p := e.playerByID(playerID)
	if p == nil {
		return newError(KindNotFound, "unknown player: "+playerID)
	}
	if p.Forfeited || e.state == StateFinished {
		return nil
	}
	p.Forfeited = true
	p.Request = nil
	p.Choice = ChoiceState{Fulfilled: true}
	e.log("forfeit", map[string]string{"player": p.ID})
	e.checkWinCondition()
	if e.state == StateFinished {
		return nil
	}
	if e.allChoicesFulfilled() {
		return e.commitAndContinue()
	}
	return nil
}

// ForceTie ends the battle as a draw, for the Battle Service's per-battle
// timer (spec §5 "A Battle Service battle timer, when fired, ties the
// battle and sets state to Finished").
func (e *Engine) ForceTie() {
	if e.state == StateFinished {
		return
	}
	e.tieBattle()
}

// Mon returns a snapshot of one mon by handle.
func (e *Engine) Mon(h MonHandle) *Mon {
	if h < 0 || int(h) >= len(e.mons) {
		return nil
	}
	cp := e.mons[h]
	return &cp
}

// FullLog returns the complete history for the public log (side == nil) or
// one side's private log (spec §6.4 "full_log").
func (e *Engine) FullLog(side *int) []string { return e.logSplitter.FullLog(side) }

// Subscribe returns history-so-far plus a live channel for one audience
// (spec §6.4 "subscribe").
func (e *Engine) Subscribe(side *int) ([]string, <-chan string, func()) {
	return e.logSplitter.Subscribe(side)
}

func monLogID(m *Mon) string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.SpeciesID
}
