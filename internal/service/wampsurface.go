package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openmohaa/battler/internal/battle"
	"github.com/openmohaa/battler/internal/metrics"
	"github.com/openmohaa/battler/internal/wamp"
)

// instrumented wraps a procedure handler with the RPC call counters and
// latency histogram every registered procedure reports through (spec §1
// AMBIENT STACK: every external call surface is metered the same way).
func instrumented(m *metrics.Metrics, procedure string, fn wamp.ProcedureFunc) wamp.ProcedureFunc {
	return func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		start := time.Now()
		msg, err := fn(ctx, args, kwargs)
		m.RPCCallDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = string(err.Kind)
		}
		m.RPCCallsTotal.WithLabelValues(procedure, outcome).Inc()
		return msg, err
	}
}

// RegisterWampSurface installs the Battle Service's RPC procedures on
// peer (spec §6.4):
//
//	battle.create, battle.delete, battle.battle,
//	battle.battles, battle.battles_for_player, battle.update_team,
//	battle.validate_player, battle.player_data, battle.request,
//	battle.set_choice, battle.full_log.
//
// No battle.start procedure is registered: battle.create already starts
// the battle. The Pub/Sub topics battle.<id>.log (public) and
// battle.<id>.log.<side> (private) are fed by PumpBattleLog, not here.
//
// Arguments are passed as native Go values (battle.Options,
// []battle.MonData, ...) rather than JSON-decoded primitives: this
// runtime's wire transport (transport_ws.go) round-trips Messages through
// encoding/json for remote peers, but the Battle Service itself is always
// registered as a local, in-process Peer (spec §1 "the serialization
// format of the wire transport" is out of scope), so these handlers accept
// the typed payloads the in-process caller already holds.
func RegisterWampSurface(peer *wamp.Peer, svc *Service, m *metrics.Metrics) error {
	if _, err := peer.Register("battle.create", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.create", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		callerID, opts, engineOpts, perr := parseCreateArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		id, berr := svc.CreateBattle(callerID, opts, engineOpts)
		if berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{id.String()}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.delete", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.delete", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, callerID, perr := parseBattleAndPlayerArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		if berr := svc.Delete(battleID, callerID); berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{"ok"}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.battle", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.battle", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, _, perr := parseBattleAndSideArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		view, berr := svc.Battle(battleID)
		if berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{view}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.battles", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.battles", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		count, offset := parsePageArgs(args, kwargs)
		return &wamp.Message{Args: []any{svc.Battles(count, offset)}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.battles_for_player", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.battles_for_player", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		player, _ := stringArg(args, kwargs, 0, "player_id")
		count, offset := parsePageArgs(args, kwargs)
		return &wamp.Message{Args: []any{svc.BattlesForPlayer(player, count, offset)}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.update_team", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.update_team", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, callerID, playerID, team, perr := parseUpdateTeamArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		if berr := svc.UpdateTeam(battleID, callerID, playerID, team); berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{"ok"}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.validate_player", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.validate_player", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, playerID, perr := parseBattleAndPlayerArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		problems, berr := svc.ValidatePlayer(battleID, playerID)
		if berr != nil {
			return nil, toWampError(berr)
		}
		wire := make([]any, len(problems))
		for i, p := range problems {
			wire[i] = p
		}
		return &wamp.Message{Args: []any{wire}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.player_data", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.player_data", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, callerID, playerID, perr := parseCallerAndPlayerArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		p, berr := svc.PlayerData(battleID, callerID, playerID)
		if berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{p}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.set_choice", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.set_choice", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, callerID, playerID, input, perr := parseSetChoiceArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		if berr := svc.SetPlayerChoice(ctx, battleID, callerID, playerID, input); berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{"ok"}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.request", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.request", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, playerID, perr := parseBattleAndPlayerArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		req, berr := svc.RequestForPlayer(battleID, playerID)
		if berr != nil {
			return nil, toWampError(berr)
		}
		return &wamp.Message{Args: []any{requestToWire(req)}}, nil
	})); err != nil {
		return err
	}

	if _, err := peer.Register("battle.full_log", wamp.MatchExact, wamp.InvocationSingle, instrumented(m, "battle.full_log", func(ctx context.Context, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
		battleID, side, perr := parseBattleAndSideArgs(args, kwargs)
		if perr != nil {
			return nil, perr
		}
		entries, berr := svc.FullLog(battleID, side)
		if berr != nil {
			return nil, toWampError(berr)
		}
		wire := make([]any, len(entries))
		for i, e := range entries {
			wire[i] = e
		}
		return &wamp.Message{Args: wire}, nil
	})); err != nil {
		return err
	}

	return nil
}

// PumpBattleLog forwards every new entry on a battle's log stream onto
// its Pub/Sub topic, for as long as ctx is alive; callers spawn one of
// these per battle once it is created.
func PumpBattleLog(ctx context.Context, peer *wamp.Peer, svc *Service, battleID uuid.UUID, side *int) {
	history, ch, cancel, err := svc.Subscribe(battleID, side)
	if err != nil {
		return
	}
	defer cancel()

	topic := publicTopic(battleID)
	if side != nil {
		topic = privateTopic(battleID, *side)
	}

	for _, e := range history {
		peer.Publish(topic, []any{e}, nil)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			peer.Publish(topic, []any{entry}, nil)
		}
	}
}

func publicTopic(battleID uuid.UUID) string {
	return fmt.Sprintf("battle.%s.log", battleID)
}

func privateTopic(battleID uuid.UUID, side int) string {
	return fmt.Sprintf("battle.%s.log.%d", battleID, side)
}

func toWampError(err *battle.Error) *wamp.Error {
	return &wamp.Error{Kind: wamp.ErrorKind(err.Kind.String()), Reason: err.Error(), Message: err.Error()}
}

func requestToWire(req *battle.Request) map[string]any {
	if req == nil {
		return nil
	}
	return map[string]any{
		"forced":     req.Forced,
		"active_len": len(req.Active),
		"team_len":   len(req.Team),
	}
}

func parseSetChoiceArgs(args []any, kwargs map[string]any) (uuid.UUID, string, string, string, *wamp.Error) {
	get := func(i int, key string) (string, bool) {
		if kwargs != nil {
			if v, ok := kwargs[key].(string); ok {
				return v, true
			}
		}
		if i < len(args) {
			if v, ok := args[i].(string); ok {
				return v, true
			}
		}
		return "", false
	}
	battleStr, ok1 := get(0, "battle_id")
	caller, ok2 := get(1, "caller_id")
	player, ok3 := get(2, "player_id")
	input, ok4 := get(3, "choice")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return uuid.UUID{}, "", "", "", &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "missing required arguments"}
	}
	id, err := uuid.Parse(battleStr)
	if err != nil {
		return uuid.UUID{}, "", "", "", &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "invalid battle id"}
	}
	return id, caller, player, input, nil
}

func parseBattleAndPlayerArgs(args []any, kwargs map[string]any) (uuid.UUID, string, *wamp.Error) {
	get := func(i int, key string) (string, bool) {
		if kwargs != nil {
			if v, ok := kwargs[key].(string); ok {
				return v, true
			}
		}
		if i < len(args) {
			if v, ok := args[i].(string); ok {
				return v, true
			}
		}
		return "", false
	}
	battleStr, ok1 := get(0, "battle_id")
	player, ok2 := get(1, "player_id")
	if !ok1 || !ok2 {
		return uuid.UUID{}, "", &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "missing required arguments"}
	}
	id, err := uuid.Parse(battleStr)
	if err != nil {
		return uuid.UUID{}, "", &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "invalid battle id"}
	}
	return id, player, nil
}

func stringArg(args []any, kwargs map[string]any, i int, key string) (string, bool) {
	if kwargs != nil {
		if v, ok := kwargs[key].(string); ok {
			return v, true
		}
	}
	if i < len(args) {
		if v, ok := args[i].(string); ok {
			return v, true
		}
	}
	return "", false
}

func parseCreateArgs(args []any, kwargs map[string]any) (string, battle.Options, battle.EngineOptions, *wamp.Error) {
	callerID, ok := stringArg(args, kwargs, 0, "caller_id")
	if !ok {
		return "", battle.Options{}, battle.EngineOptions{}, &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "missing caller_id"}
	}
	var opts battle.Options
	if kwargs != nil {
		if v, ok := kwargs["options"].(battle.Options); ok {
			opts = v
		}
	} else if len(args) > 1 {
		if v, ok := args[1].(battle.Options); ok {
			opts = v
		}
	}
	var engineOpts battle.EngineOptions
	if kwargs != nil {
		if v, ok := kwargs["engine_options"].(battle.EngineOptions); ok {
			engineOpts = v
		}
	}
	return callerID, opts, engineOpts, nil
}

func parsePageArgs(args []any, kwargs map[string]any) (int, int) {
	count, offset := 0, 0
	get := func(i int, key string) (int, bool) {
		if kwargs != nil {
			if v, ok := kwargs[key].(int); ok {
				return v, true
			}
		}
		if i < len(args) {
			if v, ok := args[i].(int); ok {
				return v, true
			}
		}
		return 0, false
	}
	if v, ok := get(0, "count"); ok {
		count = v
	}
	if v, ok := get(1, "offset"); ok {
		offset = v
	}
	return count, offset
}

func parseUpdateTeamArgs(args []any, kwargs map[string]any) (uuid.UUID, string, string, []battle.MonData, *wamp.Error) {
	battleID, callerID, perr := parseBattleAndPlayerArgs(args, kwargs)
	if perr != nil {
		return uuid.UUID{}, "", "", nil, perr
	}
	playerID, ok := stringArg(args, kwargs, 2, "player_id")
	if !ok {
		return uuid.UUID{}, "", "", nil, &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "missing player_id"}
	}
	var team []battle.MonData
	if kwargs != nil {
		if v, ok := kwargs["team"].([]battle.MonData); ok {
			team = v
		}
	} else if len(args) > 3 {
		if v, ok := args[3].([]battle.MonData); ok {
			team = v
		}
	}
	return battleID, callerID, playerID, team, nil
}

func parseCallerAndPlayerArgs(args []any, kwargs map[string]any) (uuid.UUID, string, string, *wamp.Error) {
	battleID, callerID, perr := parseBattleAndPlayerArgs(args, kwargs)
	if perr != nil {
		return uuid.UUID{}, "", "", perr
	}
	playerID, ok := stringArg(args, kwargs, 2, "player_id")
	if !ok {
		playerID = callerID
	}
	return battleID, callerID, playerID, nil
}

func parseBattleAndSideArgs(args []any, kwargs map[string]any) (uuid.UUID, *int, *wamp.Error) {
	if len(args) == 0 {
		return uuid.UUID{}, nil, &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "missing battle id"}
	}
	battleStr, ok := args[0].(string)
	if !ok {
		return uuid.UUID{}, nil, &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "invalid battle id"}
	}
	id, err := uuid.Parse(battleStr)
	if err != nil {
		return uuid.UUID{}, nil, &wamp.Error{Kind: wamp.ErrInvalidURI, Reason: "invalid battle id"}
	}
	var side *int
	if len(args) > 1 {
		if f, ok := args[1].(float64); ok {
			s := int(f)
			side = &s
		}
	}
	return id, side, nil
}
