package wamp

import (
	"context"
	"testing"
	"time"
)

func TestPublishSubscribeLocal(t *testing.T) {
	router := NewRouter()
	sub := Connect(router, "test.realm", nil)
	defer sub.Disconnect()

	received := make(chan Message, 1)
	if _, err := sub.Subscribe("battle.log", MatchExact, func(event Message) {
		received <- event
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub := Connect(router, "test.realm", nil)
	defer pub.Disconnect()
	pub.Publish("battle.log", []any{"turn", 1}, nil)

	select {
	case ev := <-received:
		if ev.URI != "battle.log" {
			t.Fatalf("unexpected topic: %s", ev.URI)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCallLocalRoundTrip(t *testing.T) {
	router := NewRouter()
	callee := Connect(router, "test.realm", nil)
	defer callee.Disconnect()

	if _, err := callee.Register("battle.set_choice", MatchExact, InvocationSingle, func(ctx context.Context, args []any, kwargs map[string]any) (*Message, *Error) {
		return &Message{Args: []any{"ok"}}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	caller := Connect(router, "test.realm", nil)
	defer caller.Disconnect()

	result, err := caller.Call(context.Background(), "battle.set_choice", []any{"move 1"}, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(result.Args) != 1 || result.Args[0] != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCallNoSuchProcedure(t *testing.T) {
	router := NewRouter()
	caller := Connect(router, "test.realm", nil)
	defer caller.Disconnect()

	_, err := caller.Call(context.Background(), "does.not.exist", nil, nil)
	if err == nil || err.Kind != ErrNoSuchProcedure {
		t.Fatalf("expected ErrNoSuchProcedure, got %v", err)
	}
}

func TestCallRoundRobinInvocation(t *testing.T) {
	router := NewRouter()
	var calls []int

	for i := 0; i < 3; i++ {
		i := i
		callee := Connect(router, "rr.realm", nil)
		defer callee.Disconnect()
		callee.Register("rr.proc", MatchExact, InvocationRoundRobin, func(ctx context.Context, args []any, kwargs map[string]any) (*Message, *Error) {
			calls = append(calls, i)
			return &Message{}, nil
		})
	}

	caller := Connect(router, "rr.realm", nil)
	defer caller.Disconnect()
	for i := 0; i < 3; i++ {
		if _, err := caller.Call(context.Background(), "rr.proc", nil, nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
}

func TestWildcardURIMatch(t *testing.T) {
	if !uriMatches("battle..log", "battle.abc123.log", MatchWildcard) {
		t.Fatal("expected wildcard match")
	}
	if uriMatches("battle..log", "battle.abc.xyz.log", MatchWildcard) {
		t.Fatal("expected no match on differing component count")
	}
}
