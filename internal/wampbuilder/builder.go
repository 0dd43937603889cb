// Package wampbuilder provides a reconnecting wamp.Peer: one that
// remembers its registrations and subscriptions across a transport drop
// and replays them against a fresh Session once reconnected, buffering
// outbound calls made during the gap (spec §6.4's idempotency boundary
// for WAMP Peer reconnection/reissue, grounded on redis.SetNX the same
// way the teacher's worker pool uses Redis for distributed
// coordination).
package wampbuilder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmohaa/battler/internal/wamp"
)

// registeredProcedure remembers enough to replay a Register call.
type registeredProcedure struct {
	procedure string
	policy    wamp.MatchPolicy
	invoke    wamp.InvocationPolicy
	handler   wamp.ProcedureFunc
}

type subscribedTopic struct {
	topic   string
	policy  wamp.MatchPolicy
	handler wamp.SubscriberFunc
}

// bufferedCall is a CALL issued while the peer was mid-reconnect.
type bufferedCall struct {
	procedure string
	args      []any
	kwargs    map[string]any
	replyTo   chan callResult
}

type callResult struct {
	msg *wamp.Message
	err *wamp.Error
}

// ReconnectingPeer wraps a wamp.Peer, transparently rebuilding its
// session after TransportFactory reports a fresh Transport.
type ReconnectingPeer struct {
	router    *wamp.Router
	realm     string
	transport TransportFactory
	idemp     *redis.Client
	idempTTL  time.Duration

	mu            sync.Mutex
	peer          *wamp.Peer
	procedures    []registeredProcedure
	subscriptions []subscribedTopic
	buffer        []bufferedCall
	connected     bool
}

// TransportFactory produces a new wamp.Transport on each (re)connect
// attempt; nil signals an in-process (transport-less) peer.
type TransportFactory func(ctx context.Context) (wamp.Transport, error)

// New builds a ReconnectingPeer against router/realm. idemp may be nil,
// in which case reissued calls are not deduplicated (no Redis
// configured, e.g. in tests).
func New(router *wamp.Router, realm string, factory TransportFactory, idemp *redis.Client) *ReconnectingPeer {
	return &ReconnectingPeer{
		router:    router,
		realm:     realm,
		transport: factory,
		idemp:     idemp,
		idempTTL:  time.Minute,
	}
}

// Connect establishes the initial session.
func (p *ReconnectingPeer) Connect(ctx context.Context) error {
	return p.reconnect(ctx)
}

func (p *ReconnectingPeer) reconnect(ctx context.Context) error {
	var transport wamp.Transport
	if p.transport != nil {
		t, err := p.transport(ctx)
		if err != nil {
			return err
		}
		transport = t
	}

	p.mu.Lock()
	if p.peer != nil {
		p.peer.Disconnect()
	}
	p.peer = wamp.Connect(p.router, p.realm, transport)
	procedures := append([]registeredProcedure{}, p.procedures...)
	subscriptions := append([]subscribedTopic{}, p.subscriptions...)
	buffered := p.buffer
	p.buffer = nil
	p.connected = true
	peer := p.peer
	p.mu.Unlock()

	for _, reg := range procedures {
		if _, err := peer.Register(reg.procedure, reg.policy, reg.invoke, reg.handler); err != nil {
			return fmt.Errorf("re-registering %s: %w", reg.procedure, err)
		}
	}
	for _, sub := range subscriptions {
		if _, err := peer.Subscribe(sub.topic, sub.policy, sub.handler); err != nil {
			return fmt.Errorf("re-subscribing %s: %w", sub.topic, err)
		}
	}

	for _, call := range buffered {
		msg, err := peer.Call(ctx, call.procedure, call.args, call.kwargs)
		call.replyTo <- callResult{msg, err}
	}

	return nil
}

// Disconnected marks the peer as down; subsequent Call/Register/Subscribe
// calls queue or fail fast as appropriate until Reconnect succeeds.
func (p *ReconnectingPeer) Disconnected() {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// Reconnect re-establishes the session, per Disconnected.
func (p *ReconnectingPeer) Reconnect(ctx context.Context) error {
	return p.reconnect(ctx)
}

// Register installs a procedure and remembers it for replay after a
// reconnect.
func (p *ReconnectingPeer) Register(procedure string, policy wamp.MatchPolicy, invoke wamp.InvocationPolicy, handler wamp.ProcedureFunc) (uint64, *wamp.Error) {
	p.mu.Lock()
	p.procedures = append(p.procedures, registeredProcedure{procedure, policy, invoke, handler})
	peer := p.peer
	p.mu.Unlock()
	return peer.Register(procedure, policy, invoke, handler)
}

// Subscribe installs a topic handler and remembers it for replay.
func (p *ReconnectingPeer) Subscribe(topic string, policy wamp.MatchPolicy, handler wamp.SubscriberFunc) (uint64, *wamp.Error) {
	p.mu.Lock()
	p.subscriptions = append(p.subscriptions, subscribedTopic{topic, policy, handler})
	peer := p.peer
	p.mu.Unlock()
	return peer.Subscribe(topic, policy, handler)
}

// Call issues a CALL, buffering it until reconnect if the peer is
// currently down (spec §6.4 "call buffering during disconnect window").
func (p *ReconnectingPeer) Call(ctx context.Context, procedure string, args []any, kwargs map[string]any) (*wamp.Message, *wamp.Error) {
	p.mu.Lock()
	if !p.connected {
		reply := make(chan callResult, 1)
		p.buffer = append(p.buffer, bufferedCall{procedure, args, kwargs, reply})
		p.mu.Unlock()
		select {
		case res := <-reply:
			return res.msg, res.err
		case <-ctx.Done():
			return nil, &wamp.Error{Kind: wamp.ErrCanceled, Reason: "buffered call canceled"}
		}
	}
	peer := p.peer
	p.mu.Unlock()
	return peer.Call(ctx, procedure, args, kwargs)
}

// IdempotencyKey claims a one-time processing slot for a reissued
// message id, using SETNX so a call replayed after a reconnect (the
// caller retried after a timeout, unsure whether the first attempt
// landed) executes its side effect at most once (spec §6.4's
// idempotency boundary).
func (p *ReconnectingPeer) IdempotencyKey(ctx context.Context, key string) (claimed bool, err error) {
	if p.idemp == nil {
		return true, nil
	}
	return p.idemp.SetNX(ctx, "wamp:idemp:"+key, 1, p.idempTTL).Result()
}
