package wamp

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// SessionID identifies one joined session within the router.
type SessionID uint64

// CancelMode selects how an in-flight CALL reacts to context
// cancellation or an explicit Peer.Cancel/Kill (spec §6.4 "call
// cancellation modes (Skip/Kill/KillNoWait)").
type CancelMode string

const (
	// CancelSkip stops waiting for a result but lets the callee's
	// handler run to completion in the background; its eventual result
	// is discarded.
	CancelSkip CancelMode = "skip"
	// CancelKill asks the callee to stop (via context cancellation for a
	// local callee, or an INTERRUPT message for a wire callee) and waits
	// for its acknowledgement before returning.
	CancelKill CancelMode = "kill"
	// CancelKillNoWait asks the callee to stop and returns immediately
	// without waiting for acknowledgement.
	CancelKillNoWait CancelMode = "killnowait"
)

// ProcedureFunc is a locally registered callee implementation (spec §6.4:
// the Battle Service registers its RPCs this way rather than through a
// wire round trip to itself).
type ProcedureFunc func(ctx context.Context, args []any, kwargs map[string]any) (result *Message, err *Error)

// SubscriberFunc is a locally registered event handler.
type SubscriberFunc func(event Message)

type callResult struct {
	msg *Message
	err *Error
}

// Session is one joined participant: either backed by a Transport (a
// remote peer connected over a websocket) or purely local (an in-process
// callee/publisher registered directly by this binary, e.g. the Battle
// Service). The local maps are allocated for every session but hold
// handlers only for local sessions.
type Session struct {
	ID    SessionID
	Realm string

	router *Router

	transport Transport // non-nil for wire sessions

	mu         sync.Mutex
	procedures map[string]ProcedureFunc   // pattern -> handler, local sessions only
	subscribed map[uint64]SubscriberFunc  // subscription id -> handler, local sessions only
	cancels    map[uint64]context.CancelFunc
}

// Router owns every realm and session and is the synchronization point
// for PUBLISH fan-out and CALL/INVOCATION routing (spec §6.4).
type Router struct {
	mu     sync.Mutex
	realms map[string]*Realm
	sessions map[SessionID]*Session

	nextID atomic.Uint64

	pendingInvocations sync.Map // invocation id (uint64) -> chan callResult, wire callees only
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{
		realms:   map[string]*Realm{},
		sessions: map[SessionID]*Session{},
	}
}

func (r *Router) newID() uint64 { return r.nextID.Add(1) }

func (r *Router) realm(name string) *Realm {
	r.mu.Lock()
	defer r.mu.Unlock()
	rl, ok := r.realms[name]
	if !ok {
		rl = newRealm(name)
		r.realms[name] = rl
	}
	return rl
}

// JoinRealm creates a session in realmName. transport is nil for a local
// (in-process) session.
func (r *Router) JoinRealm(realmName string, transport Transport) *Session {
	s := &Session{
		ID:         SessionID(r.newID()),
		Realm:      realmName,
		router:     r,
		transport:  transport,
		procedures: map[string]ProcedureFunc{},
		subscribed: map[uint64]SubscriberFunc{},
		cancels:    map[uint64]context.CancelFunc{},
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.realm(realmName) // ensure it exists even with no subscribers yet
	return s
}

// LeaveRealm removes a session and every subscription/registration it
// owns (spec §6.4 "callee-disappearance handling").
func (r *Router) LeaveRealm(s *Session) {
	r.realm(s.Realm).removeSession(s.ID)
	r.mu.Lock()
	delete(r.sessions, s.ID)
	r.mu.Unlock()
}

// Subscribe registers a topic pattern. handler is non-nil only for local
// sessions; wire sessions receive EVENT messages over their transport
// instead.
func (r *Router) Subscribe(s *Session, topic string, policy MatchPolicy, handler SubscriberFunc) (uint64, *Error) {
	if !validURI(topic) {
		return 0, newError(ErrInvalidURI, "invalid topic: "+topic)
	}
	id := r.newID()
	sub := &Subscription{ID: id, SessionID: s.ID, Topic: topic, Policy: policy}
	r.realm(s.Realm).addSubscription(sub)
	if handler != nil {
		s.mu.Lock()
		s.subscribed[id] = handler
		s.mu.Unlock()
	}
	return id, nil
}

// Unsubscribe removes one subscription.
func (r *Router) Unsubscribe(s *Session, subID uint64) *Error {
	sub := r.realm(s.Realm).removeSubscription(subID)
	if sub == nil {
		return newError(ErrNoSuchSubscription, "no such subscription")
	}
	s.mu.Lock()
	delete(s.subscribed, subID)
	s.mu.Unlock()
	return nil
}

// Publish fans an event out to every matching subscriber in realmName
// (spec §6.4 Pub/Sub). Delivery is best-effort and does not block the
// publisher on slow wire subscribers; internal/logsplit's lossy live
// subscription model is the analogous pattern for the battle log stream.
func (r *Router) Publish(realmName, topic string, args []any, kwargs map[string]any) {
	event := Message{Type: MsgEvent, URI: topic, Args: args, Kwargs: kwargs}
	for _, sub := range r.realm(realmName).matchingSubscribers(topic) {
		r.mu.Lock()
		sess := r.sessions[sub.SessionID]
		r.mu.Unlock()
		if sess == nil {
			continue
		}
		sess.mu.Lock()
		handler := sess.subscribed[sub.ID]
		sess.mu.Unlock()
		if handler != nil {
			go handler(event)
		} else if sess.transport != nil {
			go sess.transport.Send(event)
		}
	}
}

// Register adds (or joins) a procedure registration. handler is non-nil
// only for local sessions.
func (r *Router) Register(s *Session, procedure string, policy MatchPolicy, invoke InvocationPolicy, handler ProcedureFunc) (uint64, *Error) {
	if !validURI(procedure) {
		return 0, newError(ErrInvalidURI, "invalid procedure: "+procedure)
	}
	reg, err := r.realm(s.Realm).register(procedure, policy, invoke, s.ID, r.newID)
	if err != nil {
		return 0, err
	}
	if handler != nil {
		s.mu.Lock()
		s.procedures[procedure] = handler
		s.mu.Unlock()
	}
	return reg.ID, nil
}

// Unregister removes s from a procedure's callee list.
func (r *Router) Unregister(s *Session, regID uint64, procedure string) *Error {
	if err := r.realm(s.Realm).unregister(regID, s.ID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.procedures, procedure)
	s.mu.Unlock()
	return nil
}

// Call routes one RPC call to a registered callee and blocks for its
// result, honoring ctx cancellation per cancelMode (spec §6.4 "call
// cancellation modes").
func (r *Router) Call(ctx context.Context, realmName, procedure string, args []any, kwargs map[string]any, cancelMode CancelMode) (*Message, *Error) {
	mode := cancelMode
	return r.call(ctx, realmName, procedure, args, kwargs, &mode)
}

// call is the pointer-taking implementation: cancelMode is read only
// after ctx.Done() fires, so a caller (Rpc.Cancel/Kill) can still change
// its mind about the cancel mode right up until the moment it actually
// cancels ctx (peer.go CallAsync relies on this: it writes the mode and
// then calls the context's cancel func in the same goroutine, and the
// write is visible to this read via the cancellation channel's close,
// which is itself a happens-before edge).
func (r *Router) call(ctx context.Context, realmName, procedure string, args []any, kwargs map[string]any, cancelMode *CancelMode) (*Message, *Error) {
	realm := r.realm(realmName)
	reg, err := realm.findProcedure(procedure)
	if err != nil {
		return nil, err
	}
	calleeID := realm.pickCallee(reg, func(n int) int { return rand.IntN(n) })

	r.mu.Lock()
	callee := r.sessions[calleeID]
	r.mu.Unlock()
	if callee == nil {
		return nil, newError(ErrNoSuchProcedure, "callee session gone")
	}

	invocationID := r.newID()

	callee.mu.Lock()
	handler := callee.procedures[reg.Procedure]
	callee.mu.Unlock()

	if handler != nil {
		return r.callLocal(ctx, callee, invocationID, handler, args, kwargs, cancelMode)
	}
	return r.callWire(ctx, callee, invocationID, procedure, args, kwargs, cancelMode)
}

func (r *Router) callLocal(ctx context.Context, callee *Session, invocationID uint64, handler ProcedureFunc, args []any, kwargs map[string]any, cancelMode *CancelMode) (*Message, *Error) {
	handlerCtx, cancel := context.WithCancel(ctx)
	callee.mu.Lock()
	callee.cancels[invocationID] = cancel
	callee.mu.Unlock()
	defer func() {
		callee.mu.Lock()
		delete(callee.cancels, invocationID)
		callee.mu.Unlock()
	}()

	resultCh := make(chan callResult, 1)
	go func() {
		msg, err := handler(handlerCtx, args, kwargs)
		resultCh <- callResult{msg, err}
	}()

	select {
	case res := <-resultCh:
		return res.msg, res.err
	case <-ctx.Done():
		switch *cancelMode {
		case CancelKill:
			cancel()
			res := <-resultCh
			return res.msg, res.err
		case CancelKillNoWait:
			cancel()
			return nil, newError(ErrCanceled, "call canceled")
		default: // CancelSkip
			return nil, newError(ErrCanceled, "call canceled")
		}
	}
}

func (r *Router) callWire(ctx context.Context, callee *Session, invocationID uint64, procedure string, args []any, kwargs map[string]any, cancelMode *CancelMode) (*Message, *Error) {
	ch := make(chan callResult, 1)
	r.pendingInvocations.Store(invocationID, ch)
	defer r.pendingInvocations.Delete(invocationID)

	if err := callee.transport.Send(Message{Type: MsgInvocation, ID: invocationID, URI: procedure, Args: args, Kwargs: kwargs}); err != nil {
		return nil, newError(ErrInternal, "failed to deliver invocation: "+err.Error())
	}

	select {
	case res := <-ch:
		return res.msg, res.err
	case <-ctx.Done():
		mode := *cancelMode
		if mode != CancelSkip {
			_ = callee.transport.Send(Message{Type: MsgInterrupt, ID: invocationID})
		}
		if mode != CancelKill {
			return nil, newError(ErrCanceled, "call canceled")
		}
		res := <-ch // wait for the callee's post-interrupt response
		return res.msg, res.err
	}
}

// resolveInvocation is called by a wire session's reader loop when a
// YIELD or ERROR arrives for a pending invocation it issued as a callee
// response (session.go).
func (r *Router) resolveInvocation(invocationID uint64, msg *Message, err *Error) {
	if v, ok := r.pendingInvocations.Load(invocationID); ok {
		v.(chan callResult) <- callResult{msg, err}
	}
}
