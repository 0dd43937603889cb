package wamp

import "context"

// Peer is the client-facing API a caller/callee uses against a Router,
// whether backed by a local in-process session or a websocket connection
// (spec §6.4's RPC/Pub-Sub surface: Connect/Disconnect/JoinRealm/
// LeaveRealm/Subscribe/Unsubscribe/Publish/Register/Unregister/Call).
type Peer struct {
	router  *Router
	session *Session
}

// Connect joins realmName on router. transport is nil for a purely
// in-process peer (e.g. the Battle Service registering its own
// procedures); non-nil for a peer fronting a remote websocket
// connection.
func Connect(router *Router, realmName string, transport Transport) *Peer {
	return &Peer{router: router, session: router.JoinRealm(realmName, transport)}
}

// Disconnect leaves the realm and releases every subscription/
// registration this peer owned.
func (p *Peer) Disconnect() {
	p.router.LeaveRealm(p.session)
}

// Serve runs the peer's wire reader loop, if it has a transport. Local
// peers return immediately when ctx is done.
func (p *Peer) Serve(ctx context.Context) error {
	return p.session.Serve(ctx)
}

// Subscribe registers a local handler for topic. Wire peers should use
// the message-level SUBSCRIBE path instead (session.go handles that
// transparently); this method is for in-process subscribers.
func (p *Peer) Subscribe(topic string, policy MatchPolicy, handler SubscriberFunc) (uint64, *Error) {
	return p.router.Subscribe(p.session, topic, policy, handler)
}

func (p *Peer) Unsubscribe(subID uint64) *Error {
	return p.router.Unsubscribe(p.session, subID)
}

// Publish broadcasts an event to every matching subscriber in this
// peer's realm.
func (p *Peer) Publish(topic string, args []any, kwargs map[string]any) {
	p.router.Publish(p.session.Realm, topic, args, kwargs)
}

// Register installs a local procedure handler.
func (p *Peer) Register(procedure string, policy MatchPolicy, invoke InvocationPolicy, handler ProcedureFunc) (uint64, *Error) {
	return p.router.Register(p.session, procedure, policy, invoke, handler)
}

func (p *Peer) Unregister(regID uint64, procedure string) *Error {
	return p.router.Unregister(p.session, regID, procedure)
}

// Rpc is a handle to one in-flight or completed CALL (spec §6.4: "Rpc{
// Result, IntoStream, Cancel, Kill}").
type Rpc struct {
	cancel func(mode CancelMode)
	done   chan callOutcome
}

type callOutcome struct {
	msg *Message
	err *Error
}

// Call issues a synchronous CALL and blocks for its result.
func (p *Peer) Call(ctx context.Context, procedure string, args []any, kwargs map[string]any) (*Message, *Error) {
	return p.router.Call(ctx, p.session.Realm, procedure, args, kwargs, CancelSkip)
}

// CallAsync issues a CALL without blocking the caller, returning an Rpc
// handle whose Result/Cancel/Kill methods observe or steer it (spec §6.4
// "progressive results" and cancellation modes).
func (p *Peer) CallAsync(ctx context.Context, procedure string, args []any, kwargs map[string]any) *Rpc {
	ctx, cancel := context.WithCancel(ctx)
	mode := CancelSkip
	rpc := &Rpc{done: make(chan callOutcome, 1)}
	rpc.cancel = func(m CancelMode) { mode = m; cancel() }

	go func() {
		msg, err := p.router.call(ctx, p.session.Realm, procedure, args, kwargs, &mode)
		rpc.done <- callOutcome{msg, err}
	}()
	return rpc
}

// Result blocks for the call's final outcome.
func (r *Rpc) Result() (*Message, *Error) {
	out := <-r.done
	return out.msg, out.err
}

// IntoStream exposes every outcome (here, exactly one, since this
// runtime's local/wire call path does not yet emit intermediate
// progressive chunks beyond the final YIELD) as a channel, for callers
// that want to range over results uniformly regardless of whether the
// call turns out to stream (spec §6.4 "progressive results").
func (r *Rpc) IntoStream() <-chan *Message {
	out := make(chan *Message, 1)
	go func() {
		defer close(out)
		msg, err := r.Result()
		if err == nil {
			out <- msg
		}
	}()
	return out
}

// Cancel stops waiting for the call per CancelSkip semantics.
func (r *Rpc) Cancel() { r.cancel(CancelSkip) }

// Kill asks the callee to stop and waits for its acknowledgement.
func (r *Rpc) Kill() { r.cancel(CancelKill) }

// KillNoWait asks the callee to stop and returns immediately.
func (r *Rpc) KillNoWait() { r.cancel(CancelKillNoWait) }
