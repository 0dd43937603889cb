package wamp

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Serve runs a wire session's reader loop until the transport closes or
// ctx is canceled, dispatching each incoming Message to the router (spec
// §6.4 "per-session reader/writer goroutine pairs", grounded on the
// teacher's use of golang.org/x/sync/errgroup to supervise paired
// goroutines and propagate the first error). The writer side is the
// transport itself: Router.Publish/Call write directly via
// Session.transport.Send, so only a reader goroutine is needed here; the
// errgroup still gives this a single place to wire future writer-side
// work (e.g. a heartbeat) without changing the call site.
func (s *Session) Serve(ctx context.Context) error {
	if s.transport == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			msg, err := s.transport.Receive(ctx)
			if err != nil {
				return err
			}
			s.handleIncoming(msg)
		}
	})
	return g.Wait()
}

func (s *Session) handleIncoming(msg Message) {
	switch msg.Type {
	case MsgSubscribe:
		id, err := s.router.Subscribe(s, msg.URI, policyFromOptions(msg.Options), nil)
		s.reply(msg.ID, MsgSubscribed, id, err)

	case MsgUnsubscribe:
		err := s.router.Unsubscribe(s, msg.ID)
		s.reply(msg.ID, MsgUnsubscribed, msg.ID, err)

	case MsgPublish:
		s.router.Publish(s.Realm, msg.URI, msg.Args, msg.Kwargs)

	case MsgRegister:
		id, err := s.router.Register(s, msg.URI, policyFromOptions(msg.Options), invokeFromOptions(msg.Options), nil)
		s.reply(msg.ID, MsgRegistered, id, err)

	case MsgUnregister:
		err := s.router.Unregister(s, msg.ID, msg.URI)
		s.reply(msg.ID, MsgUnregistered, msg.ID, err)

	case MsgCall:
		go func() {
			result, err := s.router.Call(context.Background(), s.Realm, msg.URI, msg.Args, msg.Kwargs, CancelSkip)
			if err != nil {
				_ = s.transport.Send(Message{Type: MsgError, ID: msg.ID, ErrorKind: string(err.Kind), Reason: err.Reason})
				return
			}
			result.Type = MsgResult
			result.ID = msg.ID
			_ = s.transport.Send(*result)
		}()

	case MsgYield:
		var em *Error
		s.router.resolveInvocation(msg.ID, &msg, em)

	case MsgError:
		em := &Error{Kind: ErrorKind(msg.ErrorKind), Reason: msg.Reason, Message: msg.Reason}
		s.router.resolveInvocation(msg.ID, nil, em)

	case MsgGoodbye:
		s.router.LeaveRealm(s)
		_ = s.transport.Close()
	}
}

func (s *Session) reply(id uint64, typ MessageType, subID uint64, err *Error) {
	if s.transport == nil {
		return
	}
	if err != nil {
		_ = s.transport.Send(Message{Type: MsgError, ID: id, ErrorKind: string(err.Kind), Reason: err.Reason})
		return
	}
	_ = s.transport.Send(Message{Type: typ, ID: subID})
}

func policyFromOptions(opts map[string]any) MatchPolicy {
	if v, ok := opts["match"].(string); ok {
		return MatchPolicy(v)
	}
	return MatchExact
}

func invokeFromOptions(opts map[string]any) InvocationPolicy {
	if v, ok := opts["invoke"].(string); ok {
		return InvocationPolicy(v)
	}
	return InvocationSingle
}
