package wamp

import "sync"

// InvocationPolicy selects which registered callee receives a CALL when
// more than one has registered the same procedure under a shared
// registration (spec §6.4: "invocation policies
// (Single/First/RoundRobin/Random/Last)").
type InvocationPolicy string

const (
	InvocationSingle     InvocationPolicy = "single"
	InvocationFirst      InvocationPolicy = "first"
	InvocationRoundRobin InvocationPolicy = "roundrobin"
	InvocationRandom     InvocationPolicy = "random"
	InvocationLast       InvocationPolicy = "last"
)

// Subscription is one SUBSCRIBE registration against a topic pattern.
type Subscription struct {
	ID        uint64
	SessionID SessionID
	Topic     string
	Policy    MatchPolicy
}

// Registration is one REGISTER against a procedure pattern. Multiple
// sessions may share a registration id bucket under the same procedure
// when Policy != Single; Callees lists every session currently willing
// to serve it, in registration order.
type Registration struct {
	ID       uint64
	Procedure string
	Policy    MatchPolicy
	Invoke    InvocationPolicy
	Callees   []SessionID
	next      int // round-robin cursor
}

// Realm is one isolated namespace of subscriptions and registrations
// (spec glossary "realm"). Sessions in different realms never see each
// other's events or procedures.
type Realm struct {
	Name string

	mu            sync.RWMutex
	subscriptions map[uint64]*Subscription
	registrations map[uint64]*Registration
}

func newRealm(name string) *Realm {
	return &Realm{
		Name:          name,
		subscriptions: map[uint64]*Subscription{},
		registrations: map[uint64]*Registration{},
	}
}

func (r *Realm) addSubscription(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[sub.ID] = sub
}

func (r *Realm) removeSubscription(id uint64) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := r.subscriptions[id]
	delete(r.subscriptions, id)
	return sub
}

// matchingSubscribers returns every subscription whose pattern matches
// topic, for PUBLISH fan-out.
func (r *Realm) matchingSubscribers(topic string) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Subscription
	for _, sub := range r.subscriptions {
		if uriMatches(sub.Topic, topic, sub.Policy) {
			out = append(out, sub)
		}
	}
	return out
}

// register looks up an existing registration for
// (procedure, policy) to join (when invoke != Single, several callees may
// share one registration id), or creates a new one.
func (r *Realm) register(procedure string, policy MatchPolicy, invoke InvocationPolicy, session SessionID, newID func() uint64) (*Registration, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if invoke == "" {
		invoke = InvocationSingle
	}

	for _, reg := range r.registrations {
		if reg.Procedure == procedure {
			if invoke == InvocationSingle || reg.Invoke == InvocationSingle {
				return nil, newError(ErrProcedureExists, "procedure already registered: "+procedure)
			}
			reg.Callees = append(reg.Callees, session)
			return reg, nil
		}
	}

	reg := &Registration{ID: newID(), Procedure: procedure, Policy: policy, Invoke: invoke, Callees: []SessionID{session}}
	r.registrations[reg.ID] = reg
	return reg, nil
}

func (r *Realm) unregister(regID uint64, session SessionID) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[regID]
	if !ok {
		return newError(ErrNoSuchRegistration, "no such registration")
	}
	for i, s := range reg.Callees {
		if s == session {
			reg.Callees = append(reg.Callees[:i], reg.Callees[i+1:]...)
			break
		}
	}
	if len(reg.Callees) == 0 {
		delete(r.registrations, regID)
	}
	return nil
}

// removeSession drops every subscription/registration owned by session,
// e.g. on disconnect (spec §6.4 "callee-disappearance handling").
func (r *Realm) removeSession(session SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subscriptions {
		if sub.SessionID == session {
			delete(r.subscriptions, id)
		}
	}
	for id, reg := range r.registrations {
		kept := reg.Callees[:0]
		for _, s := range reg.Callees {
			if s != session {
				kept = append(kept, s)
			}
		}
		reg.Callees = kept
		if len(reg.Callees) == 0 {
			delete(r.registrations, id)
		}
	}
}

func (r *Realm) findProcedure(uri string) (*Registration, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.registrations {
		if uriMatches(reg.Procedure, uri, reg.Policy) {
			return reg, nil
		}
	}
	return nil, newError(ErrNoSuchProcedure, "no such procedure: "+uri)
}

// pickCallee resolves which callee session serves the next CALL, per the
// registration's invocation policy (spec §6.4).
func (r *Realm) pickCallee(reg *Registration, rnd func(n int) int) SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(reg.Callees) == 1 {
		return reg.Callees[0]
	}

	switch reg.Invoke {
	case InvocationFirst:
		return reg.Callees[0]
	case InvocationLast:
		return reg.Callees[len(reg.Callees)-1]
	case InvocationRandom:
		return reg.Callees[rnd(len(reg.Callees))]
	case InvocationRoundRobin:
		callee := reg.Callees[reg.next%len(reg.Callees)]
		reg.next++
		return callee
	default:
		return reg.Callees[0]
	}
}
