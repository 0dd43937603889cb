// Package logsplit fans a battle's event stream to one public log and one
// private log per side, redacting side-private entries for everyone but
// that side's observers (spec §4.4).
package logsplit

import (
	"fmt"
	"sync"
)

// subscriberBuffer is the channel capacity for one live subscription. A
// slow subscriber falls behind rather than blocking the publisher (spec
// §4.4 "lossy-but-ordered"), grounded on the teacher's buffered-channel
// load-shedding shape in internal/worker.Pool, generalized from a job
// queue to a per-subscriber broadcast buffer.
const subscriberBuffer = 256

// stream is one append-only ordered log: a materialized history plus a set
// of live subscriber channels.
type stream struct {
	mu      sync.RWMutex
	history []string
	subs    map[int]*subscriber
	nextID  int
}

type subscriber struct {
	ch      chan string
	dropped int
}

func newStream() *stream {
	return &stream{subs: make(map[int]*subscriber)}
}

func (s *stream) append(entry string) {
	s.mu.Lock()
	s.history = append(s.history, entry)
	for _, sub := range s.subs {
		sub.send(entry)
	}
	s.mu.Unlock()
}

// send delivers entry without blocking the publisher. When the
// subscriber's buffer is full, the two oldest buffered entries are evicted
// and a gap marker describing the loss is queued ahead of the new entry.
func (sub *subscriber) send(entry string) {
	select {
	case sub.ch <- entry:
		return
	default:
	}

	for i := 0; i < 2; i++ {
		select {
		case <-sub.ch:
			sub.dropped++
		default:
		}
	}

	gap := fmt.Sprintf("gap|count:%d", sub.dropped)
	select {
	case sub.ch <- gap:
	default:
	}
	select {
	case sub.ch <- entry:
	default:
		sub.dropped++
	}
}

// subscribe snapshots the current history and registers a live channel for
// entries appended afterward, so History()+channel equals the complete log
// (spec §8 "Subscription catch-up").
func (s *stream) subscribe() (history []string, ch <-chan string, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscriber{ch: make(chan string, subscriberBuffer)}
	s.subs[id] = sub

	hist := make([]string, len(s.history))
	copy(hist, s.history)

	return hist, sub.ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.ch)
		}
	}
}

func (s *stream) snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Splitter owns one public log and one private log per side.
type Splitter struct {
	public *stream
	sides  []*stream
}

// New builds a Splitter for a battle with the given number of sides
// (always 2 for this module's battle types, but left general).
func New(numSides int) *Splitter {
	sp := &Splitter{public: newStream(), sides: make([]*stream, numSides)}
	for i := range sp.sides {
		sp.sides[i] = newStream()
	}
	return sp
}

// Emit fans a non-split entry identically to every log (spec §4.4 "All
// other entries fan out to every log").
func (sp *Splitter) Emit(entry string) {
	sp.public.append(entry)
	for _, s := range sp.sides {
		s.append(entry)
	}
}

// EmitSplit delivers the side-private variant to side `side`'s log and the
// public variant to the public log and every other side's log, each
// immediately preceded by a "split|side:S" marker (spec §6.3).
func (sp *Splitter) EmitSplit(side int, privateEntry, publicEntry string) {
	marker := fmt.Sprintf("split|side:%d", side)

	for i, s := range sp.sides {
		s.append(marker)
		if i == side {
			s.append(privateEntry)
		} else {
			s.append(publicEntry)
		}
	}
	sp.public.append(marker)
	sp.public.append(publicEntry)
}

// FullLog returns the complete history for the public log (side == nil) or
// one side's private log.
func (sp *Splitter) FullLog(side *int) []string {
	if side == nil {
		return sp.public.snapshot()
	}
	return sp.sides[*side].snapshot()
}

// Subscribe returns the audience's history-so-far plus a channel of
// entries appended from this moment on, and a cancel func to unsubscribe.
func (sp *Splitter) Subscribe(side *int) (history []string, ch <-chan string, cancel func()) {
	if side == nil {
		return sp.public.subscribe()
	}
	return sp.sides[*side].subscribe()
}
