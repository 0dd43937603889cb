package battle

import "sort"

// TieBreakPolicy resolves equal-speed ties in the turn-order sort
// (spec §4.1 "Speed ... Ties are broken by a configurable policy").
type TieBreakPolicy int

const (
	TieBreakKeep TieBreakPolicy = iota
	TieBreakRandomize
)

// Queue is the per-turn action queue. It is a thin slice wrapper so sort
// and pop semantics live in one place, grounded on the teacher's
// channel-backed job queue (internal/worker.Pool) generalized from a
// concurrent channel to an in-process slice, since the engine is
// single-threaded (spec §5).
type Queue struct {
	actions []Action
}

func (q *Queue) push(a Action) {
	a.order = len(q.actions)
	q.actions = append(q.actions, a)
}

func (q *Queue) empty() bool { return len(q.actions) == 0 }

func (q *Queue) popFront() (Action, bool) {
	if len(q.actions) == 0 {
		return Action{}, false
	}
	a := q.actions[0]
	q.actions = q.actions[1:]
	return a, true
}

// sortQueue resolves each action's priority/speed and stable-sorts it per
// spec §4.1. actionPriority and actionSpeed are Engine methods since they
// depend on boost tables and event-modified priority.
func (e *Engine) sortQueue() {
	for i := range e.queue.actions {
		a := &e.queue.actions[i]
		a.priority = e.actionPriority(*a)
		a.speed = e.actionSpeed(*a)
	}

	switch e.tieBreak {
	case TieBreakRandomize:
		// Assign a coin-flip tiebreak key per adjacent equal pair by doing a
		// randomized stable sort: attach a random number only used when
		// category/priority/speed are exactly equal.
		keys := make([]int, len(e.queue.actions))
		for i := range keys {
			keys[i] = e.prng.Range(0, 1<<30)
		}
		sort.SliceStable(e.queue.actions, func(i, j int) bool {
			if less, eq := compareActions(e.queue.actions[i], e.queue.actions[j]); !eq {
				return less
			}
			return keys[i] < keys[j]
		})
	default:
		sort.SliceStable(e.queue.actions, func(i, j int) bool {
			less, _ := compareActions(e.queue.actions[i], e.queue.actions[j])
			return less
		})
	}
}

// compareActions reports (less, equalOnOrderedFields). equalOnOrderedFields
// is true when category, priority and speed are all equal, meaning the
// caller must fall back to insertion order or a tiebreak key.
func compareActions(a, b Action) (less bool, equal bool) {
	ac, bc := a.category(), b.category()
	if ac != bc {
		return ac < bc, false
	}
	if a.priority != b.priority {
		return a.priority > b.priority, false
	}
	if a.speed != b.speed {
		return a.speed > b.speed, false
	}
	return a.order < b.order, true
}
