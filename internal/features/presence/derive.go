package presence

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Derive computes an actor's current status from their feed: the event with
// the maximum timestamp wins; identical timestamps break by session
// identifier so the result is deterministic however events were delivered.
// An empty feed derives offline.
func Derive(events []PresenceEvent) PresenceStatus {
	var best *PresenceEvent
	for i := range events {
		ev := &events[i]
		if best == nil || later(ev, best) {
			best = ev
		}
	}
	if best == nil {
		return StatusOffline
	}
	return best.Status
}

func later(a, b *PresenceEvent) bool {
	if a.At.Equal(b.At) {
		return a.Session > b.Session
	}
	return a.At.After(b.At)
}

// DeriveAll computes every actor's status from a mixed feed.
func DeriveAll(events []PresenceEvent) map[primitive.ObjectID]PresenceStatus {
	best := make(map[primitive.ObjectID]*PresenceEvent)
	for i := range events {
		ev := &events[i]
		if cur, ok := best[ev.Actor]; !ok || later(ev, cur) {
			best[ev.Actor] = ev
		}
	}
	out := make(map[primitive.ObjectID]PresenceStatus, len(best))
	for actor, ev := range best {
		out[actor] = ev.Status
	}
	return out
}
