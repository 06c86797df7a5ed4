package presence

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func event(actor primitive.ObjectID, session string, status PresenceStatus, at time.Time) PresenceEvent {
	return PresenceEvent{
		ID:      primitive.NewObjectID(),
		Actor:   actor,
		Session: session,
		Status:  status,
		At:      at,
	}
}

func TestDeriveEmptyFeedIsOffline(t *testing.T) {
	if got := Derive(nil); got != StatusOffline {
		t.Errorf("Derive(nil) = %q, want offline", got)
	}
}

func TestDeriveLatestEventWins(t *testing.T) {
	actor := primitive.NewObjectID()
	base := time.Now()

	events := []PresenceEvent{
		event(actor, "s1", StatusOnline, base),
		event(actor, "s1", StatusAway, base.Add(time.Minute)),
		event(actor, "s2", StatusOnline, base.Add(30*time.Second)),
	}

	if got := Derive(events); got != StatusAway {
		t.Errorf("Derive = %q, want away", got)
	}
}

func TestDeriveIsCommutative(t *testing.T) {
	actor := primitive.NewObjectID()
	base := time.Now()

	events := []PresenceEvent{
		event(actor, "s1", StatusOnline, base),
		event(actor, "s2", StatusAway, base.Add(time.Second)),
		event(actor, "s3", StatusOffline, base.Add(2*time.Second)),
	}

	orders := [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 2, 0},
		{2, 0, 1},
	}
	for _, order := range orders {
		shuffled := make([]PresenceEvent, 0, len(events))
		for _, i := range order {
			shuffled = append(shuffled, events[i])
		}
		if got := Derive(shuffled); got != StatusOffline {
			t.Errorf("Derive(order %v) = %q, want offline", order, got)
		}
	}
}

func TestDeriveTiesBreakBySession(t *testing.T) {
	actor := primitive.NewObjectID()
	at := time.Now()

	a := event(actor, "aaa", StatusOnline, at)
	b := event(actor, "zzz", StatusAway, at)

	// the lexicographically greater session wins, in either delivery order
	if got := Derive([]PresenceEvent{a, b}); got != StatusAway {
		t.Errorf("Derive(a,b) = %q, want away", got)
	}
	if got := Derive([]PresenceEvent{b, a}); got != StatusAway {
		t.Errorf("Derive(b,a) = %q, want away", got)
	}
}

func TestDeriveAllSeparatesActors(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	base := time.Now()

	statuses := DeriveAll([]PresenceEvent{
		event(alice, "s1", StatusOnline, base),
		event(bob, "s1", StatusAway, base),
		event(alice, "s2", StatusOffline, base.Add(time.Second)),
	})

	if statuses[alice] != StatusOffline {
		t.Errorf("alice = %q, want offline", statuses[alice])
	}
	if statuses[bob] != StatusAway {
		t.Errorf("bob = %q, want away", statuses[bob])
	}
}
