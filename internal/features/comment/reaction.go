package comment

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toggleReaction adds or removes actor under kind. It reports whether the map
// changed: adding a held reaction and removing an absent one are both no-ops.
func toggleReaction(reactions map[string][]primitive.ObjectID, kind ReactionKind, actor primitive.ObjectID, add bool) bool {
	holders := reactions[string(kind)]
	idx := -1
	for i, h := range holders {
		if h == actor {
			idx = i
			break
		}
	}

	if add {
		if idx >= 0 {
			return false
		}
		reactions[string(kind)] = append(holders, actor)
		return true
	}

	if idx < 0 {
		return false
	}
	reactions[string(kind)] = append(holders[:idx], holders[idx+1:]...)
	return true
}

// ReactionCounts tallies distinct actors per kind.
func ReactionCounts(reactions map[string][]primitive.ObjectID) map[string]int {
	counts := make(map[string]int, len(reactions))
	for kind, holders := range reactions {
		if len(holders) > 0 {
			counts[kind] = len(holders)
		}
	}
	return counts
}
