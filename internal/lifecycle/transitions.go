package lifecycle

import "plexshelf/internal/store"

var allowedTransitions = map[store.MatchStatus][]store.MatchStatus{
	store.StatusPending:  {store.StatusApproved, store.StatusRejected},
	store.StatusApproved: {store.StatusRejected},
	store.StatusRejected: {store.StatusPending},
}

// CanTransition reports whether a match may move from one status to another.
// Same-status requests are handled by callers as no-ops.
func CanTransition(from, to store.MatchStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
