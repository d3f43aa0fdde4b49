package voting

import (
	"context"
	"log/slog"

	"github.com/princinho/stackforum/apperrors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store is the persistence a Ledger needs for one kind of entity.
type Store interface {
	// LoadVotes returns the vote sets of entity id or a not_found error.
	LoadVotes(ctx context.Context, id bson.ObjectID) (Snapshot, error)
	// SwapVote moves user from state from to state to in a single
	// document write. It only applies when the stored state of user is
	// still from; otherwise it reports swapped == false and changes nothing.
	SwapVote(ctx context.Context, id, user bson.ObjectID, from, to State) (after Snapshot, swapped bool, err error)
}

const defaultMaxAttempts = 5

type Ledger struct {
	store       Store
	entity      string
	maxAttempts int
}

// NewLedger returns a ledger for the entity kind named entity ("question",
// "answer"), used in error messages.
func NewLedger(store Store, entity string) *Ledger {
	return &Ledger{store: store, entity: entity, maxAttempts: defaultMaxAttempts}
}

// ApplyVote applies dir for user on entity id. Concurrent votes by the same
// user are serialised by the conditional swap: a request that lost the race
// re-reads the state and applies its transition on top of the winner's.
func (l *Ledger) ApplyVote(ctx context.Context, id, user bson.ObjectID, dir Direction) (Result, error) {
	if user.IsZero() {
		return Result{}, apperrors.Unauthenticated("authentication required")
	}
	if dir != Up && dir != Down {
		return Result{}, apperrors.Validation(`voteType must be "up" or "down"`)
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		snap, err := l.store.LoadVotes(ctx, id)
		if err != nil {
			return Result{}, err
		}
		from := snap.StateOf(user)
		to := Next(from, dir)

		after, swapped, err := l.store.SwapVote(ctx, id, user, from, to)
		if err != nil {
			return Result{}, err
		}
		if swapped {
			return ResultFor(after, user), nil
		}
		slog.DebugContext(ctx, "vote state changed concurrently, retrying",
			"entity", l.entity, "id", id.Hex(), "attempt", attempt)
	}
	return Result{}, apperrors.Internal("too many concurrent votes on "+l.entity, nil)
}
