// Package voting keeps the per-user vote state of questions and answers.
//
// Each votable entity stores two membership sets of user ids, one per
// direction. A user is in at most one of them. Counters are always the size
// of the sets and are never adjusted on their own.
package voting

import (
	"slices"
	"strings"

	"github.com/princinho/stackforum/apperrors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts only "up" and "down".
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	}
	return "", apperrors.Validation(`voteType must be "up" or "down"`)
}

type State int

const (
	StateNone State = iota
	StateUp
	StateDown
)

func (s State) String() string {
	switch s {
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	default:
		return "none"
	}
}

// Next returns the state reached when a user in state cur votes dir.
// Repeating the current direction clears the vote, the other direction
// switches it.
func Next(cur State, dir Direction) State {
	switch dir {
	case Up:
		if cur == StateUp {
			return StateNone
		}
		return StateUp
	case Down:
		if cur == StateDown {
			return StateNone
		}
		return StateDown
	}
	return cur
}

// Snapshot is the vote membership of one entity.
type Snapshot struct {
	Up   []bson.ObjectID `bson:"upvotedBy"`
	Down []bson.ObjectID `bson:"downvotedBy"`
}

func (s Snapshot) Upvotes() int   { return len(s.Up) }
func (s Snapshot) Downvotes() int { return len(s.Down) }

// Score is the net score clamped at zero.
func (s Snapshot) Score() int {
	return max(0, len(s.Up)-len(s.Down))
}

// StateOf reports the vote of user. A user found in both sets (corrupted
// data) is reported as an upvote so the next vote moves it to a clean state.
func (s Snapshot) StateOf(user bson.ObjectID) State {
	switch {
	case slices.Contains(s.Up, user):
		return StateUp
	case slices.Contains(s.Down, user):
		return StateDown
	default:
		return StateNone
	}
}

// With returns a copy of the snapshot where user is in state st and in no
// other set.
func (s Snapshot) With(user bson.ObjectID, st State) Snapshot {
	out := Snapshot{
		Up:   without(s.Up, user),
		Down: without(s.Down, user),
	}
	switch st {
	case StateUp:
		out.Up = append(out.Up, user)
	case StateDown:
		out.Down = append(out.Down, user)
	}
	return out
}

func without(ids []bson.ObjectID, user bson.ObjectID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id != user {
			out = append(out, id)
		}
	}
	return out
}

// Result is what a vote reports back to the caller.
type Result struct {
	Upvotes   int
	Downvotes int
	Score     int
	State     State
}

func (r Result) HasUpvoted() bool   { return r.State == StateUp }
func (r Result) HasDownvoted() bool { return r.State == StateDown }

func ResultFor(s Snapshot, user bson.ObjectID) Result {
	return Result{
		Upvotes:   s.Upvotes(),
		Downvotes: s.Downvotes(),
		Score:     s.Score(),
		State:     s.StateOf(user),
	}
}

// Swap is the compare-and-set step on an in-memory snapshot: it returns the
// snapshot with user moved to state to, or ok == false when user is no
// longer in state from.
func Swap(s Snapshot, user bson.ObjectID, from, to State) (next Snapshot, ok bool) {
	if s.StateOf(user) != from {
		return Snapshot{}, false
	}
	return s.With(user, to), true
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Up:   append([]bson.ObjectID{}, s.Up...),
		Down: append([]bson.ObjectID{}, s.Down...),
	}
}
