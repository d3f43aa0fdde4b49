package voting

import (
	"testing"

	"github.com/princinho/stackforum/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Direction{"up": Up, "down": Down, " UP ": Up} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "sideways", "1", "-1"} {
		_, err := ParseDirection(in)
		require.Error(t, err, in)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}
}

func TestNext_TransitionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cur  State
		dir  Direction
		want State
	}{
		{StateNone, Up, StateUp},
		{StateNone, Down, StateDown},
		{StateUp, Up, StateNone},
		{StateUp, Down, StateDown},
		{StateDown, Down, StateNone},
		{StateDown, Up, StateUp},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Next(tt.cur, tt.dir), "%s + %s", tt.cur, tt.dir)
	}
	assert.Equal(t, StateDown, Next(StateDown, Direction("bogus")))
}

func TestSnapshotWith_KeepsSetsExclusive(t *testing.T) {
	t.Parallel()

	a, b := bson.NewObjectID(), bson.NewObjectID()
	s := Snapshot{Up: []bson.ObjectID{a, b}, Down: []bson.ObjectID{}}

	s = s.With(a, StateDown)
	assert.Equal(t, []bson.ObjectID{b}, s.Up)
	assert.Equal(t, []bson.ObjectID{a}, s.Down)
	assert.Equal(t, StateDown, s.StateOf(a))

	s = s.With(a, StateNone)
	assert.Empty(t, s.Down)
	assert.Equal(t, StateNone, s.StateOf(a))
	assert.Equal(t, 1, s.Upvotes())
	assert.Equal(t, 1, s.Score())
}

func TestSnapshot_CorruptedMembershipIsRepaired(t *testing.T) {
	t.Parallel()

	u := bson.NewObjectID()
	s := Snapshot{Up: []bson.ObjectID{u}, Down: []bson.ObjectID{u, bson.NewObjectID()}}
	require.Equal(t, StateUp, s.StateOf(u))

	next, ok := Swap(s, u, StateUp, Next(StateUp, Down))
	require.True(t, ok)
	assert.Empty(t, next.Up)
	assert.Len(t, next.Down, 2)
	assert.Equal(t, StateDown, next.StateOf(u))
}

func TestSnapshotScore_ClampedAtZero(t *testing.T) {
	t.Parallel()

	s := Snapshot{Down: []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}}
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, 2, s.Downvotes())
}

func TestSwap_RejectsStaleState(t *testing.T) {
	t.Parallel()

	u := bson.NewObjectID()
	s := Snapshot{Up: []bson.ObjectID{u}}

	_, ok := Swap(s, u, StateNone, StateUp)
	assert.False(t, ok)
}

func TestSnapshotClone_IsIndependent(t *testing.T) {
	t.Parallel()

	u := bson.NewObjectID()
	s := Snapshot{Up: []bson.ObjectID{u}}
	c := s.Clone()
	c.Up[0] = bson.NewObjectID()
	assert.Equal(t, u, s.Up[0])
}
