package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUsers()

	u := &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, r.Create(ctx, u))
	require.False(t, u.ID.IsZero())

	err := r.Create(ctx, &models.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	created, err := r.EnsureUser(ctx, &models.User{Email: "ada@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)

	name, profile := "Ada L.", "math"
	upd, err := r.UpdateProfile(ctx, u.ID, UserUpdate{Name: &name, Profile: &profile})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", upd.Name)
	assert.Equal(t, "math", upd.Profile)

	require.NoError(t, r.UpdatePasswordHash(ctx, u.ID, "h2"))
	require.NoError(t, r.UpdateRole(ctx, u.ID, models.RoleAdmin))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, "h2", got.PasswordHash)

	missing := bson.NewObjectID()
	byID, err := r.FindByIDs(ctx, []bson.ObjectID{u.ID, missing})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Empty(t, byID[u.ID].PasswordHash)

	_, err = r.FindByID(ctx, missing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, r.UpdateRole(ctx, missing, models.RoleUser), apperrors.ErrNotFound)
}

func TestMemoryUsersReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUsers()
	u := &models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, r.Create(ctx, u))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "changed"
	u.Name = "changed too"

	again, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name)
}

func TestMemoryQuestionsList(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryQuestions()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	author := bson.NewObjectID()

	seed := func(title string, tags []string, approved bool, age int, up int) bson.ObjectID {
		q := models.Question{ID: bson.NewObjectID(), UserID: author, Title: title, Tags: tags, IsApproved: approved,
			CreatedAt: base.Add(time.Duration(age) * time.Hour)}
		for range up {
			q.UpvotedBy = append(q.UpvotedBy, bson.NewObjectID())
		}
		q.Upvotes = up
		r.Seed(q)
		return q.ID
	}
	a := seed("How to use goroutines", []string{"go", "concurrency"}, true, 1, 0)
	b := seed("Channels vs mutexes", []string{"go"}, true, 2, 3)
	c := seed("Pending question", []string{"go"}, false, 3, 0)
	d := seed("Rust lifetimes", []string{"rust"}, true, 4, 1)

	ids := func(qs []models.Question) []bson.ObjectID {
		out := make([]bson.ObjectID, len(qs))
		for i, q := range qs {
			out[i] = q.ID
		}
		return out
	}

	qs, total, err := r.List(ctx, QuestionFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []bson.ObjectID{d, b, a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Limit: 10, IncludeUnapproved: true})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{d, c, b, a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Limit: 10, Owner: author})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{d, c, b, a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Limit: 10, Owner: bson.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{d, b, a}, ids(qs))

	qs, total, err = r.List(ctx, QuestionFilter{Tag: "go", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []bson.ObjectID{b, a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Query: "GOROUT", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Sort: SortVotes, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{b, d, a}, ids(qs))

	qs, total, err = r.List(ctx, QuestionFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []bson.ObjectID{a}, ids(qs))

	qs, _, err = r.List(ctx, QuestionFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestMemoryQuestionsVotingMirrorsCounters(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryQuestions()
	q := &models.Question{Title: "t", IsApproved: true}
	require.NoError(t, r.Create(ctx, q))

	ledger := voting.NewLedger(r, "question")
	u1, u2 := bson.NewObjectID(), bson.NewObjectID()
	_, err := ledger.ApplyVote(ctx, q.ID, u1, voting.Up)
	require.NoError(t, err)
	res, err := ledger.ApplyVote(ctx, q.ID, u2, voting.Down)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upvotes)
	assert.Equal(t, 1, res.Downvotes)

	got, err := r.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 1, got.Downvotes)
	assert.Equal(t, []bson.ObjectID{u1}, got.UpvotedBy)
	assert.Equal(t, []bson.ObjectID{u2}, got.DownvotedBy)

	_, err = ledger.ApplyVote(ctx, bson.NewObjectID(), u1, voting.Up)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryQuestionsAcceptAndApprove(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryQuestions()
	q := &models.Question{Title: "t"}
	require.NoError(t, r.Create(ctx, q))

	answerID := bson.NewObjectID()
	require.NoError(t, r.AcceptAnswer(ctx, q.ID, answerID))
	require.NoError(t, r.SetApproved(ctx, q.ID, true))

	got, err := r.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, got.IsResolved)
	assert.True(t, got.IsApproved)
	require.NotNil(t, got.AcceptedAnswerID)
	assert.Equal(t, answerID, *got.AcceptedAnswerID)

	assert.ErrorIs(t, r.SetApproved(ctx, bson.NewObjectID(), true), apperrors.ErrNotFound)
}

func TestMemoryAnswers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryAnswers()
	qid, other := bson.NewObjectID(), bson.NewObjectID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Answer{QuestionID: qid, Content: "first", CreatedAt: base}
	second := &models.Answer{QuestionID: qid, Content: "second", CreatedAt: base.Add(time.Hour)}
	third := &models.Answer{QuestionID: other, Content: "elsewhere", CreatedAt: base}
	for _, a := range []*models.Answer{first, second, third} {
		require.NoError(t, r.Create(ctx, a))
	}

	ledger := voting.NewLedger(r, "answer")
	_, err := ledger.ApplyVote(ctx, second.ID, bson.NewObjectID(), voting.Up)
	require.NoError(t, err)

	list, err := r.ListByQuestion(ctx, qid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 1, list[0].Votes)
	assert.Equal(t, first.ID, list[1].ID)

	counts, err := r.CountByQuestions(ctx, []bson.ObjectID{qid, other, bson.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, map[bson.ObjectID]int64{qid: 2, other: 1}, counts)
}

func TestMemoryAnswerScoreClampsAtZero(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryAnswers()
	a := &models.Answer{QuestionID: bson.NewObjectID(), Content: "x"}
	require.NoError(t, r.Create(ctx, a))

	ledger := voting.NewLedger(r, "answer")
	for range 3 {
		_, err := ledger.ApplyVote(ctx, a.ID, bson.NewObjectID(), voting.Down)
		require.NoError(t, err)
	}
	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Votes)
	assert.Equal(t, 3, got.Downvotes)
}

func TestMemoryReconcileVotes(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryAnswers()
	u, v := bson.NewObjectID(), bson.NewObjectID()

	broken := models.Answer{
		ID:          bson.NewObjectID(),
		UpvotedBy:   []bson.ObjectID{u, u, v},
		DownvotedBy: []bson.ObjectID{u},
		Upvotes:     7,
		Votes:       -2,
	}
	stale := models.Answer{ID: bson.NewObjectID(), UpvotedBy: []bson.ObjectID{u}, Upvotes: 9, Votes: 9}
	clean := models.Answer{ID: bson.NewObjectID(), UpvotedBy: []bson.ObjectID{v}, Upvotes: 1, Votes: 1}
	r.Seed(broken)
	r.Seed(stale)
	r.Seed(clean)

	n, err := r.ReconcileVotes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := r.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 1, got.Votes)

	n, err = r.ReconcileVotes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err = r.FindByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{u, v}, got.UpvotedBy)
	assert.Empty(t, got.DownvotedBy)
	assert.Equal(t, 2, got.Upvotes)
	assert.Equal(t, 0, got.Downvotes)
	assert.Equal(t, 2, got.Votes)
}
