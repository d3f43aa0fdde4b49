// Package repositories persists users, questions and answers. Every
// repository has a MongoDB implementation and an in-memory one with the same
// behaviour, used by tests and by the memory driver.
package repositories

import (
	"context"

	"github.com/princinho/stackforum/database"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/voting"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserRepository interface {
	// Create inserts u. A taken email is reported as a conflict.
	Create(ctx context.Context, u *models.User) error
	// EnsureUser inserts u unless a user with the same email exists.
	EnsureUser(ctx context.Context, u *models.User) (created bool, err error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.User, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*models.User, error)
	UpdateRole(ctx context.Context, id bson.ObjectID, role models.Role) error
	UpdatePasswordHash(ctx context.Context, id bson.ObjectID, hash string) error
}

// UserUpdate lists the profile fields to change; nil means unchanged.
type UserUpdate struct {
	Name      *string
	Profile   *string
	AvatarURL *string
}

const (
	SortNewest = "newest"
	SortVotes  = "votes"
)

type QuestionFilter struct {
	Tag               string
	Query             string
	Sort              string
	Resolved          *bool // nil means both
	Page              int
	Limit             int
	IncludeUnapproved bool
	// Owner also sees their own unapproved questions.
	Owner bson.ObjectID
}

func (f QuestionFilter) skip() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type QuestionRepository interface {
	voting.Store
	Create(ctx context.Context, q *models.Question) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Question, error)
	// List returns one page of questions matching f and the total count.
	List(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error)
	AcceptAnswer(ctx context.Context, id, answerID bson.ObjectID) error
	SetApproved(ctx context.Context, id bson.ObjectID, approved bool) error
	// ReconcileVotes recomputes counters from the vote sets of every question.
	ReconcileVotes(ctx context.Context) (int64, error)
}

type AnswerRepository interface {
	voting.Store
	Create(ctx context.Context, a *models.Answer) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Answer, error)
	// ListByQuestion returns answers best score first, oldest first on ties.
	ListByQuestion(ctx context.Context, questionID bson.ObjectID) ([]models.Answer, error)
	CountByQuestions(ctx context.Context, questionIDs []bson.ObjectID) (map[bson.ObjectID]int64, error)
	ReconcileVotes(ctx context.Context) (int64, error)
}

// Set bundles the repositories the server works with.
type Set struct {
	Users     UserRepository
	Questions QuestionRepository
	Answers   AnswerRepository
}

func NewMemorySet() Set {
	return Set{
		Users:     NewMemoryUsers(),
		Questions: NewMemoryQuestions(),
		Answers:   NewMemoryAnswers(),
	}
}

// NewMongoSet builds the MongoDB repositories on db.
func NewMongoSet(db *database.DB) Set {
	return Set{
		Users:     NewMongoUsers(db.Collection(database.UsersCollection)),
		Questions: NewMongoQuestions(db.Collection(database.QuestionsCollection)),
		Answers:   NewMongoAnswers(db.Collection(database.AnswersCollection)),
	}
}
