package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoQuestions struct {
	voteCollection
}

func NewMongoQuestions(col *mongo.Collection) *MongoQuestions {
	return &MongoQuestions{
		voteCollection: voteCollection{col: col, entity: "question"},
	}
}

func (r *MongoQuestions) Create(ctx context.Context, q *models.Question) error {
	if q.ID.IsZero() {
		q.ID = bson.NewObjectID()
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	// vote sets start empty, never null, so $size always has an array
	q.UpvotedBy, q.DownvotedBy = []bson.ObjectID{}, []bson.ObjectID{}
	q.Upvotes, q.Downvotes = 0, 0

	if _, err := r.col.InsertOne(ctx, q); err != nil {
		return apperrors.Internal("insert question", err)
	}
	return nil
}

func (r *MongoQuestions) FindByID(ctx context.Context, id bson.ObjectID) (*models.Question, error) {
	var q models.Question
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, findErr(err, "question")
	}
	return &q, nil
}

func (r *MongoQuestions) List(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error) {
	filter := bson.M{}
	var and []bson.M
	switch {
	case f.IncludeUnapproved:
	case f.Owner.IsZero():
		filter["isApproved"] = true
	default:
		and = append(and, bson.M{"$or": []bson.M{{"isApproved": true}, {"userId": f.Owner}}})
	}
	if f.Resolved != nil {
		filter["isResolved"] = *f.Resolved
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.Query != "" {
		escaped := regexp.QuoteMeta(f.Query)
		and = append(and, bson.M{"$or": []bson.M{
			{"title": bson.M{"$regex": escaped, "$options": "i"}},
			{"tags": bson.M{"$regex": escaped, "$options": "i"}},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}

	sortDoc := bson.D{{Key: "createdAt", Value: -1}}
	if f.Sort == SortVotes {
		sortDoc = bson.D{{Key: "upvotes", Value: -1}, {Key: "downvotes", Value: 1}, {Key: "createdAt", Value: -1}}
	}

	opts := options.Find().
		SetSkip(int64(f.skip())).
		SetLimit(int64(f.Limit)).
		SetSort(sortDoc)

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperrors.Internal("find questions", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Question, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, apperrors.Internal("decode questions", err)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal("count questions", err)
	}
	return items, total, nil
}

func (r *MongoQuestions) AcceptAnswer(ctx context.Context, id, answerID bson.ObjectID) error {
	return r.update(ctx, id, bson.M{
		"acceptedAnswerId": answerID,
		"isResolved":       true,
	})
}

func (r *MongoQuestions) SetApproved(ctx context.Context, id bson.ObjectID, approved bool) error {
	return r.update(ctx, id, bson.M{"isApproved": approved})
}

func (r *MongoQuestions) update(ctx context.Context, id bson.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return apperrors.Internal("update question", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("question not found")
	}
	return nil
}
