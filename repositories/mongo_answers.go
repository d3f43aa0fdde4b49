package repositories

import (
	"context"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoAnswers struct {
	voteCollection
}

func NewMongoAnswers(col *mongo.Collection) *MongoAnswers {
	return &MongoAnswers{
		voteCollection: voteCollection{col: col, entity: "answer", scoreField: "votes"},
	}
}

func (r *MongoAnswers) Create(ctx context.Context, a *models.Answer) error {
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	a.UpvotedBy, a.DownvotedBy = []bson.ObjectID{}, []bson.ObjectID{}
	a.Votes, a.Upvotes, a.Downvotes = 0, 0, 0

	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return apperrors.Internal("insert answer", err)
	}
	return nil
}

func (r *MongoAnswers) FindByID(ctx context.Context, id bson.ObjectID) (*models.Answer, error) {
	var a models.Answer
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, findErr(err, "answer")
	}
	return &a, nil
}

func (r *MongoAnswers) ListByQuestion(ctx context.Context, questionID bson.ObjectID) ([]models.Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "votes", Value: -1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, apperrors.Internal("find answers", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Answer, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, apperrors.Internal("decode answers", err)
	}
	return items, nil
}

func (r *MongoAnswers) CountByQuestions(ctx context.Context, questionIDs []bson.ObjectID) (map[bson.ObjectID]int64, error) {
	out := make(map[bson.ObjectID]int64, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"questionId": bson.M{"$in": questionIDs}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$questionId"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("count answers", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID    bson.ObjectID `bson:"_id"`
			Count int64         `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, apperrors.Internal("decode answer count", err)
		}
		out[row.ID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Internal("iterate answer counts", err)
	}
	return out, nil
}
