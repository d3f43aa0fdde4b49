package repositories

import (
	"context"
	"errors"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/voting"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var voteProjection = bson.M{"upvotedBy": 1, "downvotedBy": 1}

// voteCollection implements voting.Store on a collection whose documents
// carry upvotedBy/downvotedBy arrays and upvotes/downvotes counters.
// scoreField, when set, also receives max(0, upvotes-downvotes).
type voteCollection struct {
	col        *mongo.Collection
	entity     string
	scoreField string
}

func (v voteCollection) LoadVotes(ctx context.Context, id bson.ObjectID) (voting.Snapshot, error) {
	var s voting.Snapshot
	opts := options.FindOne().SetProjection(voteProjection)
	if err := v.col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&s); err != nil {
		return voting.Snapshot{}, findErr(err, v.entity)
	}
	return s, nil
}

// SwapVote only matches the document while user still has vote state from,
// so two racing requests of the same user cannot both apply.
func (v voteCollection) SwapVote(ctx context.Context, id, user bson.ObjectID, from, to voting.State) (voting.Snapshot, bool, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(voteProjection)

	var s voting.Snapshot
	err := v.col.FindOneAndUpdate(ctx, membershipFilter(id, user, from), v.swapPipeline(user, to), opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return voting.Snapshot{}, false, nil
	}
	if err != nil {
		return voting.Snapshot{}, false, apperrors.Internal("vote on "+v.entity, err)
	}
	return s, true, nil
}

// ReconcileVotes deduplicates both sets, drops downvotes of users who also
// upvoted and recomputes the counters from the set sizes.
func (v voteCollection) ReconcileVotes(ctx context.Context) (int64, error) {
	up := ifNullArray("$upvotedBy")
	down := ifNullArray("$downvotedBy")
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "upvotedBy", Value: bson.D{{Key: "$setUnion", Value: bson.A{up}}}},
			{Key: "downvotedBy", Value: bson.D{{Key: "$setDifference", Value: bson.A{
				bson.D{{Key: "$setUnion", Value: bson.A{down}}}, up,
			}}}},
		}}},
	}
	pipeline = append(pipeline, v.counterStages(false)...)

	res, err := v.col.UpdateMany(ctx, bson.M{}, pipeline)
	if err != nil {
		return 0, apperrors.Internal("reconcile "+v.entity+" votes", err)
	}
	return res.ModifiedCount, nil
}

// membershipFilter matches id only while user is in state from. A user in
// both sets counts as an upvote, as in voting.Snapshot.StateOf.
func membershipFilter(id, user bson.ObjectID, from voting.State) bson.M {
	f := bson.M{"_id": id}
	switch from {
	case voting.StateUp:
		f["upvotedBy"] = user
	case voting.StateDown:
		f["upvotedBy"] = bson.M{"$ne": user}
		f["downvotedBy"] = user
	default:
		f["upvotedBy"] = bson.M{"$ne": user}
		f["downvotedBy"] = bson.M{"$ne": user}
	}
	return f
}

func (v voteCollection) swapPipeline(user bson.ObjectID, to voting.State) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "upvotedBy", Value: membershipExpr("$upvotedBy", user, to == voting.StateUp)},
			{Key: "downvotedBy", Value: membershipExpr("$downvotedBy", user, to == voting.StateDown)},
		}}},
	}
	return append(pipeline, v.counterStages(true)...)
}

func (v voteCollection) counterStages(touch bool) mongo.Pipeline {
	counters := bson.D{
		{Key: "upvotes", Value: bson.D{{Key: "$size", Value: "$upvotedBy"}}},
		{Key: "downvotes", Value: bson.D{{Key: "$size", Value: "$downvotedBy"}}},
	}
	if touch {
		counters = append(counters, bson.E{Key: "updatedAt", Value: "$$NOW"})
	}
	stages := mongo.Pipeline{{{Key: "$set", Value: counters}}}
	if v.scoreField != "" {
		score := bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$subtract", Value: bson.A{"$upvotes", "$downvotes"}}}}}}
		stages = append(stages, bson.D{{Key: "$set", Value: bson.D{{Key: v.scoreField, Value: score}}}})
	}
	return stages
}

func membershipExpr(field string, user bson.ObjectID, member bool) bson.D {
	op := "$setDifference"
	if member {
		op = "$setUnion"
	}
	return bson.D{{Key: op, Value: bson.A{ifNullArray(field), bson.A{user}}}}
}

func ifNullArray(field string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{field, bson.A{}}}}
}
