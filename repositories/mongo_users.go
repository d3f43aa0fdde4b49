package repositories

import (
	"context"
	"time"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoUsers struct {
	col *mongo.Collection
}

func NewMongoUsers(col *mongo.Collection) *MongoUsers {
	return &MongoUsers{col: col}
}

func (r *MongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if IsDuplicateKey(err) {
			return apperrors.Conflict("email already in use")
		}
		return apperrors.Internal("insert user", err)
	}
	return nil
}

func (r *MongoUsers) EnsureUser(ctx context.Context, u *models.User) (bool, error) {
	// Only insert if it doesn't exist
	filter := bson.M{"email": u.Email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":         u.Name,
			"email":        u.Email,
			"passwordHash": u.PasswordHash,
			"role":         u.Role,
			"createdAt":    u.CreatedAt,
			"updatedAt":    u.UpdatedAt,
		},
	}

	res, err := r.col.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, apperrors.Internal("upsert user", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, findErr(err, "user")
	}
	return &u, nil
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, findErr(err, "user")
	}
	return &u, nil
}

func (r *MongoUsers) FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.User, error) {
	out := make(map[bson.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"passwordHash": 0})
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, apperrors.Internal("find users", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var u models.User
		if err := cursor.Decode(&u); err != nil {
			return nil, apperrors.Internal("decode user", err)
		}
		out[u.ID] = &u
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Internal("iterate users", err)
	}
	return out, nil
}

func (r *MongoUsers) UpdateProfile(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Profile != nil {
		set["profile"] = *upd.Profile
	}
	if upd.AvatarURL != nil {
		set["avatarUrl"] = *upd.AvatarURL
	}

	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, findErr(err, "user")
	}
	return &u, nil
}

func (r *MongoUsers) UpdateRole(ctx context.Context, id bson.ObjectID, role models.Role) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return apperrors.Internal("update user role", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (r *MongoUsers) UpdatePasswordHash(ctx context.Context, id bson.ObjectID, hash string) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return apperrors.Internal("update user password", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}
