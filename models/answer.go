package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Answer struct {
	ID          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	QuestionID  bson.ObjectID   `bson:"questionId" json:"questionId"`
	UserID      bson.ObjectID   `bson:"userId" json:"userId"`
	Content     string          `bson:"content" json:"content"`
	Votes       int             `bson:"votes" json:"votes"`
	Upvotes     int             `bson:"upvotes" json:"upvotes"`
	Downvotes   int             `bson:"downvotes" json:"downvotes"`
	UpvotedBy   []bson.ObjectID `bson:"upvotedBy" json:"-"`
	DownvotedBy []bson.ObjectID `bson:"downvotedBy" json:"-"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type AnswerView struct {
	Answer
	Author       Author `json:"author"`
	IsAccepted   bool   `json:"isAccepted"`
	HasUpvoted   bool   `json:"hasUpvoted"`
	HasDownvoted bool   `json:"hasDownvoted"`
}
