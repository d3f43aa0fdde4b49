package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Question struct {
	ID               bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID           bson.ObjectID   `bson:"userId" json:"userId"`
	Title            string          `bson:"title" json:"title"`
	Description      string          `bson:"description" json:"description"`
	Tags             []string        `bson:"tags" json:"tags"`
	IsResolved       bool            `bson:"isResolved" json:"isResolved"`
	IsApproved       bool            `bson:"isApproved" json:"isApproved"`
	AcceptedAnswerID *bson.ObjectID  `bson:"acceptedAnswerId,omitempty" json:"acceptedAnswerId,omitempty"`
	UpvotedBy        []bson.ObjectID `bson:"upvotedBy" json:"-"`
	DownvotedBy      []bson.ObjectID `bson:"downvotedBy" json:"-"`
	Upvotes          int             `bson:"upvotes" json:"upvotes"`
	Downvotes        int             `bson:"downvotes" json:"downvotes"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// QuestionView is what the API returns for a question.
type QuestionView struct {
	Question
	Author       Author `json:"author"`
	AnswersCount int64  `json:"answersCount"`
	HasUpvoted   bool   `json:"hasUpvoted"`
	HasDownvoted bool   `json:"hasDownvoted"`
}
