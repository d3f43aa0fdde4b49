package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/dto"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/voting"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /question/:id/answers
func ListAnswers(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id", "question")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		q, err := visibleQuestion(ctx, questions, users, id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		list, err := answers.ListByQuestion(ctx, q.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		authorIDs := make([]bson.ObjectID, 0, len(list))
		for _, a := range list {
			authorIDs = append(authorIDs, a.UserID)
		}
		authors, err := users.FindByIDs(ctx, authorIDs)
		if err != nil {
			respondError(c, err)
			return
		}

		views := make([]models.AnswerView, 0, len(list))
		for _, a := range list {
			state := voting.Snapshot{Up: a.UpvotedBy, Down: a.DownvotedBy}.StateOf(userID)
			views = append(views, models.AnswerView{
				Answer:       a,
				Author:       authorOf(authors, a.UserID),
				IsAccepted:   q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == a.ID,
				HasUpvoted:   state == voting.StateUp,
				HasDownvoted: state == voting.StateDown,
			})
		}
		c.JSON(http.StatusOK, gin.H{"answers": views})
	}
}

// POST /question/:id/answer
func CreateAnswer(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id", "question")
		if !ok {
			return
		}
		var body dto.CreateAnswerDTO
		if !bindJSON(c, &body) {
			return
		}
		ctx := c.Request.Context()

		if _, err := visibleQuestion(ctx, questions, users, id, userID); err != nil {
			respondError(c, err)
			return
		}

		now := time.Now().UTC()
		a := &models.Answer{
			ID:         bson.NewObjectID(),
			QuestionID: id,
			UserID:     userID,
			Content:    body.Content,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := answers.Create(ctx, a); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Answer added successfully", "answer": a})
	}
}

// POST /question/:id/answer/:answerId/vote {"voteType": "up"|"down"}
func VoteOnAnswer(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository, ledger *voting.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		questionID, ok := pathID(c, "id", "question")
		if !ok {
			return
		}
		answerID, ok := pathID(c, "answerId", "answer")
		if !ok {
			return
		}
		var body dto.VoteDTO
		if !bindJSON(c, &body) {
			return
		}
		dir, err := voting.ParseDirection(body.VoteType)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()

		if _, err := visibleQuestion(ctx, questions, users, questionID, userID); err != nil {
			respondError(c, err)
			return
		}
		a, err := answers.FindByID(ctx, answerID)
		if err != nil {
			respondError(c, err)
			return
		}
		if a.QuestionID != questionID {
			respondError(c, apperrors.NotFound("answer not found"))
			return
		}

		res, err := ledger.ApplyVote(ctx, a.ID, userID, dir)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Vote updated",
			"votes":        res.Score,
			"upvotes":      res.Upvotes,
			"downvotes":    res.Downvotes,
			"hasUpvoted":   res.HasUpvoted(),
			"hasDownvoted": res.HasDownvoted(),
		})
	}
}
