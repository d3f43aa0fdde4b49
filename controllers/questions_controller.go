package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/dto"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/utils"
	"github.com/princinho/stackforum/voting"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// QueryLimits bounds the page size of list endpoints.
type QueryLimits struct {
	Default int
	Max     int
}

// POST /question/post
func CreateQuestion(questions repositories.QuestionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var body dto.CreateQuestionDTO
		if !bindJSON(c, &body) {
			return
		}
		tags := utils.NormalizeTags(body.Tags)
		if len(tags) == 0 {
			respondError(c, apperrors.Validation("at least one tag is required"))
			return
		}

		now := time.Now().UTC()
		q := &models.Question{
			ID:          bson.NewObjectID(),
			UserID:      userID,
			Title:       strings.TrimSpace(body.Title),
			Description: body.Description,
			Tags:        tags,
			IsApproved:  true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := questions.Create(c.Request.Context(), q); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Question posted successfully", "question": q})
	}
}

// GET /question?page=&limit=&tag=&q=&resolved=&sort=newest|votes
//
// Admins also see unapproved questions; authors see their own.
func ListQuestions(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository, limits QueryLimits) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		sort := c.DefaultQuery("sort", repositories.SortNewest)
		if sort != repositories.SortNewest && sort != repositories.SortVotes {
			respondError(c, apperrors.Validation(`sort must be "newest" or "votes"`))
			return
		}
		resolved, err := utils.ParseBoolQuery(c.Query("resolved"))
		if err != nil {
			respondError(c, apperrors.Validation("resolved must be a boolean"))
			return
		}
		page, limit := utils.Page(c.Query("page"), c.Query("limit"), limits.Default, limits.Max)

		isAdmin, err := hasRole(ctx, users, userID, models.RoleAdmin)
		if err != nil {
			respondError(c, err)
			return
		}

		list, total, err := questions.List(ctx, repositories.QuestionFilter{
			Tag:               utils.GenerateSlug(c.Query("tag")),
			Query:             strings.TrimSpace(c.Query("q")),
			Sort:              sort,
			Resolved:          resolved,
			Page:              page,
			Limit:             limit,
			IncludeUnapproved: isAdmin,
			Owner:             userID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		views, err := questionViews(ctx, answers, users, userID, list)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"questions": views,
			"total":     total,
			"page":      page,
			"limit":     limit,
		})
	}
}

// GET /question/:id
func GetQuestion(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository) gin.HandlerFunc {
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

		views, err := questionViews(ctx, answers, users, userID, []models.Question{*q})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views[0])
	}
}

// POST /question/:id/upvote and /question/:id/downvote
func VoteOnQuestion(questions repositories.QuestionRepository, users repositories.UserRepository, ledger *voting.Ledger, dir voting.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyQuestionVote(c, questions, users, ledger, dir)
	}
}

// POST /question/:id/vote {"voteType": "up"|"down"}
func VoteOnQuestionByType(questions repositories.QuestionRepository, users repositories.UserRepository, ledger *voting.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.VoteDTO
		if !bindJSON(c, &body) {
			return
		}
		dir, err := voting.ParseDirection(body.VoteType)
		if err != nil {
			respondError(c, err)
			return
		}
		applyQuestionVote(c, questions, users, ledger, dir)
	}
}

func applyQuestionVote(c *gin.Context, questions repositories.QuestionRepository, users repositories.UserRepository, ledger *voting.Ledger, dir voting.Direction) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "question")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := visibleQuestion(ctx, questions, users, id, userID); err != nil {
		respondError(c, err)
		return
	}
	res, err := ledger.ApplyVote(ctx, id, userID, dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      voteMessage(res, dir),
		"upvotes":      res.Upvotes,
		"downvotes":    res.Downvotes,
		"hasUpvoted":   res.HasUpvoted(),
		"hasDownvoted": res.HasDownvoted(),
	})
}

func voteMessage(res voting.Result, dir voting.Direction) string {
	switch {
	case res.State == voting.StateNone && dir == voting.Up:
		return "Upvote removed"
	case res.State == voting.StateNone:
		return "Downvote removed"
	case res.State == voting.StateUp:
		return "Upvoted"
	default:
		return "Downvoted"
	}
}

// POST /question/:id/accept/:answerId
//
// Only the author of the question may accept an answer.
func AcceptAnswer(questions repositories.QuestionRepository, answers repositories.AnswerRepository, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id", "question")
		if !ok {
			return
		}
		answerID, ok := pathID(c, "answerId", "answer")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		q, err := visibleQuestion(ctx, questions, users, id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if q.UserID != userID {
			respondError(c, apperrors.InvalidCredential("only the author can accept an answer"))
			return
		}
		a, err := answers.FindByID(ctx, answerID)
		if err != nil {
			respondError(c, err)
			return
		}
		if a.QuestionID != q.ID {
			respondError(c, apperrors.NotFound("answer not found"))
			return
		}

		if err := questions.AcceptAnswer(ctx, q.ID, a.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Answer accepted", "acceptedAnswerId": a.ID})
	}
}

// PATCH /admin/questions/:id/approval
func SetQuestionApproval(questions repositories.QuestionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id", "question")
		if !ok {
			return
		}
		var body dto.ApprovalDTO
		if !bindJSON(c, &body) {
			return
		}
		if err := questions.SetApproved(c.Request.Context(), id, *body.Approved); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "isApproved": *body.Approved})
	}
}

// visibleQuestion loads a question, reporting unapproved ones as missing to
// everyone but their author and admins.
func visibleQuestion(ctx context.Context, questions repositories.QuestionRepository, users repositories.UserRepository, id, caller bson.ObjectID) (*models.Question, error) {
	q, err := questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.IsApproved || q.UserID == caller {
		return q, nil
	}
	isAdmin, err := hasRole(ctx, users, caller, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperrors.NotFound("question not found")
	}
	return q, nil
}

func hasRole(ctx context.Context, users repositories.UserRepository, userID bson.ObjectID, role models.Role) (bool, error) {
	u, err := users.FindByID(ctx, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return u.Role == role, nil
}

func questionViews(ctx context.Context, answers repositories.AnswerRepository, users repositories.UserRepository, caller bson.ObjectID, list []models.Question) ([]models.QuestionView, error) {
	ids := make([]bson.ObjectID, 0, len(list))
	authorIDs := make([]bson.ObjectID, 0, len(list))
	for _, q := range list {
		ids = append(ids, q.ID)
		authorIDs = append(authorIDs, q.UserID)
	}

	counts, err := answers.CountByQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.QuestionView, 0, len(list))
	for _, q := range list {
		state := voting.Snapshot{Up: q.UpvotedBy, Down: q.DownvotedBy}.StateOf(caller)
		views = append(views, models.QuestionView{
			Question:     q,
			Author:       authorOf(authors, q.UserID),
			AnswersCount: counts[q.ID],
			HasUpvoted:   state == voting.StateUp,
			HasDownvoted: state == voting.StateDown,
		})
	}
	return views, nil
}

func authorOf(authors map[bson.ObjectID]*models.User, id bson.ObjectID) models.Author {
	if u, ok := authors[id]; ok {
		return u.Author()
	}
	return models.Author{ID: id, Name: "Unknown"}
}
