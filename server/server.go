// Package server wires repositories, sessions and storage into the HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/controllers"
	"github.com/princinho/stackforum/middleware"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/session"
	"github.com/princinho/stackforum/storage"
	"github.com/princinho/stackforum/voting"
)

type Deps struct {
	Repos          repositories.Set
	Sessions       *session.Manager
	Uploader       storage.Uploader // nil disables avatar uploads
	Validator      *storage.FileValidator
	Limits         controllers.QueryLimits
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	allowedOrigins := make(map[string]bool, len(d.AllowedOrigins))
	for _, origin := range d.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	users, questions, answers := d.Repos.Users, d.Repos.Questions, d.Repos.Answers
	questionVotes := voting.NewLedger(questions, "question")
	answerVotes := voting.NewLedger(answers, "answer")

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register(users))
		auth.POST("/login", controllers.Login(users, d.Sessions))
		auth.POST("/refresh-token", controllers.Refresh(users, d.Sessions))
		auth.POST("/logout", controllers.Logout(d.Sessions))
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Sessions))

	user := protected.Group("/user")
	{
		user.GET("/me", controllers.Me(users))
		user.PATCH("/me", controllers.UpdateMe(users))
		user.PATCH("/me/password", controllers.ChangeMyPassword(users))
		user.POST("/me/avatar", controllers.UploadAvatar(users, d.Uploader, d.Validator))
	}

	question := protected.Group("/question")
	{
		question.POST("/post", controllers.CreateQuestion(questions))
		question.GET("", controllers.ListQuestions(questions, answers, users, d.Limits))
		question.GET("/:id", controllers.GetQuestion(questions, answers, users))
		question.POST("/:id/upvote", controllers.VoteOnQuestion(questions, users, questionVotes, voting.Up))
		question.POST("/:id/downvote", controllers.VoteOnQuestion(questions, users, questionVotes, voting.Down))
		question.POST("/:id/vote", controllers.VoteOnQuestionByType(questions, users, questionVotes))
		question.POST("/:id/accept/:answerId", controllers.AcceptAnswer(questions, answers, users))
		question.GET("/:id/answers", controllers.ListAnswers(questions, answers, users))
		question.POST("/:id/answer", controllers.CreateAnswer(questions, answers, users))
		question.POST("/:id/answer/:answerId/vote", controllers.VoteOnAnswer(questions, answers, users, answerVotes))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(users, models.RoleAdmin))
	{
		admin.PATCH("/users/:id/role", controllers.SetUserRole(users))
		admin.PATCH("/questions/:id/approval", controllers.SetQuestionApproval(questions))
	}

	return r
}

func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	slog.Info("http server configured", "addr", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
